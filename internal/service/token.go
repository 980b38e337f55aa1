package service

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims 操作员令牌载荷，由上游账号系统签发
type OperatorClaims struct {
	OperatorID uint   `json:"operator_id"`
	CompanyID  uint   `json:"company_id"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}
