package shared

import (
	"strconv"

	"github.com/chengpei-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCompanyID 从上下文读取当前公司 ID，缺失时返回未授权
func GetCompanyID(c *gin.Context) (uint, bool) {
	return getContextUint(c, "company_id")
}

// GetOperatorID 从上下文读取当前操作员 ID
func GetOperatorID(c *gin.Context) (uint, bool) {
	return getContextUint(c, "operator_id")
}

func getContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "未登录或令牌无效", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "上下文参数非法", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "上下文参数非法", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "上下文参数类型错误", nil)
		return 0, false
	}
}

// ParseUintParam 解析路径参数为 uint
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		RespondError(c, response.CodeBadRequest, "路径参数非法", err)
		return 0, false
	}
	return uint(parsed), true
}
