package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog 操作审计日志表（异步写入，允许丢失）
type AuditLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`                           // 主键
	CompanyID  uint           `gorm:"index;not null" json:"company_id"`               // 公司ID
	OperatorID uint           `gorm:"index" json:"operator_id"`                       // 操作人ID
	Action     string         `gorm:"type:varchar(50);index;not null" json:"action"`  // 动作编码
	RouteID    uint           `gorm:"index" json:"route_id"`                          // 关联路线ID
	Detail     JSON           `gorm:"type:json" json:"detail,omitempty"`              // 变更明细
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                     // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
