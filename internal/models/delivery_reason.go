package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryReason 配送异常原因字典表（按分组区分适用场景）
type DeliveryReason struct {
	ID        uint           `gorm:"primarykey" json:"id"`                              // 主键
	CompanyID uint           `gorm:"index;not null" json:"company_id"`                  // 公司ID（0 表示平台内置）
	Code      string         `gorm:"type:varchar(50);index;not null" json:"code"`       // 原因编码
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`            // 原因名称
	GroupKey  string         `gorm:"type:varchar(50);index;not null" json:"group_key"`  // 适用分组
	Sort      int            `gorm:"not null;default:0" json:"sort"`                    // 排序值
	Enabled   bool           `gorm:"not null" json:"enabled"`                           // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (DeliveryReason) TableName() string {
	return "delivery_reasons"
}
