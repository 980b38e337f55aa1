package models

import (
	"time"

	"gorm.io/gorm"
)

// RouteOrder 路线订单关联表（同一路线同一订单最多一条有效记录）
type RouteOrder struct {
	ID                uint           `gorm:"primarykey" json:"id"`                            // 主键
	CompanyID         uint           `gorm:"index;not null" json:"company_id"`                // 公司ID
	RouteID           uint           `gorm:"index:idx_route_orders_pair;not null" json:"route_id"` // 路线ID
	OrderID           uint           `gorm:"index:idx_route_orders_pair;not null" json:"order_id"` // 订单ID
	Position          int            `gorm:"not null;default:0" json:"position"`              // 路线内顺序
	Volumes           int            `gorm:"not null;default:0" json:"volumes"`               // 包裹件数
	LoadingStatus     string         `gorm:"index;not null" json:"loading_status"`            // 装车状态
	PartialPayload    JSON           `gorm:"type:json" json:"partial_payload,omitempty"`      // 部分装车原始载荷（仅审计）
	ReturnOutcomeType string         `gorm:"index" json:"return_outcome_type,omitempty"`      // 回单结果（对账时写入一次）
	ReturnPayload     JSON           `gorm:"type:json" json:"return_payload,omitempty"`       // 回单原始载荷（仅审计）
	ReasonCode        string         `gorm:"type:varchar(50)" json:"reason_code,omitempty"`   // 异常原因编码
	ReconciledAt      *time.Time     `gorm:"index" json:"reconciled_at,omitempty"`            // 对账时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Items []DeliveryItem `gorm:"foreignKey:RouteOrderID" json:"items,omitempty"` // 配送明细行
}

// TableName 指定表名
func (RouteOrder) TableName() string {
	return "route_orders"
}
