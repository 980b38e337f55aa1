package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryItem 配送明细行表（每条对应一个订单行在某条路线上的四个数量口径）
type DeliveryItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	CompanyID    uint           `gorm:"index;not null" json:"company_id"`                           // 公司ID
	RouteOrderID uint           `gorm:"index;not null" json:"route_order_id"`                       // 路线订单ID
	OrderItemID  uint           `gorm:"index;not null" json:"order_item_id"`                        // 订单行ID
	ProductID    uint           `gorm:"index;not null" json:"product_id"`                           // 货品ID
	QtyPlanned   Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"qty_planned"`   // 计划数量（挂载时拷贝，不再变更）
	QtyLoaded    Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"qty_loaded"`    // 实际装车数量
	QtyDelivered Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"qty_delivered"` // 客户签收数量
	QtyReturned  Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"qty_returned"`  // 退回数量（派生值）
	UnitWeight   Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"unit_weight"`   // 单件重量快照
	ReasonCode   string         `gorm:"type:varchar(50)" json:"reason_code,omitempty"`              // 行级异常原因编码
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (DeliveryItem) TableName() string {
	return "delivery_items"
}
