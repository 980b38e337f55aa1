package models

import (
	"time"

	"gorm.io/gorm"
)

// SalesOrder 销售订单表（上游订单子系统维护，本服务只读 + 回写发货标记）
type SalesOrder struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                      // 主键
	CompanyID      uint           `gorm:"index;not null" json:"company_id"`                          // 公司ID
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	CustomerName   string         `gorm:"type:varchar(200)" json:"customer_name"`                    // 客户名称
	DispatchStatus string         `gorm:"not null;default:open" json:"dispatch_status"`              // 发货标记（open/blocked）
	TotalWeight    Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"total_weight"` // 订单总重量
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []SalesOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 已确认的订单行
}

// TableName 指定表名
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// SalesOrderItem 销售订单行表（计划量与单重在确认时已固定）
type SalesOrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	CompanyID   uint           `gorm:"index;not null" json:"company_id"`                         // 公司ID
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                         // 货品ID
	ProductName string         `gorm:"type:varchar(200)" json:"product_name"`                    // 货品名称快照
	QtyPlanned  Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"qty_planned"` // 计划数量
	UnitWeight  Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"unit_weight"` // 单件重量
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (SalesOrderItem) TableName() string {
	return "sales_order_items"
}
