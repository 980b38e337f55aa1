package models

import (
	"time"

	"gorm.io/gorm"
)

// InventoryMovement 库存流水表（只追加，不回改）
type InventoryMovement struct {
	ID        uint           `gorm:"primarykey" json:"id"`                               // 主键
	CompanyID uint           `gorm:"index;not null" json:"company_id"`                   // 公司ID
	ProductID uint           `gorm:"index;not null" json:"product_id"`                   // 货品ID
	RouteID   uint           `gorm:"index;not null" json:"route_id"`                     // 来源路线ID
	Direction string         `gorm:"type:varchar(10);index;not null" json:"direction"`   // 方向 out/in
	Source    string         `gorm:"type:varchar(50);not null" json:"source"`            // 业务来源
	Quantity  Quantity       `gorm:"type:decimal(20,3);not null" json:"quantity"`        // 数量
	Remark    string         `gorm:"type:varchar(255)" json:"remark,omitempty"`          // 备注
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
