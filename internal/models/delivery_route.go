package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryRoute 配送路线表
type DeliveryRoute struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                       // 主键
	CompanyID           uint           `gorm:"index;not null" json:"company_id"`                           // 公司ID
	Name                string         `gorm:"type:varchar(200);not null" json:"name"`                     // 路线名称
	ScheduledDate       time.Time      `gorm:"index;not null" json:"scheduled_date"`                       // 计划配送日期
	Status              string         `gorm:"index;not null" json:"status"`                               // 路线状态
	DriverName          string         `gorm:"type:varchar(200)" json:"driver_name"`                       // 司机姓名
	VehiclePlate        string         `gorm:"type:varchar(20)" json:"vehicle_plate"`                      // 车牌号
	TotalWeight         Quantity       `gorm:"type:decimal(20,3);not null;default:0" json:"total_weight"`  // 装载总重量（服务层重算）
	TotalVolumes        int            `gorm:"not null;default:0" json:"total_volumes"`                    // 包裹总件数
	DispatchedAt        *time.Time     `gorm:"index" json:"dispatched_at,omitempty"`                       // 发车时间
	StockDeductedAt     *time.Time     `gorm:"index" json:"stock_deducted_at,omitempty"`                   // 库存扣减完成标记（幂等依据）
	StockDeductionError string         `gorm:"type:varchar(500)" json:"stock_deduction_error,omitempty"`   // 扣减失败待人工处理说明
	CompletedAt         *time.Time     `gorm:"index" json:"completed_at,omitempty"`                        // 完成时间
	CancelledAt         *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                        // 取消时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Orders []RouteOrder `gorm:"foreignKey:RouteID" json:"orders,omitempty"` // 路线内订单
}

// TableName 指定表名
func (DeliveryRoute) TableName() string {
	return "delivery_routes"
}
