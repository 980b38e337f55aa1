package repository

import (
	"errors"

	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// SalesOrderRepository 销售订单数据访问接口
type SalesOrderRepository interface {
	Create(order *models.SalesOrder, items []models.SalesOrderItem) error
	GetByID(companyID, id uint) (*models.SalesOrder, error)
	GetByOrderNo(companyID uint, orderNo string) (*models.SalesOrder, error)
	List(filter SalesOrderListFilter) ([]models.SalesOrder, int64, error)
	UpdateDispatchStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormSalesOrderRepository
}

// GormSalesOrderRepository GORM 实现
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewSalesOrderRepository 创建销售订单仓库
func NewSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSalesOrderRepository) WithTx(tx *gorm.DB) *GormSalesOrderRepository {
	if tx == nil {
		return r
	}
	return &GormSalesOrderRepository{db: tx}
}

// Create 创建销售订单与订单行
func (r *GormSalesOrderRepository) Create(order *models.SalesOrder, items []models.SalesOrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
		items[i].CompanyID = order.CompanyID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 获取订单详情（含订单行）
func (r *GormSalesOrderRepository) GetByID(companyID, id uint) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.db.Preload("Items").
		Where("company_id = ?", companyID).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormSalesOrderRepository) GetByOrderNo(companyID uint, orderNo string) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.db.Preload("Items").
		Where("company_id = ? AND order_no = ?", companyID, orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 查询订单列表
func (r *GormSalesOrderRepository) List(filter SalesOrderListFilter) ([]models.SalesOrder, int64, error) {
	var orders []models.SalesOrder
	query := r.db.Model(&models.SalesOrder{}).Where("company_id = ?", filter.CompanyID)

	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.DispatchStatus != "" {
		query = query.Where("dispatch_status = ?", filter.DispatchStatus)
	}
	if filter.Search != "" {
		query = query.Where("customer_name LIKE ? OR order_no LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateDispatchStatus 更新订单调度状态
func (r *GormSalesOrderRepository) UpdateDispatchStatus(id uint, status string) error {
	return r.db.Model(&models.SalesOrder{}).Where("id = ?", id).Update("dispatch_status", status).Error
}
