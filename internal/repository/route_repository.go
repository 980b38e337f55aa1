package repository

import (
	"errors"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"

	"gorm.io/gorm"
)

// RouteRepository 配送路线数据访问接口
type RouteRepository interface {
	Create(route *models.DeliveryRoute) error
	GetByID(companyID, id uint) (*models.DeliveryRoute, error)
	GetByIDForUpdate(companyID, id uint) (*models.DeliveryRoute, error)
	List(filter RouteListFilter) ([]models.DeliveryRoute, int64, error)
	ListPendingDeduction() ([]models.DeliveryRoute, error)
	Updates(id uint, updates map[string]interface{}) error
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormRouteRepository
}

// GormRouteRepository GORM 实现
type GormRouteRepository struct {
	db *gorm.DB
}

// NewRouteRepository 创建路线仓库
func NewRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRouteRepository) WithTx(tx *gorm.DB) *GormRouteRepository {
	if tx == nil {
		return r
	}
	return &GormRouteRepository{db: tx}
}

func (r *GormRouteRepository) withOrders(query *gorm.DB) *gorm.DB {
	return query.Preload("Orders", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc, id asc")
	}).Preload("Orders.Items")
}

// Create 创建配送路线
func (r *GormRouteRepository) Create(route *models.DeliveryRoute) error {
	return r.db.Create(route).Error
}

// GetByID 获取路线详情（含挂载订单与明细行）
func (r *GormRouteRepository) GetByID(companyID, id uint) (*models.DeliveryRoute, error) {
	var route models.DeliveryRoute
	query := r.withOrders(r.db)
	if err := query.Where("company_id = ?", companyID).First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

// GetByIDForUpdate 加行锁获取路线，仅在事务内使用
func (r *GormRouteRepository) GetByIDForUpdate(companyID, id uint) (*models.DeliveryRoute, error) {
	var route models.DeliveryRoute
	if err := lockForUpdate(r.db).
		Where("company_id = ?", companyID).
		First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

// List 查询路线列表
func (r *GormRouteRepository) List(filter RouteListFilter) ([]models.DeliveryRoute, int64, error) {
	var routes []models.DeliveryRoute
	query := r.db.Model(&models.DeliveryRoute{}).Where("company_id = ?", filter.CompanyID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DriverName != "" {
		query = query.Where("driver_name = ?", filter.DriverName)
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_date >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_date <= ?", *filter.ScheduledTo)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&routes).Error; err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

// ListPendingDeduction 查询在途但尚未完成库存扣减的路线
func (r *GormRouteRepository) ListPendingDeduction() ([]models.DeliveryRoute, error) {
	var routes []models.DeliveryRoute
	if err := r.db.Model(&models.DeliveryRoute{}).
		Where("status = ?", constants.RouteStatusInRoute).
		Where("stock_deducted_at IS NULL").
		Order("id asc").
		Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

// Updates 部分字段更新
func (r *GormRouteRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.DeliveryRoute{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus 更新路线状态
func (r *GormRouteRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.DeliveryRoute{}).Where("id = ?", id).Updates(updates).Error
}
