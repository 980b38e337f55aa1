package service

import (
	"errors"
	"strings"
	"time"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RouteService 配送路线服务
type RouteService struct {
	routeRepo      repository.RouteRepository
	routeOrderRepo repository.RouteOrderRepository
	orderRepo      repository.SalesOrderRepository
	queueClient    *queue.Client
}

// NewRouteService 创建路线服务
func NewRouteService(routeRepo repository.RouteRepository, routeOrderRepo repository.RouteOrderRepository, orderRepo repository.SalesOrderRepository, queueClient *queue.Client) *RouteService {
	return &RouteService{
		routeRepo:      routeRepo,
		routeOrderRepo: routeOrderRepo,
		orderRepo:      orderRepo,
		queueClient:    queueClient,
	}
}

// CreateRouteInput 创建路线输入
type CreateRouteInput struct {
	Name          string
	ScheduledDate time.Time
	DriverName    string
	VehiclePlate  string
}

// CreateRoute 创建配送路线，初始状态恒为 planned
func (s *RouteService) CreateRoute(companyID, operatorID uint, input CreateRouteInput) (*models.DeliveryRoute, error) {
	name := strings.TrimSpace(input.Name)
	if companyID == 0 || name == "" {
		return nil, ErrInvalidPayload
	}
	if input.ScheduledDate.IsZero() {
		return nil, ErrInvalidPayload
	}

	route := &models.DeliveryRoute{
		CompanyID:     companyID,
		Name:          name,
		ScheduledDate: input.ScheduledDate,
		Status:        constants.RouteStatusPlanned,
		DriverName:    strings.TrimSpace(input.DriverName),
		VehiclePlate:  strings.TrimSpace(input.VehiclePlate),
	}
	if err := s.routeRepo.Create(route); err != nil {
		return nil, ErrRouteCreateFailed
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteCreate, route.ID, models.JSON{
		"name":           route.Name,
		"scheduled_date": route.ScheduledDate,
	})
	return route, nil
}

// GetRoute 获取路线详情
func (s *RouteService) GetRoute(companyID, routeID uint) (*models.DeliveryRoute, error) {
	route, err := s.routeRepo.GetByID(companyID, routeID)
	if err != nil {
		return nil, ErrRouteFetchFailed
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

// ListRoutes 查询路线列表
func (s *RouteService) ListRoutes(filter repository.RouteListFilter) ([]models.DeliveryRoute, int64, error) {
	routes, total, err := s.routeRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRouteFetchFailed
	}
	return routes, total, nil
}

// AddOrderInput 挂载订单输入
type AddOrderInput struct {
	OrderID  uint
	Position int
	Volumes  int
}

// AddOrderToRoute 将订单挂载到路线，同一 (route, order) 只允许一条有效记录
func (s *RouteService) AddOrderToRoute(companyID, operatorID, routeID uint, input AddOrderInput) (*models.RouteOrder, error) {
	if companyID == 0 || routeID == 0 || input.OrderID == 0 {
		return nil, ErrInvalidPayload
	}

	order, err := s.orderRepo.GetByID(companyID, input.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(order.Items) == 0 {
		return nil, ErrInvalidPayload
	}

	var created *models.RouteOrder
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		routeOrderRepo := s.routeOrderRepo.WithTx(tx)

		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if route.Status != constants.RouteStatusPlanned {
			return ErrRouteLocked
		}

		existing, err := routeOrderRepo.GetByRouteAndOrder(routeID, input.OrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateAssignment
		}

		position := input.Position
		if position <= 0 {
			count, err := routeOrderRepo.CountByRoute(routeID)
			if err != nil {
				return err
			}
			position = int(count) + 1
		}

		routeOrder := &models.RouteOrder{
			CompanyID:     companyID,
			RouteID:       routeID,
			OrderID:       input.OrderID,
			Position:      position,
			Volumes:       input.Volumes,
			LoadingStatus: constants.LoadingStatusPending,
		}
		items := make([]models.DeliveryItem, 0, len(order.Items))
		for _, line := range order.Items {
			items = append(items, models.DeliveryItem{
				OrderItemID: line.ID,
				ProductID:   line.ProductID,
				QtyPlanned:  line.QtyPlanned,
				UnitWeight:  line.UnitWeight,
			})
		}
		if err := routeOrderRepo.Create(routeOrder, items); err != nil {
			return err
		}
		if err := recalcRouteTotals(tx, routeID); err != nil {
			return err
		}
		created = routeOrder
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrRouteLocked), errors.Is(err, ErrDuplicateAssignment):
			return nil, err
		default:
			return nil, ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteOrderAttach, routeID, models.JSON{
		"order_id":       input.OrderID,
		"route_order_id": created.ID,
		"position":       created.Position,
	})
	return created, nil
}

// RemoveOrderFromRoute 从路线上摘除订单，仅限 planned 状态
func (s *RouteService) RemoveOrderFromRoute(companyID, operatorID, routeID, orderID uint) error {
	if companyID == 0 || routeID == 0 || orderID == 0 {
		return ErrInvalidPayload
	}

	var removedID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		routeOrderRepo := s.routeOrderRepo.WithTx(tx)

		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if route.Status != constants.RouteStatusPlanned {
			return ErrRouteLocked
		}

		routeOrder, err := routeOrderRepo.GetByRouteAndOrder(routeID, orderID)
		if err != nil {
			return err
		}
		if routeOrder == nil {
			return ErrRouteOrderNotFound
		}
		if err := routeOrderRepo.Delete(routeOrder.ID); err != nil {
			return err
		}
		if err := recalcRouteTotals(tx, routeID); err != nil {
			return err
		}
		removedID = routeOrder.ID
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrRouteLocked), errors.Is(err, ErrRouteOrderNotFound):
			return err
		default:
			return ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteOrderDetach, routeID, models.JSON{
		"order_id":       orderID,
		"route_order_id": removedID,
	})
	return nil
}

// CancelRoute 取消路线，planned/in_route 均可取消；取消不会自动回冲库存
func (s *RouteService) CancelRoute(companyID, operatorID, routeID uint) (*models.DeliveryRoute, error) {
	if companyID == 0 || routeID == 0 {
		return nil, ErrInvalidPayload
	}

	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if !canTransitionRouteStatus(route.Status, constants.RouteStatusCancelled) {
			return ErrInvalidTransition
		}
		if err := routeRepo.UpdateStatus(routeID, constants.RouteStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}

		// 路线取消后释放订单的调度占用
		routeOrders, err := s.routeOrderRepo.WithTx(tx).ListByRoute(routeID)
		if err != nil {
			return err
		}
		orderRepo := s.orderRepo.WithTx(tx)
		for _, routeOrder := range routeOrders {
			if err := orderRepo.UpdateDispatchStatus(routeOrder.OrderID, constants.OrderDispatchOpen); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrInvalidTransition):
			return nil, err
		default:
			return nil, ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteCancel, routeID, models.JSON{
		"cancelled_at": now,
	})
	return s.GetRoute(companyID, routeID)
}

// recalcRouteTotals 重算路线总件数与总重量，必须与引发变更的写入同事务执行
func recalcRouteTotals(tx *gorm.DB, routeID uint) error {
	var routeOrders []models.RouteOrder
	if err := tx.Preload("Items").
		Where("route_id = ?", routeID).
		Find(&routeOrders).Error; err != nil {
		return err
	}

	totalVolumes := 0
	totalWeight := decimal.Zero
	for _, routeOrder := range routeOrders {
		totalVolumes += routeOrder.Volumes
		for _, item := range routeOrder.Items {
			totalWeight = totalWeight.Add(item.QtyPlanned.Mul(item.UnitWeight.Decimal))
		}
	}

	return tx.Model(&models.DeliveryRoute{}).Where("id = ?", routeID).Updates(map[string]interface{}{
		"total_volumes": totalVolumes,
		"total_weight":  models.NewQuantityFromDecimal(totalWeight),
	}).Error
}
