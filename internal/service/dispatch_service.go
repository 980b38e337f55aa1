package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chengpei-next/internal/cache"
	"github.com/chengpei-next/internal/config"
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"

	"gorm.io/gorm"
)

// DispatchService 发车调度服务
type DispatchService struct {
	routeRepo      repository.RouteRepository
	routeOrderRepo repository.RouteOrderRepository
	orderRepo      repository.SalesOrderRepository
	stockService   *StockService
	queueClient    *queue.Client
	routeCfg       *config.RouteConfig
}

// NewDispatchService 创建发车调度服务
func NewDispatchService(routeRepo repository.RouteRepository, routeOrderRepo repository.RouteOrderRepository, orderRepo repository.SalesOrderRepository, stockService *StockService, queueClient *queue.Client, routeCfg *config.RouteConfig) *DispatchService {
	return &DispatchService{
		routeRepo:      routeRepo,
		routeOrderRepo: routeOrderRepo,
		orderRepo:      orderRepo,
		stockService:   stockService,
		queueClient:    queueClient,
		routeCfg:       routeCfg,
	}
}

// DispatchResult 发车结果
type DispatchResult struct {
	RouteID          uint       `json:"route_id"`
	LockedAt         time.Time  `json:"locked_at"`
	MovementsWritten int        `json:"movements_written"`
	DeductionError   string     `json:"deduction_error,omitempty"`
	StockDeductedAt  *time.Time `json:"stock_deducted_at,omitempty"`
}

// Dispatch 发车：planned → in_route，并触发一次库存扣减
// 扣减失败不回滚发车，车辆已经离场，失败记录在路线上等待人工或任务重试。
func (s *DispatchService) Dispatch(ctx context.Context, companyID, operatorID, routeID uint) (*DispatchResult, error) {
	if companyID == 0 || routeID == 0 {
		return nil, ErrInvalidPayload
	}

	// Redis 快路径锁，拦截同一路线的并发发车请求；真正的守卫在事务内
	lockKey := fmt.Sprintf("route:dispatch:%d", routeID)
	lockTTL := time.Duration(s.dispatchLockTTLSeconds()) * time.Second
	acquired, err := cache.AcquireLock(ctx, lockKey, lockTTL)
	if err != nil {
		logger.Warnw("dispatch_lock_acquire_failed", "route_id", routeID, "error", err)
	} else if !acquired {
		return nil, ErrDispatchInFlight
	}
	defer func() {
		if err := cache.ReleaseLock(ctx, lockKey); err != nil {
			logger.Warnw("dispatch_lock_release_failed", "route_id", routeID, "error", err)
		}
	}()

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		routeOrderRepo := s.routeOrderRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if route.Status != constants.RouteStatusPlanned {
			return ErrInvalidTransition
		}

		count, err := routeOrderRepo.CountByRoute(routeID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrInvalidPayload
		}

		if err := routeRepo.UpdateStatus(routeID, constants.RouteStatusInRoute, map[string]interface{}{
			"dispatched_at": now,
			"updated_at":    now,
		}); err != nil {
			return err
		}

		// 在途订单禁止被其他路线再次调度
		routeOrders, err := routeOrderRepo.ListByRoute(routeID)
		if err != nil {
			return err
		}
		for _, routeOrder := range routeOrders {
			if err := orderRepo.UpdateDispatchStatus(routeOrder.OrderID, constants.OrderDispatchBlocked); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidPayload):
			return nil, err
		default:
			return nil, ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteDispatch, routeID, models.JSON{
		"locked_at": now,
	})

	result := &DispatchResult{
		RouteID:  routeID,
		LockedAt: now,
	}

	// 状态翻转已提交，扣减独立执行；崩溃或失败由重试任务兜底，幂等标记保证不重复扣
	written, deductErr := s.stockService.DeductStockForRoute(companyID, routeID)
	if deductErr != nil {
		logger.Errorw("dispatch_stock_deduction_failed",
			"company_id", companyID,
			"route_id", routeID,
			"error", deductErr,
		)
		result.DeductionError = deductErr.Error()
		if err := s.routeRepo.Updates(routeID, map[string]interface{}{
			"stock_deduction_error": deductErr.Error(),
			"updated_at":            time.Now(),
		}); err != nil {
			logger.Warnw("dispatch_deduction_error_persist_failed", "route_id", routeID, "error", err)
		}
		if err := s.queueClient.EnqueueStockDeductRetry(queue.StockDeductRetryPayload{
			CompanyID: companyID,
			RouteID:   routeID,
		}, time.Duration(s.deductRetryDelaySeconds())*time.Second); err != nil {
			logger.Warnw("dispatch_enqueue_deduct_retry_failed", "route_id", routeID, "error", err)
		}
		return result, ErrDeductionFailed
	}
	result.MovementsWritten = written
	deductedAt := time.Now()
	result.StockDeductedAt = &deductedAt
	return result, nil
}

func (s *DispatchService) dispatchLockTTLSeconds() int {
	if s.routeCfg != nil && s.routeCfg.DispatchLockTTLSeconds > 0 {
		return s.routeCfg.DispatchLockTTLSeconds
	}
	return 30
}

func (s *DispatchService) deductRetryDelaySeconds() int {
	if s.routeCfg != nil && s.routeCfg.DeductRetryDelaySeconds > 0 {
		return s.routeCfg.DeductRetryDelaySeconds
	}
	return 60
}
