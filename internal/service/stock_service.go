package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"

	"gorm.io/gorm"
)

// StockService 库存扣减协调服务
type StockService struct {
	routeRepo    repository.RouteRepository
	itemRepo     repository.DeliveryItemRepository
	movementRepo repository.InventoryMovementRepository
	queueClient  *queue.Client
}

// NewStockService 创建库存扣减服务
func NewStockService(routeRepo repository.RouteRepository, itemRepo repository.DeliveryItemRepository, movementRepo repository.InventoryMovementRepository, queueClient *queue.Client) *StockService {
	return &StockService{
		routeRepo:    routeRepo,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		queueClient:  queueClient,
	}
}

// DeductStockForRoute 为路线装车量写出库流水，按路线幂等
// 幂等依据是路线上持久化的扣减标记，而不是流水历史，避免部分失败时重复计数。
func (s *StockService) DeductStockForRoute(companyID, routeID uint) (int, error) {
	if companyID == 0 || routeID == 0 {
		return 0, ErrInvalidPayload
	}

	now := time.Now()
	written := 0
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		movementRepo := s.movementRepo.WithTx(tx)

		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if route.StockDeductedAt != nil {
			// 已扣减过，重复调用视为无操作
			return nil
		}

		items, err := itemRepo.ListByRoute(routeID)
		if err != nil {
			return err
		}

		movements := make([]models.InventoryMovement, 0, len(items))
		for _, item := range items {
			if !item.QtyLoaded.IsPositive() {
				continue
			}
			movements = append(movements, models.InventoryMovement{
				CompanyID: companyID,
				ProductID: item.ProductID,
				RouteID:   routeID,
				Direction: constants.MovementDirectionOut,
				Source:    constants.MovementSourceRouteDispatch,
				Quantity:  item.QtyLoaded,
			})
		}
		if err := movementRepo.CreateBatch(movements); err != nil {
			return err
		}
		if err := routeRepo.Updates(routeID, map[string]interface{}{
			"stock_deducted_at":     now,
			"stock_deduction_error": "",
			"updated_at":            now,
		}); err != nil {
			return err
		}
		written = len(movements)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRouteNotFound) {
			return 0, err
		}
		return 0, ErrDeductionFailed
	}

	if written > 0 {
		recordAudit(s.queueClient, companyID, 0, constants.AuditActionStockDeduct, routeID, models.JSON{
			"movements_written": written,
		})
	}
	return written, nil
}

// ListMovements 查询库存流水
func (s *StockService) ListMovements(filter repository.MovementListFilter) ([]models.InventoryMovement, int64, error) {
	movements, total, err := s.movementRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRouteFetchFailed
	}
	return movements, total, nil
}

// ReverseStockForRoute 为已扣减的取消路线写回冲流水，显式操作，不随取消自动触发
func (s *StockService) ReverseStockForRoute(companyID, operatorID, routeID uint) (int, error) {
	if companyID == 0 || routeID == 0 {
		return 0, ErrInvalidPayload
	}

	written := 0
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		movementRepo := s.movementRepo.WithTx(tx)

		route, err := routeRepo.GetByIDForUpdate(companyID, routeID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if route.Status != constants.RouteStatusCancelled {
			return ErrInvalidTransition
		}
		if route.StockDeductedAt == nil {
			// 从未扣减，无可回冲
			return nil
		}

		existing, err := movementRepo.ListByRoute(routeID)
		if err != nil {
			return err
		}
		reversals := make([]models.InventoryMovement, 0, len(existing))
		for _, movement := range existing {
			if movement.Source == constants.MovementSourceRouteReversal {
				// 已回冲过，重复调用视为无操作
				return nil
			}
		}
		for _, movement := range existing {
			if movement.Source != constants.MovementSourceRouteDispatch {
				continue
			}
			reversals = append(reversals, models.InventoryMovement{
				CompanyID: companyID,
				ProductID: movement.ProductID,
				RouteID:   routeID,
				Direction: constants.MovementDirectionIn,
				Source:    constants.MovementSourceRouteReversal,
				Quantity:  movement.Quantity,
				Remark:    fmt.Sprintf("reversal of movement %d", movement.ID),
			})
		}
		if err := movementRepo.CreateBatch(reversals); err != nil {
			return err
		}
		written = len(reversals)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrInvalidTransition):
			return 0, err
		default:
			return 0, ErrRouteUpdateFailed
		}
	}

	if written > 0 {
		recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionStockDeduct, routeID, models.JSON{
			"movements_written": written,
			"reversal":          true,
		})
	}
	return written, nil
}
