package service

import (
	"errors"
	"strings"
	"time"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"

	"gorm.io/gorm"
)

// LoadingService 装车清单服务
type LoadingService struct {
	routeRepo      repository.RouteRepository
	routeOrderRepo repository.RouteOrderRepository
	itemRepo       repository.DeliveryItemRepository
	reasonRepo     repository.DeliveryReasonRepository
	queueClient    *queue.Client
}

// NewLoadingService 创建装车清单服务
func NewLoadingService(routeRepo repository.RouteRepository, routeOrderRepo repository.RouteOrderRepository, itemRepo repository.DeliveryItemRepository, reasonRepo repository.DeliveryReasonRepository, queueClient *queue.Client) *LoadingService {
	return &LoadingService{
		routeRepo:      routeRepo,
		routeOrderRepo: routeOrderRepo,
		itemRepo:       itemRepo,
		reasonRepo:     reasonRepo,
		queueClient:    queueClient,
	}
}

// PartialItemInput 部分装车的单行输入
type PartialItemInput struct {
	LineID    uint            `json:"line_id"`
	QtyLoaded models.Quantity `json:"qty_loaded"`
}

// SetLoadingStatusInput 装车状态更新输入
type SetLoadingStatusInput struct {
	RouteOrderID uint
	Status       string
	Items        []PartialItemInput
	ReasonCode   string
}

// SetLoadingStatus 更新装车状态
// 发车后路线即锁定，任何装车编辑都会被拒绝；整状态切换会清空历史部分装车数据。
func (s *LoadingService) SetLoadingStatus(companyID, operatorID uint, input SetLoadingStatusInput) (*models.RouteOrder, error) {
	if companyID == 0 || input.RouteOrderID == 0 {
		return nil, ErrInvalidPayload
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if !isValidLoadingStatus(status) {
		return nil, ErrInvalidPayload
	}
	if status == constants.LoadingStatusPartial && len(input.Items) == 0 {
		return nil, ErrInvalidPayload
	}

	reasonCode := strings.TrimSpace(input.ReasonCode)
	if reasonCode != "" {
		group := loadingReasonGroup(status)
		if group == "" {
			return nil, ErrReasonInvalid
		}
		reason, err := s.reasonRepo.GetByCode(companyID, reasonCode)
		if err != nil {
			return nil, ErrRouteFetchFailed
		}
		if reason == nil || !reason.Enabled || reason.GroupKey != group {
			return nil, ErrReasonInvalid
		}
	}

	now := time.Now()
	var updated *models.RouteOrder
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		routeOrderRepo := s.routeOrderRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)

		routeOrder, err := routeOrderRepo.GetByID(companyID, input.RouteOrderID)
		if err != nil {
			return err
		}
		if routeOrder == nil {
			return ErrRouteOrderNotFound
		}

		// 状态守卫必须在同一事务内读取，避免基于过期内存状态放行编辑
		route, err := routeRepo.GetByIDForUpdate(companyID, routeOrder.RouteID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		if routeStatusLocked(route.Status) {
			return ErrRouteLocked
		}

		updates := map[string]interface{}{
			"loading_status": status,
			"reason_code":    reasonCode,
			"updated_at":     now,
		}

		switch status {
		case constants.LoadingStatusPartial:
			payload, err := applyPartialQuantities(itemRepo, routeOrder.Items, input.Items, now)
			if err != nil {
				return err
			}
			updates["partial_payload"] = payload
		case constants.LoadingStatusLoaded:
			// 整单装车，装车量回到计划量
			for _, item := range routeOrder.Items {
				if err := itemRepo.Updates(item.ID, map[string]interface{}{
					"qty_loaded": item.QtyPlanned,
					"updated_at": now,
				}); err != nil {
					return err
				}
			}
			updates["partial_payload"] = models.JSON{}
		default:
			// pending 与 not_loaded 均视为未装车
			for _, item := range routeOrder.Items {
				if err := itemRepo.Updates(item.ID, map[string]interface{}{
					"qty_loaded": models.NewQuantityFromInt(0),
					"updated_at": now,
				}); err != nil {
					return err
				}
			}
			updates["partial_payload"] = models.JSON{}
		}

		if err := routeOrderRepo.Updates(routeOrder.ID, updates); err != nil {
			return err
		}
		updated, err = routeOrderRepo.GetByID(companyID, routeOrder.ID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteOrderNotFound), errors.Is(err, ErrRouteNotFound),
			errors.Is(err, ErrRouteLocked), errors.Is(err, ErrInvalidPayload):
			return nil, err
		default:
			return nil, ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionLoadingStatusSet, updated.RouteID, models.JSON{
		"route_order_id": updated.ID,
		"status":         status,
		"reason_code":    reasonCode,
	})
	return updated, nil
}

// applyPartialQuantities 写入部分装车量并校验不超计划量
func applyPartialQuantities(itemRepo *repository.GormDeliveryItemRepository, items []models.DeliveryItem, inputs []PartialItemInput, now time.Time) (models.JSON, error) {
	byLine := make(map[uint]models.Quantity, len(inputs))
	for _, row := range inputs {
		if row.LineID == 0 || row.QtyLoaded.IsNegative() {
			return nil, ErrInvalidPayload
		}
		byLine[row.LineID] = row.QtyLoaded
	}

	known := make(map[uint]bool, len(items))
	payloadItems := make([]interface{}, 0, len(inputs))
	for _, item := range items {
		known[item.OrderItemID] = true
		qty, ok := byLine[item.OrderItemID]
		if !ok {
			qty = models.NewQuantityFromInt(0)
		}
		if qty.GreaterThan(item.QtyPlanned.Decimal) {
			return nil, ErrInvalidPayload
		}
		if err := itemRepo.Updates(item.ID, map[string]interface{}{
			"qty_loaded": qty,
			"updated_at": now,
		}); err != nil {
			return nil, err
		}
		payloadItems = append(payloadItems, map[string]interface{}{
			"line_id":    item.OrderItemID,
			"qty_loaded": qty.String(),
		})
	}
	for lineID := range byLine {
		if !known[lineID] {
			return nil, ErrInvalidPayload
		}
	}

	return models.JSON{"items": payloadItems}, nil
}

// loadingReasonGroup 装车状态对应的原因分组
func loadingReasonGroup(status string) string {
	switch status {
	case constants.LoadingStatusNotLoaded:
		return constants.ReasonGroupNotLoadedTotal
	case constants.LoadingStatusPartial:
		return constants.ReasonGroupPartialLoaded
	default:
		return ""
	}
}
