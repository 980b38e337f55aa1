package service

import (
	"errors"
	"strings"
	"time"

	"github.com/chengpei-next/internal/config"
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileService 回单核销服务
type ReconcileService struct {
	routeRepo      repository.RouteRepository
	routeOrderRepo repository.RouteOrderRepository
	itemRepo       repository.DeliveryItemRepository
	orderRepo      repository.SalesOrderRepository
	reasonRepo     repository.DeliveryReasonRepository
	queueClient    *queue.Client
	routeCfg       *config.RouteConfig
}

// NewReconcileService 创建回单核销服务
func NewReconcileService(routeRepo repository.RouteRepository, routeOrderRepo repository.RouteOrderRepository, itemRepo repository.DeliveryItemRepository, orderRepo repository.SalesOrderRepository, reasonRepo repository.DeliveryReasonRepository, queueClient *queue.Client, routeCfg *config.RouteConfig) *ReconcileService {
	return &ReconcileService{
		routeRepo:      routeRepo,
		routeOrderRepo: routeOrderRepo,
		itemRepo:       itemRepo,
		orderRepo:      orderRepo,
		reasonRepo:     reasonRepo,
		queueClient:    queueClient,
		routeCfg:       routeCfg,
	}
}

// ReconcileItemResult 单行核销结果
type ReconcileItemResult struct {
	LineID       uint            `json:"line_id"`
	QtyLoaded    models.Quantity `json:"qty_loaded"`
	QtyDelivered models.Quantity `json:"qty_delivered"`
	QtyReturned  models.Quantity `json:"qty_returned"`
}

// ReconcileResult 回单核销结果
type ReconcileResult struct {
	RouteOrderID   uint                  `json:"route_order_id"`
	Outcome        string                `json:"outcome"`
	Items          []ReconcileItemResult `json:"items"`
	RouteCompleted bool                  `json:"route_completed"`
}

// ReconcileReturn 核销回单：写签收量、推导退回量、分类结果并关单
// 载荷中缺席的行按签收 0 处理，缺席不是未知，而是整行都没有签收。
func (s *ReconcileService) ReconcileReturn(companyID, operatorID, routeOrderID uint, rawPayload models.JSON, reasonCode string) (*ReconcileResult, error) {
	if companyID == 0 || routeOrderID == 0 {
		return nil, ErrInvalidPayload
	}
	payload, err := NormalizeReturnPayload(rawPayload)
	if err != nil {
		return nil, err
	}
	reasonCode = strings.TrimSpace(reasonCode)

	now := time.Now()
	var result *ReconcileResult
	var routeID uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		routeRepo := s.routeRepo.WithTx(tx)
		routeOrderRepo := s.routeOrderRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		routeOrder, err := routeOrderRepo.GetByID(companyID, routeOrderID)
		if err != nil {
			return err
		}
		if routeOrder == nil {
			return ErrRouteOrderNotFound
		}
		if routeOrder.ReconciledAt != nil {
			return ErrAlreadyReconciled
		}

		route, err := routeRepo.GetByIDForUpdate(companyID, routeOrder.RouteID)
		if err != nil {
			return err
		}
		if route == nil {
			return ErrRouteNotFound
		}
		routeID = route.ID

		// 未实际发出的订单没有配送结果可言
		if route.Status != constants.RouteStatusInRoute {
			return ErrNotEligible
		}
		if routeOrder.LoadingStatus != constants.LoadingStatusLoaded &&
			routeOrder.LoadingStatus != constants.LoadingStatusPartial {
			return ErrNotEligible
		}

		deliveredByLine := make(map[uint]models.Quantity, len(payload.Lines))
		reasonByLine := make(map[uint]string, len(payload.Lines))
		for _, line := range payload.Lines {
			deliveredByLine[line.LineID] = line.QtyDelivered
			reasonByLine[line.LineID] = line.ReasonCode
		}
		known := make(map[uint]bool, len(routeOrder.Items))
		for _, item := range routeOrder.Items {
			known[item.OrderItemID] = true
		}
		for lineID := range deliveredByLine {
			if !known[lineID] {
				return ErrInvalidPayload
			}
		}

		items := make([]models.DeliveryItem, 0, len(routeOrder.Items))
		itemResults := make([]ReconcileItemResult, 0, len(routeOrder.Items))
		returnedAny := false
		for _, item := range routeOrder.Items {
			delivered, ok := deliveredByLine[item.OrderItemID]
			if !ok {
				delivered = models.NewQuantityFromInt(0)
			}
			if delivered.GreaterThan(item.QtyLoaded.Decimal) {
				return ErrInvalidPayload
			}
			returned := models.NewQuantityFromDecimal(decimal.Max(decimal.Zero, item.QtyLoaded.Sub(delivered.Decimal)))
			if returned.IsPositive() {
				returnedAny = true
			}

			lineReason := reasonByLine[item.OrderItemID]
			if lineReason != "" {
				reason, err := s.reasonRepo.WithTx(tx).GetByCode(companyID, lineReason)
				if err != nil {
					return err
				}
				if reason == nil || !reason.Enabled || reason.GroupKey != constants.ReasonGroupPartialDelivery {
					return ErrReasonInvalid
				}
			}

			if err := itemRepo.Updates(item.ID, map[string]interface{}{
				"qty_delivered": delivered,
				"qty_returned":  returned,
				"reason_code":   lineReason,
				"updated_at":    now,
			}); err != nil {
				return err
			}

			item.QtyDelivered = delivered
			item.QtyReturned = returned
			item.ReasonCode = lineReason
			items = append(items, item)
			itemResults = append(itemResults, ReconcileItemResult{
				LineID:       item.OrderItemID,
				QtyLoaded:    item.QtyLoaded,
				QtyDelivered: delivered,
				QtyReturned:  returned,
			})
		}

		outcome := classifyReturnOutcome(items)

		// 有退回量时按策略要求原因，拒绝无法解释的退货
		if returnedAny && s.reasonRequiredOnReturn() {
			hasLineReason := false
			for _, item := range items {
				if item.QtyReturned.IsPositive() && item.ReasonCode != "" {
					hasLineReason = true
					break
				}
			}
			if reasonCode == "" && !hasLineReason {
				return ErrReasonRequired
			}
		}
		if reasonCode != "" {
			reason, err := s.reasonRepo.WithTx(tx).GetByCode(companyID, reasonCode)
			if err != nil {
				return err
			}
			group := constants.ReasonGroupPartialDelivery
			if outcome == constants.ReturnOutcomeNotDelivered {
				group = constants.ReasonGroupNotDelivered
			}
			if reason == nil || !reason.Enabled || reason.GroupKey != group {
				return ErrReasonInvalid
			}
		}

		if err := routeOrderRepo.Updates(routeOrder.ID, map[string]interface{}{
			"return_outcome_type": outcome,
			"return_payload":      rawPayload,
			"reason_code":         reasonCode,
			"reconciled_at":       now,
			"updated_at":          now,
		}); err != nil {
			return err
		}
		if err := orderRepo.UpdateDispatchStatus(routeOrder.OrderID, constants.OrderDispatchOpen); err != nil {
			return err
		}

		result = &ReconcileResult{
			RouteOrderID: routeOrder.ID,
			Outcome:      outcome,
			Items:        itemResults,
		}

		// 最后一单核销完成即整条路线收口
		pending, err := routeOrderRepo.CountPendingReconcile(route.ID)
		if err != nil {
			return err
		}
		if pending == 0 {
			if !canTransitionRouteStatus(route.Status, constants.RouteStatusCompleted) {
				return ErrInvalidTransition
			}
			if err := routeRepo.UpdateStatus(route.ID, constants.RouteStatusCompleted, map[string]interface{}{
				"completed_at": now,
				"updated_at":   now,
			}); err != nil {
				return err
			}
			result.RouteCompleted = true
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRouteOrderNotFound), errors.Is(err, ErrRouteNotFound),
			errors.Is(err, ErrAlreadyReconciled), errors.Is(err, ErrNotEligible),
			errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrReasonRequired),
			errors.Is(err, ErrReasonInvalid), errors.Is(err, ErrInvalidTransition):
			return nil, err
		default:
			return nil, ErrRouteUpdateFailed
		}
	}

	recordAudit(s.queueClient, companyID, operatorID, constants.AuditActionRouteOrderReconcile, routeID, models.JSON{
		"route_order_id": result.RouteOrderID,
		"outcome":        result.Outcome,
	})
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueFinanceOutcomeSync(queue.FinanceOutcomeSyncPayload{
			CompanyID:    companyID,
			RouteID:      routeID,
			RouteOrderID: result.RouteOrderID,
		}); err != nil {
			logWarnFinanceEnqueue(routeID, result.RouteOrderID, err)
		}
	}
	return result, nil
}

func (s *ReconcileService) reasonRequiredOnReturn() bool {
	if s.routeCfg == nil {
		return true
	}
	return s.routeCfg.ReasonRequiredOnReturn
}
