package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chengpei-next/internal/finance"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/provider"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuditRecord, c.handleAuditRecord)
	mux.HandleFunc(queue.TaskStockDeductRetry, c.handleStockDeductRetry)
	mux.HandleFunc(queue.TaskFinanceOutcomeSync, c.handleFinanceOutcomeSync)
}

// SweepPendingDeductions 补扣在途但尚未扣减库存的路线
// 发车状态翻转与扣减不在同一事务里，进程在两步之间挂掉会留下
// stock_deducted_at 为空的在途路线，启动时兜底扫一遍。
func (c *Consumer) SweepPendingDeductions() int {
	if c == nil || c.Container == nil {
		return 0
	}
	routes, err := c.RouteRepo.ListPendingDeduction()
	if err != nil {
		logger.Warnw("worker_deduction_sweep_list_failed", "error", err)
		return 0
	}
	recovered := 0
	for _, route := range routes {
		written, err := c.StockService.DeductStockForRoute(route.CompanyID, route.ID)
		if err != nil {
			logger.Warnw("worker_deduction_sweep_failed", "route_id", route.ID, "error", err)
			continue
		}
		logger.Infow("worker_deduction_sweep_done", "route_id", route.ID, "movements_written", written)
		recovered++
	}
	return recovered
}

func (c *Consumer) handleAuditRecord(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_audit_record_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AuditRecordPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_audit_record_unmarshal_failed", "error", err)
		return err
	}
	if payload.CompanyID == 0 || payload.Action == "" {
		logger.Debugw("worker_audit_record_skip_invalid_payload", "company_id", payload.CompanyID, "action", payload.Action)
		return nil
	}
	if err := c.AuditService.Record(payload.CompanyID, payload.OperatorID, payload.Action, payload.RouteID, payload.Detail); err != nil {
		// 审计属于尽力而为，落库失败告警后放弃，不无限重试
		logger.Warnw("worker_audit_record_failed",
			"company_id", payload.CompanyID,
			"action", payload.Action,
			"route_id", payload.RouteID,
			"error", err,
		)
		return nil
	}
	return nil
}

func (c *Consumer) handleStockDeductRetry(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_deduct_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockDeductRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_deduct_retry_unmarshal_failed", "error", err)
		return err
	}
	if payload.RouteID == 0 {
		logger.Debugw("worker_stock_deduct_retry_skip_invalid_payload", "route_id", payload.RouteID)
		return nil
	}
	// 扣减按路线幂等，已扣过的重试直接是无操作
	written, err := c.StockService.DeductStockForRoute(payload.CompanyID, payload.RouteID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			logger.Debugw("worker_stock_deduct_retry_skip_route_not_found", "route_id", payload.RouteID)
			return nil
		default:
			logger.Warnw("worker_stock_deduct_retry_failed", "route_id", payload.RouteID, "error", err)
			return err
		}
	}
	logger.Infow("worker_stock_deduct_retry_done", "route_id", payload.RouteID, "movements_written", written)
	return nil
}

func (c *Consumer) handleFinanceOutcomeSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_finance_outcome_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.FinanceOutcomeSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_finance_outcome_unmarshal_failed", "error", err)
		return err
	}
	if payload.RouteOrderID == 0 {
		logger.Debugw("worker_finance_outcome_skip_invalid_payload", "route_order_id", payload.RouteOrderID)
		return nil
	}
	if c.FinanceClient == nil || !c.FinanceClient.Enabled() {
		logger.Debugw("worker_finance_outcome_skip_disabled", "route_order_id", payload.RouteOrderID)
		return nil
	}

	routeOrder, err := c.RouteOrderRepo.GetByID(payload.CompanyID, payload.RouteOrderID)
	if err != nil {
		logger.Warnw("worker_finance_outcome_fetch_failed", "route_order_id", payload.RouteOrderID, "error", err)
		return err
	}
	if routeOrder == nil || routeOrder.ReconciledAt == nil {
		logger.Debugw("worker_finance_outcome_skip_not_reconciled", "route_order_id", payload.RouteOrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.CompanyID, routeOrder.OrderID)
	if err != nil {
		logger.Warnw("worker_finance_outcome_fetch_order_failed", "order_id", routeOrder.OrderID, "error", err)
		return err
	}
	orderNo := ""
	if order != nil {
		orderNo = order.OrderNo
	}

	// 通知取行级明细的落库终值，不依赖上面查询的预加载
	lines, err := c.ItemRepo.ListByRouteOrder(routeOrder.ID)
	if err != nil {
		logger.Warnw("worker_finance_outcome_fetch_items_failed", "route_order_id", routeOrder.ID, "error", err)
		return err
	}
	items := make([]finance.OutcomeItemDetail, 0, len(lines))
	for _, item := range lines {
		items = append(items, finance.OutcomeItemDetail{
			LineID:       item.OrderItemID,
			ProductID:    item.ProductID,
			QtyLoaded:    item.QtyLoaded.String(),
			QtyDelivered: item.QtyDelivered.String(),
			QtyReturned:  item.QtyReturned.String(),
		})
	}
	notification := &finance.OutcomeNotification{
		CompanyID:    payload.CompanyID,
		RouteID:      routeOrder.RouteID,
		RouteOrderID: routeOrder.ID,
		OrderNo:      orderNo,
		Outcome:      routeOrder.ReturnOutcomeType,
		ReasonCode:   routeOrder.ReasonCode,
		ReconciledAt: *routeOrder.ReconciledAt,
		Items:        items,
	}
	if err := c.FinanceClient.NotifyOutcome(ctx, notification); err != nil {
		logger.Warnw("worker_finance_outcome_notify_failed", "route_order_id", payload.RouteOrderID, "error", err)
		return err
	}
	return nil
}
