package service

import (
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"
)

// recordAudit 记录审计日志：队列可用时异步入队，否则同步落库
// 两条路径都只告警不影响主流程。
func recordAudit(queueClient *queue.Client, companyID, operatorID uint, action string, routeID uint, detail models.JSON) {
	if !queueClient.Enabled() {
		auditService := NewAuditService(repository.NewAuditLogRepository(models.DB))
		if err := auditService.Record(companyID, operatorID, action, routeID, detail); err != nil {
			logger.Warnw("audit_record_failed",
				"company_id", companyID,
				"action", action,
				"route_id", routeID,
				"error", err,
			)
		}
		return
	}
	if err := queueClient.EnqueueAuditRecord(queue.AuditRecordPayload{
		CompanyID:  companyID,
		OperatorID: operatorID,
		Action:     action,
		RouteID:    routeID,
		Detail:     detail,
	}); err != nil {
		logger.Warnw("audit_enqueue_failed",
			"company_id", companyID,
			"action", action,
			"route_id", routeID,
			"error", err,
		)
	}
}

// logWarnFinanceEnqueue 财务同步任务入队失败仅告警
func logWarnFinanceEnqueue(routeID, routeOrderID uint, err error) {
	logger.Warnw("finance_outcome_enqueue_failed",
		"route_id", routeID,
		"route_order_id", routeOrderID,
		"error", err,
	)
}
