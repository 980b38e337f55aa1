package queue

import (
	"encoding/json"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditRecord 审计日志落库任务
	TaskAuditRecord = constants.TaskAuditRecord
	// TaskStockDeductRetry 库存扣减重试任务
	TaskStockDeductRetry = constants.TaskStockDeductRetry
	// TaskFinanceOutcomeSync 回单结果财务同步任务
	TaskFinanceOutcomeSync = constants.TaskFinanceOutcomeSync
)

// AuditRecordPayload 审计日志任务载荷
type AuditRecordPayload struct {
	CompanyID  uint        `json:"company_id"`
	OperatorID uint        `json:"operator_id"`
	Action     string      `json:"action"`
	RouteID    uint        `json:"route_id"`
	Detail     models.JSON `json:"detail,omitempty"`
}

// StockDeductRetryPayload 库存扣减重试任务载荷
type StockDeductRetryPayload struct {
	CompanyID uint `json:"company_id"`
	RouteID   uint `json:"route_id"`
}

// FinanceOutcomeSyncPayload 回单结果财务同步任务载荷
type FinanceOutcomeSyncPayload struct {
	CompanyID    uint `json:"company_id"`
	RouteID      uint `json:"route_id"`
	RouteOrderID uint `json:"route_order_id"`
}

// NewAuditRecordTask 创建审计日志任务
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body), nil
}

// NewStockDeductRetryTask 创建库存扣减重试任务
func NewStockDeductRetryTask(payload StockDeductRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockDeductRetry, body), nil
}

// NewFinanceOutcomeSyncTask 创建财务同步任务
func NewFinanceOutcomeSyncTask(payload FinanceOutcomeSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceOutcomeSync, body), nil
}
