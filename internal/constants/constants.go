package constants

// 路线状态常量
const (
	RouteStatusPlanned   = "planned"
	RouteStatusInRoute   = "in_route"
	RouteStatusCompleted = "completed"
	RouteStatusCancelled = "cancelled"
)

// 装车状态常量
const (
	LoadingStatusPending   = "pending"
	LoadingStatusLoaded    = "loaded"
	LoadingStatusPartial   = "partial"
	LoadingStatusNotLoaded = "not_loaded"
)

// 回单结果常量
const (
	ReturnOutcomeDelivered         = "delivered"
	ReturnOutcomePartiallyReturned = "partially_returned"
	ReturnOutcomeNotDelivered      = "not_delivered"
)

// 异常原因分组常量
const (
	ReasonGroupNotLoadedTotal  = "not-loaded-total"
	ReasonGroupPartialLoaded   = "partial-loaded"
	ReasonGroupPartialDelivery = "partial-delivery"
	ReasonGroupNotDelivered    = "not-delivered"
)

// 库存流水方向常量
const (
	MovementDirectionOut = "out"
	MovementDirectionIn  = "in"
)

// 库存流水来源类型常量
const (
	MovementSourceRouteDispatch = "route_dispatch"
	MovementSourceRouteReversal = "route_reversal"
)

// 销售订单发货标记常量
const (
	OrderDispatchOpen    = "open"
	OrderDispatchBlocked = "blocked"
)

// 审计动作常量
const (
	AuditActionRouteCreate         = "route_create"
	AuditActionRouteOrderAttach    = "route_order_attach"
	AuditActionRouteOrderDetach    = "route_order_detach"
	AuditActionLoadingStatusSet    = "loading_status_set"
	AuditActionRouteDispatch       = "route_dispatch"
	AuditActionRouteCancel         = "route_cancel"
	AuditActionRouteOrderReconcile = "route_order_reconcile"
	AuditActionStockDeduct         = "stock_deduct"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskAuditRecord        = "audit:record"
	TaskStockDeductRetry   = "stock:deduction_retry"
	TaskFinanceOutcomeSync = "finance:route_outcome"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "cp"
)
