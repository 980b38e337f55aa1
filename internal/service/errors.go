package service

import "errors"

// 路线与配送相关错误
var (
	ErrRouteNotFound       = errors.New("route not found")
	ErrRouteFetchFailed    = errors.New("route fetch failed")
	ErrRouteCreateFailed   = errors.New("route create failed")
	ErrRouteUpdateFailed   = errors.New("route update failed")
	ErrRouteLocked         = errors.New("route locked")
	ErrInvalidTransition   = errors.New("invalid route transition")
	ErrDuplicateAssignment = errors.New("order already assigned to route")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderFetchFailed    = errors.New("order fetch failed")
	ErrRouteOrderNotFound  = errors.New("route order not found")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrReasonRequired      = errors.New("reason required")
	ErrReasonNotFound      = errors.New("reason not found")
	ErrReasonInvalid       = errors.New("reason invalid")
	ErrNotEligible         = errors.New("route order not eligible for reconciliation")
	ErrAlreadyReconciled   = errors.New("route order already reconciled")
	ErrDeductionFailed     = errors.New("stock deduction failed")
	ErrDispatchInFlight    = errors.New("dispatch already in flight")
	ErrAuditCreateFailed   = errors.New("audit log create failed")
)
