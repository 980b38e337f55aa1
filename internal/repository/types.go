package repository

import "time"

// RouteListFilter 查询配送路线列表的过滤条件
type RouteListFilter struct {
	Page          int
	PageSize      int
	CompanyID     uint
	Status        string
	DriverName    string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	Search        string
}

// SalesOrderListFilter 查询销售订单列表的过滤条件
type SalesOrderListFilter struct {
	Page           int
	PageSize       int
	CompanyID      uint
	OrderNo        string
	DispatchStatus string
	Search         string
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	CompanyID   uint
	RouteID     uint
	Action      string
	OperatorID  uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// MovementListFilter 查询库存流水列表的过滤条件
type MovementListFilter struct {
	Page      int
	PageSize  int
	CompanyID uint
	ProductID uint
	RouteID   uint
	Direction string
}
