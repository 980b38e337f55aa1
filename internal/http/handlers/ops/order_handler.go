package ops

import (
	"errors"

	handlershared "github.com/chengpei-next/internal/http/handlers/shared"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"
	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrder 获取销售订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(companyID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		default:
			respondError(c, response.CodeInternal, "订单查询失败", err)
		}
		return
	}

	response.Success(c, order)
}

// ListOrders 查询销售订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	var query struct {
		Page           int    `form:"page"`
		PageSize       int    `form:"page_size"`
		OrderNo        string `form:"order_no"`
		DispatchStatus string `form:"dispatch_status"`
		Search         string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	orders, total, err := h.OrderService.ListOrders(repository.SalesOrderListFilter{
		Page:           page,
		PageSize:       pageSize,
		CompanyID:      companyID,
		OrderNo:        query.OrderNo,
		DispatchStatus: query.DispatchStatus,
		Search:         query.Search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// ImportOrderRequest 上游订单同步请求
type ImportOrderRequest struct {
	OrderNo      string                   `json:"order_no" binding:"required"`
	CustomerName string                   `json:"customer_name"`
	Items        []ImportOrderItemRequest `json:"items" binding:"required"`
}

// ImportOrderItemRequest 订单行同步请求
type ImportOrderItemRequest struct {
	ProductID   uint            `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	QtyPlanned  models.Quantity `json:"qty_planned"`
	UnitWeight  models.Quantity `json:"unit_weight"`
}

// ImportOrder 接收上游系统同步的已确认订单
func (h *Handler) ImportOrder(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	var req ImportOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	items := make([]service.ImportOrderItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, service.ImportOrderItemInput{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			QtyPlanned:  line.QtyPlanned,
			UnitWeight:  line.UnitWeight,
		})
	}
	order, err := h.OrderService.ImportOrder(companyID, service.ImportOrderInput{
		OrderNo:      req.OrderNo,
		CustomerName: req.CustomerName,
		Items:        items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "请求参数非法", nil)
		case errors.Is(err, service.ErrDuplicateAssignment):
			respondError(c, response.CodeConflict, "订单号已存在", nil)
		default:
			respondError(c, response.CodeInternal, "订单同步失败", err)
		}
		return
	}

	response.Success(c, order)
}

// ListAuditLogs 查询审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	var query struct {
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
		RouteID  uint   `form:"route_id"`
		Action   string `form:"action"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	logs, total, err := h.AuditService.List(repository.AuditLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		CompanyID: companyID,
		RouteID:   query.RouteID,
		Action:    query.Action,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "审计日志查询失败", err)
		return
	}

	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
