package ops

import (
	"errors"
	"time"

	handlershared "github.com/chengpei-next/internal/http/handlers/shared"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/repository"
	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRouteRequest 创建路线请求
type CreateRouteRequest struct {
	Name          string `json:"name" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"` // 2006-01-02
	DriverName    string `json:"driver_name"`
	VehiclePlate  string `json:"vehicle_plate"`
}

// CreateRoute 创建配送路线
func (h *Handler) CreateRoute(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	operatorID, ok := handlershared.GetOperatorID(c)
	if !ok {
		return
	}

	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	scheduledDate, err := time.ParseInLocation("2006-01-02", req.ScheduledDate, time.Local)
	if err != nil {
		respondError(c, response.CodeBadRequest, "计划日期格式非法", err)
		return
	}

	route, err := h.RouteService.CreateRoute(companyID, operatorID, service.CreateRouteInput{
		Name:          req.Name,
		ScheduledDate: scheduledDate,
		DriverName:    req.DriverName,
		VehiclePlate:  req.VehiclePlate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "请求参数非法", nil)
		default:
			respondError(c, response.CodeInternal, "路线创建失败", err)
		}
		return
	}

	response.Success(c, route)
}

// GetRoute 获取路线详情
func (h *Handler) GetRoute(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	routeID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	route, err := h.RouteService.GetRoute(companyID, routeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		default:
			respondError(c, response.CodeInternal, "路线查询失败", err)
		}
		return
	}

	response.Success(c, route)
}

// ListRoutes 查询路线列表
func (h *Handler) ListRoutes(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	var query struct {
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
		Status   string `form:"status"`
		Driver   string `form:"driver"`
		Search   string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	routes, total, err := h.RouteService.ListRoutes(repository.RouteListFilter{
		Page:       page,
		PageSize:   pageSize,
		CompanyID:  companyID,
		Status:     query.Status,
		DriverName: query.Driver,
		Search:     query.Search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "路线查询失败", err)
		return
	}

	response.SuccessWithPage(c, routes, response.NewPagination(page, pageSize, total))
}

// AddOrderRequest 挂载订单请求
type AddOrderRequest struct {
	OrderID  uint `json:"order_id" binding:"required"`
	Position int  `json:"position"`
	Volumes  int  `json:"volumes"`
}

// AddOrderToRoute 向路线挂载订单
func (h *Handler) AddOrderToRoute(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	operatorID, ok := handlershared.GetOperatorID(c)
	if !ok {
		return
	}
	routeID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	routeOrder, err := h.RouteService.AddOrderToRoute(companyID, operatorID, routeID, service.AddOrderInput{
		OrderID:  req.OrderID,
		Position: req.Position,
		Volumes:  req.Volumes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrRouteLocked):
			respondError(c, response.CodeConflict, "路线已锁定，无法编辑", nil)
		case errors.Is(err, service.ErrDuplicateAssignment):
			respondError(c, response.CodeConflict, "订单已挂载到该路线", nil)
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "请求参数非法", nil)
		default:
			respondError(c, response.CodeInternal, "订单挂载失败", err)
		}
		return
	}

	response.Success(c, routeOrder)
}

// RemoveOrderFromRoute 从路线摘除订单
func (h *Handler) RemoveOrderFromRoute(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	operatorID, ok := handlershared.GetOperatorID(c)
	if !ok {
		return
	}
	routeID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "order_id")
	if !ok {
		return
	}

	if err := h.RouteService.RemoveOrderFromRoute(companyID, operatorID, routeID, orderID); err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		case errors.Is(err, service.ErrRouteOrderNotFound):
			respondError(c, response.CodeNotFound, "订单未挂载到该路线", nil)
		case errors.Is(err, service.ErrRouteLocked):
			respondError(c, response.CodeConflict, "路线已锁定，无法编辑", nil)
		default:
			respondError(c, response.CodeInternal, "订单摘除失败", err)
		}
		return
	}

	response.Success(c, gin.H{"route_id": routeID, "order_id": orderID})
}

// CancelRoute 取消路线
func (h *Handler) CancelRoute(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	operatorID, ok := handlershared.GetOperatorID(c)
	if !ok {
		return
	}
	routeID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	route, err := h.RouteService.CancelRoute(companyID, operatorID, routeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "路线当前状态不允许取消", nil)
		default:
			respondError(c, response.CodeInternal, "路线取消失败", err)
		}
		return
	}

	response.Success(c, route)
}
