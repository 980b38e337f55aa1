package ops

import (
	"errors"

	handlershared "github.com/chengpei-next/internal/http/handlers/shared"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SetLoadingStatusRequest 装车状态更新请求
type SetLoadingStatusRequest struct {
	Status     string                     `json:"status" binding:"required"`
	Items      []service.PartialItemInput `json:"items"`
	ReasonCode string                     `json:"reason_code"`
}

// SetLoadingStatus 更新路线订单装车状态
func (h *Handler) SetLoadingStatus(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	operatorID, ok := handlershared.GetOperatorID(c)
	if !ok {
		return
	}
	routeOrderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req SetLoadingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	routeOrder, err := h.LoadingService.SetLoadingStatus(companyID, operatorID, service.SetLoadingStatusInput{
		RouteOrderID: routeOrderID,
		Status:       req.Status,
		Items:        req.Items,
		ReasonCode:   req.ReasonCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteOrderNotFound), errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线订单不存在", nil)
		case errors.Is(err, service.ErrRouteLocked):
			respondError(c, response.CodeConflict, "路线已锁定，装车信息不可编辑", nil)
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "装车数量非法", nil)
		case errors.Is(err, service.ErrReasonInvalid):
			respondError(c, response.CodeBadRequest, "异常原因编码非法", nil)
		default:
			respondError(c, response.CodeInternal, "装车状态更新失败", err)
		}
		return
	}

	response.Success(c, routeOrder)
}
