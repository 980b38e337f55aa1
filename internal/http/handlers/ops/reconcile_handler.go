package ops

import (
	"errors"

	handlershared "github.com/chengpei-next/internal/http/handlers/shared"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ReconcileReturnRequest 回单核销请求
// payload 原样透传给服务层归一化，canonical 形态为 items 数组，deliveredItems 为兼容形态。
type ReconcileReturnRequest struct {
	Payload    models.JSON `json:"payload" binding:"required"`
	ReasonCode string      `json:"reason_code"`
}

// ReconcileReturn 核销路线订单回单
func (h *Handler) ReconcileReturn(c *gin.Context) {
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

	var req ReconcileReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	result, err := h.ReconcileService.ReconcileReturn(companyID, operatorID, routeOrderID, req.Payload, req.ReasonCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteOrderNotFound), errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线订单不存在", nil)
		case errors.Is(err, service.ErrAlreadyReconciled):
			respondError(c, response.CodeConflict, "该订单已核销", nil)
		case errors.Is(err, service.ErrNotEligible):
			respondError(c, response.CodeConflict, "该订单未发出或路线不在途，无法核销", nil)
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "回单载荷非法", nil)
		case errors.Is(err, service.ErrReasonRequired):
			respondError(c, response.CodeBadRequest, "存在退回量，必须填写异常原因", nil)
		case errors.Is(err, service.ErrReasonInvalid):
			respondError(c, response.CodeBadRequest, "异常原因编码非法", nil)
		default:
			respondError(c, response.CodeInternal, "回单核销失败", err)
		}
		return
	}

	response.Success(c, result)
}

// ListReasons 查询异常原因字典
func (h *Handler) ListReasons(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	reasons, err := h.ReasonService.ListReasons(c.Request.Context(), companyID, c.Query("group"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "原因分组非法", nil)
		default:
			respondError(c, response.CodeInternal, "原因字典查询失败", err)
		}
		return
	}

	response.Success(c, reasons)
}

// CreateReasonRequest 新增原因请求
type CreateReasonRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	GroupKey string `json:"group_key" binding:"required"`
	Sort     int    `json:"sort"`
}

// CreateReason 新增公司自定义原因
func (h *Handler) CreateReason(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}

	var req CreateReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	reason, err := h.ReasonService.CreateReason(c.Request.Context(), companyID, service.CreateReasonInput{
		Code:     req.Code,
		Name:     req.Name,
		GroupKey: req.GroupKey,
		Sort:     req.Sort,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "请求参数非法", nil)
		case errors.Is(err, service.ErrReasonInvalid):
			respondError(c, response.CodeConflict, "原因编码已存在", nil)
		default:
			respondError(c, response.CodeInternal, "原因创建失败", err)
		}
		return
	}

	response.Success(c, reason)
}
