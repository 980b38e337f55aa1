package ops

import (
	"errors"

	handlershared "github.com/chengpei-next/internal/http/handlers/shared"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/repository"
	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
)

// DispatchRoute 发车
func (h *Handler) DispatchRoute(c *gin.Context) {
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

	result, err := h.DispatchService.Dispatch(c.Request.Context(), companyID, operatorID, routeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "路线当前状态不允许发车", nil)
		case errors.Is(err, service.ErrDispatchInFlight):
			respondError(c, response.CodeTooManyRequests, "发车请求处理中，请勿重复提交", nil)
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "空路线不允许发车", nil)
		case errors.Is(err, service.ErrDeductionFailed):
			// 发车已生效，扣减失败需要人工或任务介入，响应携带已发车的事实
			requestLog(c).Warnw("dispatch_deduction_pending",
				"route_id", routeID,
				"company_id", companyID,
			)
			response.ErrorWithData(c, response.CodeInternal, "发车成功但库存扣减失败，已安排重试", result)
		default:
			respondError(c, response.CodeInternal, "发车失败", err)
		}
		return
	}

	response.Success(c, result)
}

// ReverseRouteStock 对已取消路线做库存回冲
func (h *Handler) ReverseRouteStock(c *gin.Context) {
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

	written, err := h.StockService.ReverseStockForRoute(companyID, operatorID, routeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteNotFound):
			respondError(c, response.CodeNotFound, "路线不存在", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "仅已取消的路线可以回冲库存", nil)
		default:
			respondError(c, response.CodeInternal, "库存回冲失败", err)
		}
		return
	}

	response.Success(c, gin.H{"route_id": routeID, "movements_written": written})
}

// ListRouteMovements 查询路线库存流水
func (h *Handler) ListRouteMovements(c *gin.Context) {
	companyID, ok := handlershared.GetCompanyID(c)
	if !ok {
		return
	}
	routeID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}

	var query struct {
		Page      int    `form:"page"`
		PageSize  int    `form:"page_size"`
		Direction string `form:"direction"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	movements, total, err := h.StockService.ListMovements(repository.MovementListFilter{
		Page:      page,
		PageSize:  pageSize,
		CompanyID: companyID,
		RouteID:   routeID,
		Direction: query.Direction,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "库存流水查询失败", err)
		return
	}

	response.SuccessWithPage(c, movements, response.NewPagination(page, pageSize, total))
}
