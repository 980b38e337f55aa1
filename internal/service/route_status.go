package service

import (
	"strings"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
)

// routeStatusTransitions 路线状态机：planned → in_route → completed，planned/in_route 可取消
var routeStatusTransitions = map[string][]string{
	constants.RouteStatusPlanned:   {constants.RouteStatusInRoute, constants.RouteStatusCancelled},
	constants.RouteStatusInRoute:   {constants.RouteStatusCompleted, constants.RouteStatusCancelled},
	constants.RouteStatusCompleted: {},
	constants.RouteStatusCancelled: {},
}

// canTransitionRouteStatus 判断路线状态迁移是否合法
func canTransitionRouteStatus(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	for _, next := range routeStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// routeStatusLocked 路线是否已锁定装车编辑
func routeStatusLocked(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.RouteStatusInRoute, constants.RouteStatusCompleted, constants.RouteStatusCancelled:
		return true
	default:
		return false
	}
}

// isValidLoadingStatus 校验装车状态取值
func isValidLoadingStatus(status string) bool {
	switch status {
	case constants.LoadingStatusPending, constants.LoadingStatusLoaded,
		constants.LoadingStatusPartial, constants.LoadingStatusNotLoaded:
		return true
	default:
		return false
	}
}

// classifyReturnOutcome 根据明细行数量聚合回单结果
// 全部送达且有装车量为 delivered；部分签收为 partially_returned；全部未签收为 not_delivered。
func classifyReturnOutcome(items []models.DeliveryItem) string {
	if len(items) == 0 {
		return constants.ReturnOutcomeNotDelivered
	}
	var loadedAny bool
	var deliveredAny bool
	var returnedAny bool
	for _, item := range items {
		if item.QtyLoaded.IsPositive() {
			loadedAny = true
		}
		if item.QtyDelivered.IsPositive() {
			deliveredAny = true
		}
		if item.QtyReturned.IsPositive() {
			returnedAny = true
		}
	}
	if !deliveredAny {
		return constants.ReturnOutcomeNotDelivered
	}
	if returnedAny {
		return constants.ReturnOutcomePartiallyReturned
	}
	if loadedAny {
		return constants.ReturnOutcomeDelivered
	}
	return constants.ReturnOutcomeNotDelivered
}
