package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chengpei-next/internal/config"
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newReconcileServiceTest(db *gorm.DB, routeCfg *config.RouteConfig) *ReconcileService {
	return NewReconcileService(
		repository.NewRouteRepository(db),
		repository.NewRouteOrderRepository(db),
		repository.NewDeliveryItemRepository(db),
		repository.NewSalesOrderRepository(db),
		repository.NewDeliveryReasonRepository(db),
		nil,
		routeCfg,
	)
}

// dispatchedRoute 准备一条已发车路线，订单整单装车
func dispatchedRoute(t *testing.T, db *gorm.DB, lines ...models.SalesOrderItem) (*models.DeliveryRoute, *models.RouteOrder) {
	t.Helper()
	route, routeOrder := dispatchReadyRoute(t, db, lines...)
	dispatchSvc := newDispatchServiceTest(db)
	if _, err := dispatchSvc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	return route, routeOrder
}

func itemsPayload(lines ...map[string]interface{}) models.JSON {
	rows := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, line)
	}
	return models.JSON{"items": rows}
}

func TestReconcileReturnAllDelivered(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_delivered")
	svc := newReconcileServiceTest(db, nil)
	route, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(10)},
	), "")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomeDelivered {
		t.Fatalf("expected delivered, got %s", result.Outcome)
	}
	if !result.Items[0].QtyReturned.Equal(decimal.Zero) {
		t.Fatalf("expected returned 0, got %s", result.Items[0].QtyReturned.String())
	}
	if !result.RouteCompleted {
		t.Fatalf("expected single-order route to complete")
	}

	var reloaded models.DeliveryRoute
	if err := db.First(&reloaded, route.ID).Error; err != nil {
		t.Fatalf("reload route failed: %v", err)
	}
	if reloaded.Status != constants.RouteStatusCompleted || reloaded.CompletedAt == nil {
		t.Fatalf("expected completed route, got %s", reloaded.Status)
	}
}

func TestReconcileReturnPartialComputesReturnedQuantities(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_partial")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: true})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 5, 1), orderLine(102, 8, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	// 行一整单签收，行二签收 3 退 5
	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(5)},
		map[string]interface{}{"line_id": float64(items[1].OrderItemID), "qty_delivered": float64(3)},
	), "customer_partial_reject")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomePartiallyReturned {
		t.Fatalf("expected partially_returned, got %s", result.Outcome)
	}
	if !result.Items[0].QtyReturned.Equal(decimal.Zero) {
		t.Fatalf("expected line 1 returned 0, got %s", result.Items[0].QtyReturned.String())
	}
	if !result.Items[1].QtyReturned.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected line 2 returned 5, got %s", result.Items[1].QtyReturned.String())
	}

	reloadedItems := loadDeliveryItems(t, db, routeOrder.ID)
	if !reloadedItems[1].QtyDelivered.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected persisted delivered 3, got %s", reloadedItems[1].QtyDelivered.String())
	}
	if !reloadedItems[1].QtyReturned.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected persisted returned 5, got %s", reloadedItems[1].QtyReturned.String())
	}
}

func TestReconcileReturnNotDelivered(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_none")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: true})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(0)},
	), "customer_reject")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomeNotDelivered {
		t.Fatalf("expected not_delivered, got %s", result.Outcome)
	}
	if !result.Items[0].QtyReturned.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected returned 10, got %s", result.Items[0].QtyReturned.String())
	}
}

func TestReconcileReturnAbsentLinesCountAsZeroDelivered(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_absent")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: false})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 5, 1), orderLine(102, 8, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(5)},
	), "")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomePartiallyReturned {
		t.Fatalf("expected partially_returned, got %s", result.Outcome)
	}
	if !result.Items[1].QtyReturned.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected absent line fully returned, got %s", result.Items[1].QtyReturned.String())
	}
}

func TestReconcileReturnLegacyPayload(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_legacy")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: false})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	lineKey := fmt.Sprintf("%d", items[0].OrderItemID)
	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, models.JSON{
		"deliveredItems": map[string]interface{}{lineKey: float64(10)},
	}, "")
	if err != nil {
		t.Fatalf("reconcile legacy payload failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomeDelivered {
		t.Fatalf("expected delivered, got %s", result.Outcome)
	}
}

func TestReconcileReturnRejectsDeliveredAboveLoaded(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_over")
	svc := newReconcileServiceTest(db, nil)
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	_, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(11)},
	), "")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestReconcileReturnRejectsUnknownLine(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_unknown")
	svc := newReconcileServiceTest(db, nil)
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))

	_, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(99999), "qty_delivered": float64(1)},
	), "")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestReconcileReturnRequiresReasonOnReturn(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_reason_required")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: true})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	_, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(4)},
	), "")
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}

	// 行级原因同样可以满足策略
	result, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(4), "reason_code": "damaged_in_transit"},
	), "")
	if err != nil {
		t.Fatalf("reconcile with line reason failed: %v", err)
	}
	if result.Outcome != constants.ReturnOutcomePartiallyReturned {
		t.Fatalf("expected partially_returned, got %s", result.Outcome)
	}
}

func TestReconcileReturnRejectsWrongReasonGroup(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_reason_group")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: true})
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	// 装车环节的原因不能用于回单核销
	_, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(4)},
	), "short_pick")
	if !errors.Is(err, ErrReasonInvalid) {
		t.Fatalf("expected reason invalid, got %v", err)
	}
}

func TestReconcileReturnRejectsIneligibleOrder(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_ineligible")
	svc := newReconcileServiceTest(db, nil)

	// 路线未发车
	_, routeOrder := dispatchReadyRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)
	payload := itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(10)},
	)
	if _, err := svc.ReconcileReturn(1, 1, routeOrder.ID, payload, ""); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected not eligible before dispatch, got %v", err)
	}
}

func TestReconcileReturnRejectsUnloadedOrder(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_unloaded")
	svc := newReconcileServiceTest(db, nil)
	route, routeOrder := attachTestOrder(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	// 强制把路线置为在途但保持 pending 装车状态
	if err := db.Model(&models.DeliveryRoute{}).Where("id = ?", route.ID).
		Update("status", constants.RouteStatusInRoute).Error; err != nil {
		t.Fatalf("force status failed: %v", err)
	}

	_, err := svc.ReconcileReturn(1, 1, routeOrder.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(0)},
	), "")
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected not eligible for pending order, got %v", err)
	}
}

func TestReconcileReturnRejectsDoubleReconcile(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_double")
	svc := newReconcileServiceTest(db, nil)
	_, routeOrder := dispatchedRoute(t, db, orderLine(101, 10, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)
	payload := itemsPayload(
		map[string]interface{}{"line_id": float64(items[0].OrderItemID), "qty_delivered": float64(10)},
	)

	if _, err := svc.ReconcileReturn(1, 1, routeOrder.ID, payload, ""); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if _, err := svc.ReconcileReturn(1, 1, routeOrder.ID, payload, ""); !errors.Is(err, ErrAlreadyReconciled) {
		t.Fatalf("expected already reconciled, got %v", err)
	}
}

func TestReconcileReturnCompletesRouteOnLastOrder(t *testing.T) {
	db := setupFulfillmentTestDB(t, "reconcile_complete")
	svc := newReconcileServiceTest(db, &config.RouteConfig{ReasonRequiredOnReturn: false})
	routeSvc := newRouteServiceTest(db)
	loadingSvc := newLoadingServiceTest(db)
	dispatchSvc := newDispatchServiceTest(db)

	orderA := createTestSalesOrder(t, db, 1, "SO-LAST-A", orderLine(101, 5, 1))
	orderB := createTestSalesOrder(t, db, 1, "SO-LAST-B", orderLine(102, 8, 1))
	route := createTestRoute(t, routeSvc, 1)

	routeOrderA, err := routeSvc.AddOrderToRoute(1, 1, route.ID, AddOrderInput{OrderID: orderA.ID})
	if err != nil {
		t.Fatalf("attach A failed: %v", err)
	}
	routeOrderB, err := routeSvc.AddOrderToRoute(1, 1, route.ID, AddOrderInput{OrderID: orderB.ID})
	if err != nil {
		t.Fatalf("attach B failed: %v", err)
	}
	for _, id := range []uint{routeOrderA.ID, routeOrderB.ID} {
		if _, err := loadingSvc.SetLoadingStatus(1, 1, SetLoadingStatusInput{
			RouteOrderID: id,
			Status:       constants.LoadingStatusLoaded,
		}); err != nil {
			t.Fatalf("set loaded failed: %v", err)
		}
	}
	if _, err := dispatchSvc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	itemsA := loadDeliveryItems(t, db, routeOrderA.ID)
	resultA, err := svc.ReconcileReturn(1, 1, routeOrderA.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(itemsA[0].OrderItemID), "qty_delivered": float64(5)},
	), "")
	if err != nil {
		t.Fatalf("reconcile A failed: %v", err)
	}
	if resultA.RouteCompleted {
		t.Fatalf("route must stay open while one order is pending")
	}

	itemsB := loadDeliveryItems(t, db, routeOrderB.ID)
	resultB, err := svc.ReconcileReturn(1, 1, routeOrderB.ID, itemsPayload(
		map[string]interface{}{"line_id": float64(itemsB[0].OrderItemID), "qty_delivered": float64(8)},
	), "")
	if err != nil {
		t.Fatalf("reconcile B failed: %v", err)
	}
	if !resultB.RouteCompleted {
		t.Fatalf("expected last reconcile to complete the route")
	}

	var reloaded models.DeliveryRoute
	if err := db.First(&reloaded, route.ID).Error; err != nil {
		t.Fatalf("reload route failed: %v", err)
	}
	if reloaded.Status != constants.RouteStatusCompleted {
		t.Fatalf("expected completed, got %s", reloaded.Status)
	}

	// 核销后订单解除调度占用
	var reloadedOrder models.SalesOrder
	if err := db.First(&reloadedOrder, orderA.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.DispatchStatus != constants.OrderDispatchOpen {
		t.Fatalf("expected order reopened, got %s", reloadedOrder.DispatchStatus)
	}
}
