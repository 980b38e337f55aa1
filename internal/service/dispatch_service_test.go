package service

import (
	"context"
	"errors"
	"testing"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"

	"gorm.io/gorm"
)

func newStockServiceTest(db *gorm.DB) *StockService {
	return NewStockService(
		repository.NewRouteRepository(db),
		repository.NewDeliveryItemRepository(db),
		repository.NewInventoryMovementRepository(db),
		nil,
	)
}

func newDispatchServiceTest(db *gorm.DB) *DispatchService {
	return NewDispatchService(
		repository.NewRouteRepository(db),
		repository.NewRouteOrderRepository(db),
		repository.NewSalesOrderRepository(db),
		newStockServiceTest(db),
		nil,
		nil,
	)
}

// dispatchReadyRoute 准备一条整单装车完毕、可发车的路线
func dispatchReadyRoute(t *testing.T, db *gorm.DB, lines ...models.SalesOrderItem) (*models.DeliveryRoute, *models.RouteOrder) {
	t.Helper()
	route, routeOrder := attachTestOrder(t, db, lines...)
	loadingSvc := newLoadingServiceTest(db)
	if _, err := loadingSvc.SetLoadingStatus(1, 1, SetLoadingStatusInput{
		RouteOrderID: routeOrder.ID,
		Status:       constants.LoadingStatusLoaded,
	}); err != nil {
		t.Fatalf("set loaded failed: %v", err)
	}
	return route, routeOrder
}

func TestDispatchMovesRouteInRoute(t *testing.T) {
	db := setupFulfillmentTestDB(t, "dispatch_ok")
	svc := newDispatchServiceTest(db)
	route, routeOrder := dispatchReadyRoute(t, db, orderLine(101, 20, 1), orderLine(102, 8, 1))

	result, err := svc.Dispatch(context.Background(), 1, 1, route.ID)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.MovementsWritten != 2 {
		t.Fatalf("expected 2 movements, got %d", result.MovementsWritten)
	}
	if result.StockDeductedAt == nil {
		t.Fatalf("expected stock deducted timestamp")
	}

	var reloaded models.DeliveryRoute
	if err := db.First(&reloaded, route.ID).Error; err != nil {
		t.Fatalf("reload route failed: %v", err)
	}
	if reloaded.Status != constants.RouteStatusInRoute {
		t.Fatalf("expected in_route, got %s", reloaded.Status)
	}
	if reloaded.DispatchedAt == nil || reloaded.StockDeductedAt == nil {
		t.Fatalf("expected dispatch and deduction markers set")
	}

	// 在途订单被调度占用
	var order models.SalesOrder
	if err := db.Where("id = (?)", db.Model(&models.RouteOrder{}).Select("order_id").Where("id = ?", routeOrder.ID)).
		First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.DispatchStatus != constants.OrderDispatchBlocked {
		t.Fatalf("expected order blocked, got %s", order.DispatchStatus)
	}
}

func TestDispatchRejectsSecondAttempt(t *testing.T) {
	db := setupFulfillmentTestDB(t, "dispatch_twice")
	svc := newDispatchServiceTest(db)
	route, _ := dispatchReadyRoute(t, db, orderLine(101, 5, 1))

	if _, err := svc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	_, err := svc.Dispatch(context.Background(), 1, 1, route.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestDispatchRejectsEmptyRoute(t *testing.T) {
	db := setupFulfillmentTestDB(t, "dispatch_empty")
	svc := newDispatchServiceTest(db)
	route := createTestRoute(t, newRouteServiceTest(db), 1)

	_, err := svc.Dispatch(context.Background(), 1, 1, route.ID)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for empty route, got %v", err)
	}
}

func TestDispatchLocksLoadingEdits(t *testing.T) {
	db := setupFulfillmentTestDB(t, "dispatch_locks_loading")
	svc := newDispatchServiceTest(db)
	route, routeOrder := dispatchReadyRoute(t, db, orderLine(101, 5, 1))

	if _, err := svc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	loadingSvc := newLoadingServiceTest(db)
	_, err := loadingSvc.SetLoadingStatus(1, 1, SetLoadingStatusInput{
		RouteOrderID: routeOrder.ID,
		Status:       constants.LoadingStatusNotLoaded,
	})
	if !errors.Is(err, ErrRouteLocked) {
		t.Fatalf("expected route locked after dispatch, got %v", err)
	}
}

func TestDeductStockForRouteIsIdempotent(t *testing.T) {
	db := setupFulfillmentTestDB(t, "deduct_idempotent")
	dispatchSvc := newDispatchServiceTest(db)
	stockSvc := newStockServiceTest(db)
	route, _ := dispatchReadyRoute(t, db, orderLine(101, 20, 1), orderLine(102, 8, 1))

	if _, err := dispatchSvc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	// 重复扣减必须是无操作，流水总数不变
	written, err := stockSvc.DeductStockForRoute(1, route.ID)
	if err != nil {
		t.Fatalf("repeat deduct failed: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected repeat deduct to write nothing, got %d", written)
	}

	var count int64
	if err := db.Model(&models.InventoryMovement{}).Where("route_id = ?", route.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 movements total, got %d", count)
	}
}

func TestDeductStockSkipsZeroLoadedLines(t *testing.T) {
	db := setupFulfillmentTestDB(t, "deduct_skip_zero")
	stockSvc := newStockServiceTest(db)
	route, routeOrder := attachTestOrder(t, db, orderLine(101, 10, 1), orderLine(102, 4, 1))
	items := loadDeliveryItems(t, db, routeOrder.ID)

	loadingSvc := newLoadingServiceTest(db)
	if _, err := loadingSvc.SetLoadingStatus(1, 1, SetLoadingStatusInput{
		RouteOrderID: routeOrder.ID,
		Status:       constants.LoadingStatusPartial,
		Items: []PartialItemInput{
			{LineID: items[0].OrderItemID, QtyLoaded: models.NewQuantityFromInt(6)},
		},
	}); err != nil {
		t.Fatalf("set partial failed: %v", err)
	}

	written, err := stockSvc.DeductStockForRoute(1, route.ID)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 movement for the loaded line only, got %d", written)
	}

	var movement models.InventoryMovement
	if err := db.Where("route_id = ?", route.ID).First(&movement).Error; err != nil {
		t.Fatalf("load movement failed: %v", err)
	}
	if movement.Direction != constants.MovementDirectionOut || movement.Source != constants.MovementSourceRouteDispatch {
		t.Fatalf("unexpected movement: %+v", movement)
	}
	if movement.Quantity.String() != "6.000" {
		t.Fatalf("expected quantity 6.000, got %s", movement.Quantity.String())
	}
}

func TestReverseStockForRoute(t *testing.T) {
	db := setupFulfillmentTestDB(t, "stock_reverse")
	dispatchSvc := newDispatchServiceTest(db)
	stockSvc := newStockServiceTest(db)
	routeSvc := newRouteServiceTest(db)
	route, _ := dispatchReadyRoute(t, db, orderLine(101, 5, 1))

	if _, err := dispatchSvc.Dispatch(context.Background(), 1, 1, route.ID); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	// 未取消的路线不可回冲
	if _, err := stockSvc.ReverseStockForRoute(1, 1, route.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if _, err := routeSvc.CancelRoute(1, 1, route.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	written, err := stockSvc.ReverseStockForRoute(1, 1, route.ID)
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 reversal movement, got %d", written)
	}

	// 重复回冲为无操作
	written, err = stockSvc.ReverseStockForRoute(1, 1, route.ID)
	if err != nil {
		t.Fatalf("repeat reverse failed: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected repeat reverse to write nothing, got %d", written)
	}

	var count int64
	if err := db.Model(&models.InventoryMovement{}).
		Where("route_id = ? AND source = ?", route.ID, constants.MovementSourceRouteReversal).
		Count(&count).Error; err != nil {
		t.Fatalf("count reversals failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single reversal, got %d", count)
	}
}
