package service

import (
	"testing"

	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/models"
)

func TestCanTransitionRouteStatus(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{constants.RouteStatusPlanned, constants.RouteStatusInRoute, true},
		{constants.RouteStatusPlanned, constants.RouteStatusCancelled, true},
		{constants.RouteStatusPlanned, constants.RouteStatusCompleted, false},
		{constants.RouteStatusInRoute, constants.RouteStatusCompleted, true},
		{constants.RouteStatusInRoute, constants.RouteStatusCancelled, true},
		{constants.RouteStatusInRoute, constants.RouteStatusPlanned, false},
		{constants.RouteStatusCompleted, constants.RouteStatusCancelled, false},
		{constants.RouteStatusCancelled, constants.RouteStatusPlanned, false},
		{"  Planned ", constants.RouteStatusInRoute, true},
	}
	for _, c := range cases {
		if got := canTransitionRouteStatus(c.from, c.to); got != c.allowed {
			t.Fatalf("transition %s -> %s: expected %v, got %v", c.from, c.to, c.allowed, got)
		}
	}
}

func TestRouteStatusLocked(t *testing.T) {
	if routeStatusLocked(constants.RouteStatusPlanned) {
		t.Fatalf("planned route should not be locked")
	}
	for _, status := range []string{
		constants.RouteStatusInRoute,
		constants.RouteStatusCompleted,
		constants.RouteStatusCancelled,
	} {
		if !routeStatusLocked(status) {
			t.Fatalf("expected %s to lock loading edits", status)
		}
	}
}

func qtyItem(loaded, delivered, returned int64) models.DeliveryItem {
	return models.DeliveryItem{
		QtyLoaded:    models.NewQuantityFromInt(loaded),
		QtyDelivered: models.NewQuantityFromInt(delivered),
		QtyReturned:  models.NewQuantityFromInt(returned),
	}
}

func TestClassifyReturnOutcomeDelivered(t *testing.T) {
	items := []models.DeliveryItem{qtyItem(10, 10, 0)}
	if got := classifyReturnOutcome(items); got != constants.ReturnOutcomeDelivered {
		t.Fatalf("expected delivered, got %s", got)
	}
}

func TestClassifyReturnOutcomePartiallyReturned(t *testing.T) {
	items := []models.DeliveryItem{qtyItem(10, 6, 4)}
	if got := classifyReturnOutcome(items); got != constants.ReturnOutcomePartiallyReturned {
		t.Fatalf("expected partially_returned, got %s", got)
	}
}

func TestClassifyReturnOutcomeNotDelivered(t *testing.T) {
	items := []models.DeliveryItem{qtyItem(10, 0, 10)}
	if got := classifyReturnOutcome(items); got != constants.ReturnOutcomeNotDelivered {
		t.Fatalf("expected not_delivered, got %s", got)
	}
}

func TestClassifyReturnOutcomeMixedLines(t *testing.T) {
	// 一行整单签收、一行部分退回，整单算部分退回
	items := []models.DeliveryItem{
		qtyItem(5, 5, 0),
		qtyItem(8, 3, 5),
	}
	if got := classifyReturnOutcome(items); got != constants.ReturnOutcomePartiallyReturned {
		t.Fatalf("expected partially_returned, got %s", got)
	}
}

func TestClassifyReturnOutcomeNothingLoaded(t *testing.T) {
	items := []models.DeliveryItem{qtyItem(0, 0, 0)}
	if got := classifyReturnOutcome(items); got != constants.ReturnOutcomeNotDelivered {
		t.Fatalf("expected not_delivered for empty load, got %s", got)
	}
	if got := classifyReturnOutcome(nil); got != constants.ReturnOutcomeNotDelivered {
		t.Fatalf("expected not_delivered for no items, got %s", got)
	}
}
