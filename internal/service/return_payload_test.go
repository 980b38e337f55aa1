package service

import (
	"errors"
	"testing"

	"github.com/chengpei-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestNormalizeReturnPayloadCanonicalItems(t *testing.T) {
	raw := models.JSON{
		"items": []interface{}{
			map[string]interface{}{"line_id": float64(11), "qty_delivered": "12.5", "reason_code": "damaged_in_transit"},
			map[string]interface{}{"line_id": float64(12), "qty_delivered": float64(3)},
		},
	}
	payload, err := NormalizeReturnPayload(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(payload.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(payload.Lines))
	}
	if payload.Lines[0].LineID != 11 || !payload.Lines[0].QtyDelivered.Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("unexpected first line: %+v", payload.Lines[0])
	}
	if payload.Lines[0].ReasonCode != "damaged_in_transit" {
		t.Fatalf("expected line reason, got %q", payload.Lines[0].ReasonCode)
	}
	if payload.Lines[1].ReasonCode != "" {
		t.Fatalf("expected empty reason on second line, got %q", payload.Lines[1].ReasonCode)
	}
}

func TestNormalizeReturnPayloadLegacyDeliveredItems(t *testing.T) {
	raw := models.JSON{
		"deliveredItems": map[string]interface{}{
			"11": float64(5),
			"12": "0",
		},
	}
	payload, err := NormalizeReturnPayload(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(payload.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(payload.Lines))
	}
	byLine := make(map[uint]models.Quantity, len(payload.Lines))
	for _, line := range payload.Lines {
		byLine[line.LineID] = line.QtyDelivered
	}
	if !byLine[11].Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected line 11 qty 5, got %s", byLine[11].String())
	}
	if !byLine[12].Equal(decimal.Zero) {
		t.Fatalf("expected line 12 qty 0, got %s", byLine[12].String())
	}
}

func TestNormalizeReturnPayloadRejectsUnknownShape(t *testing.T) {
	cases := []models.JSON{
		nil,
		{},
		{"foo": "bar"},
		{"items": "not-a-list"},
		{"items": []interface{}{}},
		{"deliveredItems": map[string]interface{}{}},
		{"deliveredItems": []interface{}{float64(1)}},
	}
	for i, raw := range cases {
		if _, err := NormalizeReturnPayload(raw); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("case %d: expected invalid payload, got %v", i, err)
		}
	}
}

func TestNormalizeReturnPayloadRejectsDuplicateLine(t *testing.T) {
	raw := models.JSON{
		"items": []interface{}{
			map[string]interface{}{"line_id": float64(11), "qty_delivered": float64(1)},
			map[string]interface{}{"line_id": float64(11), "qty_delivered": float64(2)},
		},
	}
	if _, err := NormalizeReturnPayload(raw); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for duplicate line, got %v", err)
	}
}

func TestNormalizeReturnPayloadRejectsNegativeQuantity(t *testing.T) {
	raw := models.JSON{
		"items": []interface{}{
			map[string]interface{}{"line_id": float64(11), "qty_delivered": float64(-1)},
		},
	}
	if _, err := NormalizeReturnPayload(raw); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for negative qty, got %v", err)
	}
	legacy := models.JSON{
		"deliveredItems": map[string]interface{}{"11": "-2"},
	}
	if _, err := NormalizeReturnPayload(legacy); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for negative legacy qty, got %v", err)
	}
}

func TestNormalizeReturnPayloadRejectsBadLineID(t *testing.T) {
	cases := []interface{}{float64(0), float64(1.5), "abc", true}
	for i, lineID := range cases {
		raw := models.JSON{
			"items": []interface{}{
				map[string]interface{}{"line_id": lineID, "qty_delivered": float64(1)},
			},
		}
		if _, err := NormalizeReturnPayload(raw); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("case %d: expected invalid payload, got %v", i, err)
		}
	}
}
