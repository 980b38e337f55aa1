package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chengpei-next/internal/models"

	"github.com/shopspring/decimal"
)

// ReturnLine 回单明细行（归一化后的内部形态）
type ReturnLine struct {
	LineID       uint
	QtyDelivered models.Quantity
	ReasonCode   string
}

// ReturnPayload 归一化后的回单载荷
type ReturnPayload struct {
	Lines []ReturnLine
}

// NormalizeReturnPayload 在入口处把两种历史载荷形态归一为单一内部形态
// 规范形态为 items 数组；deliveredItems 映射是兼容旧客户端的过渡形态，二者都不匹配则拒绝。
func NormalizeReturnPayload(raw models.JSON) (*ReturnPayload, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidPayload
	}
	if itemsRaw, ok := raw["items"]; ok {
		return normalizeCanonicalItems(itemsRaw)
	}
	if deliveredRaw, ok := raw["deliveredItems"]; ok {
		return normalizeLegacyDeliveredItems(deliveredRaw)
	}
	return nil, ErrInvalidPayload
}

func normalizeCanonicalItems(raw interface{}) (*ReturnPayload, error) {
	rows, ok := raw.([]interface{})
	if !ok {
		return nil, ErrInvalidPayload
	}
	payload := &ReturnPayload{Lines: make([]ReturnLine, 0, len(rows))}
	seen := make(map[uint]bool, len(rows))
	for _, rowRaw := range rows {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return nil, ErrInvalidPayload
		}
		lineID, err := toLineID(row["line_id"])
		if err != nil {
			return nil, err
		}
		if seen[lineID] {
			return nil, ErrInvalidPayload
		}
		seen[lineID] = true
		qty, err := toQuantity(row["qty_delivered"])
		if err != nil {
			return nil, err
		}
		reasonCode := ""
		if rawReason, ok := row["reason_code"]; ok {
			text, ok := rawReason.(string)
			if !ok {
				return nil, ErrInvalidPayload
			}
			reasonCode = strings.TrimSpace(text)
		}
		payload.Lines = append(payload.Lines, ReturnLine{
			LineID:       lineID,
			QtyDelivered: qty,
			ReasonCode:   reasonCode,
		})
	}
	if len(payload.Lines) == 0 {
		return nil, ErrInvalidPayload
	}
	return payload, nil
}

func normalizeLegacyDeliveredItems(raw interface{}) (*ReturnPayload, error) {
	rows, ok := raw.(map[string]interface{})
	if !ok || len(rows) == 0 {
		return nil, ErrInvalidPayload
	}
	payload := &ReturnPayload{Lines: make([]ReturnLine, 0, len(rows))}
	for key, value := range rows {
		parsed, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if err != nil || parsed == 0 {
			return nil, ErrInvalidPayload
		}
		qty, err := toQuantity(value)
		if err != nil {
			return nil, err
		}
		payload.Lines = append(payload.Lines, ReturnLine{
			LineID:       uint(parsed),
			QtyDelivered: qty,
		})
	}
	return payload, nil
}

func toLineID(raw interface{}) (uint, error) {
	switch value := raw.(type) {
	case float64:
		if value <= 0 || value != float64(uint(value)) {
			return 0, ErrInvalidPayload
		}
		return uint(value), nil
	case int:
		if value <= 0 {
			return 0, ErrInvalidPayload
		}
		return uint(value), nil
	case uint:
		if value == 0 {
			return 0, ErrInvalidPayload
		}
		return value, nil
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil || parsed == 0 {
			return 0, ErrInvalidPayload
		}
		return uint(parsed), nil
	default:
		return 0, ErrInvalidPayload
	}
}

func toQuantity(raw interface{}) (models.Quantity, error) {
	switch value := raw.(type) {
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || parsed.IsNegative() {
			return models.Quantity{}, ErrInvalidPayload
		}
		return models.NewQuantityFromDecimal(parsed), nil
	case float64:
		parsed := decimal.NewFromFloat(value)
		if parsed.IsNegative() {
			return models.Quantity{}, ErrInvalidPayload
		}
		return models.NewQuantityFromDecimal(parsed), nil
	case int:
		if value < 0 {
			return models.Quantity{}, ErrInvalidPayload
		}
		return models.NewQuantityFromInt(int64(value)), nil
	case fmt.Stringer:
		parsed, err := decimal.NewFromString(value.String())
		if err != nil || parsed.IsNegative() {
			return models.Quantity{}, ErrInvalidPayload
		}
		return models.NewQuantityFromDecimal(parsed), nil
	default:
		return models.Quantity{}, ErrInvalidPayload
	}
}
