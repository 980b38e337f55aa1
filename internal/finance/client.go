package finance

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/chengpei-next/internal/config"
)

var (
	ErrConfigInvalid   = errors.New("finance config invalid")
	ErrRequestFailed   = errors.New("finance request failed")
	ErrResponseInvalid = errors.New("finance response invalid")
)

// OutcomeNotification 回单结果通知，财务系统据此生成应收调整
type OutcomeNotification struct {
	CompanyID    uint                `json:"company_id"`
	RouteID      uint                `json:"route_id"`
	RouteOrderID uint                `json:"route_order_id"`
	OrderNo      string              `json:"order_no"`
	Outcome      string              `json:"outcome"`
	ReasonCode   string              `json:"reason_code,omitempty"`
	ReconciledAt time.Time           `json:"reconciled_at"`
	Items        []OutcomeItemDetail `json:"items"`
}

// OutcomeItemDetail 通知明细行
type OutcomeItemDetail struct {
	LineID       uint   `json:"line_id"`
	ProductID    uint   `json:"product_id"`
	QtyLoaded    string `json:"qty_loaded"`
	QtyDelivered string `json:"qty_delivered"`
	QtyReturned  string `json:"qty_returned"`
}

// Client 财务协作方 Webhook 客户端
type Client struct {
	cfg *config.FinanceConfig
}

// NewClient 创建财务客户端
func NewClient(cfg *config.FinanceConfig) *Client {
	return &Client{cfg: cfg}
}

// Enabled 是否配置了通知地址
func (c *Client) Enabled() bool {
	return c != nil && c.cfg != nil && strings.TrimSpace(c.cfg.WebhookURL) != ""
}

// NotifyOutcome 推送回单结果，由队列消费者调用并依赖队列层重试
func (c *Client) NotifyOutcome(ctx context.Context, notification *OutcomeNotification) error {
	if !c.Enabled() {
		return nil
	}
	if notification == nil || notification.RouteOrderID == 0 {
		return ErrConfigInvalid
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(c.cfg.WebhookURL), "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(c.cfg.AuthToken); token != "" {
		req.Header.Set("X-Signature", Sign(notification, token))
	}

	timeout := 3000
	if c.cfg.TimeoutMS > 0 {
		timeout = c.cfg.TimeoutMS
	}
	client := &http.Client{Timeout: time.Duration(timeout) * time.Millisecond}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrResponseInvalid, resp.StatusCode)
	}

	var ack struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
	}
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if len(respBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBytes, &ack); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if ack.StatusCode != 0 && ack.StatusCode != 200 {
		return fmt.Errorf("%w: %s", ErrResponseInvalid, ack.Message)
	}
	return nil
}

// Sign 生成通知签名：按键名排序拼接后加 token 取 md5
func Sign(notification *OutcomeNotification, authToken string) string {
	params := map[string]interface{}{
		"company_id":     notification.CompanyID,
		"route_id":       notification.RouteID,
		"route_order_id": notification.RouteOrderID,
		"order_no":       notification.OrderNo,
		"outcome":        notification.Outcome,
	}

	var keys []string
	for k, v := range params {
		if v == nil || fmt.Sprintf("%v", v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
	}

	content := strings.Join(pairs, "&") + authToken
	sum := md5.Sum([]byte(content))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}
