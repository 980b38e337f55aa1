package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chengpei-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id header")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "incoming-id")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "incoming-id" {
		t.Fatalf("expected incoming request id echoed, got %s", got)
	}
}

func signOperatorToken(t *testing.T, secret string, operatorID, companyID uint) string {
	t.Helper()
	claims := &service.OperatorClaims{
		OperatorID: operatorID,
		CompanyID:  companyID,
		Username:   "driver01",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func newAuthTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OperatorAuthMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operator_id": c.GetUint("operator_id"),
			"company_id":  c.GetUint("company_id"),
		})
	})
	return r
}

func bodyStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var envelope struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response failed: %v body %s", err, w.Body.String())
	}
	return envelope.StatusCode
}

func TestOperatorAuthMiddlewareAcceptsValidToken(t *testing.T) {
	secret := "test-secret-key-for-operator-auth-0001"
	r := newAuthTestRouter(secret)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signOperatorToken(t, secret, 7, 3))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"operator_id":7`) {
		t.Fatalf("expected operator id in body, got %s", w.Body.String())
	}
}

func TestOperatorAuthMiddlewareRejectsBadTokens(t *testing.T) {
	secret := "test-secret-key-for-operator-auth-0001"
	r := newAuthTestRouter(secret)

	// 缺少鉴权头
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	if got := bodyStatusCode(t, w); got != 401 {
		t.Fatalf("missing header status_code want 401 got %d", got)
	}

	// 错误密钥签发的令牌
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signOperatorToken(t, "another-secret-key-entirely-000000", 7, 3))
	r.ServeHTTP(w, req)
	if got := bodyStatusCode(t, w); got != 401 {
		t.Fatalf("wrong key status_code want 401 got %d", got)
	}

	// 公司为空的令牌不可用
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signOperatorToken(t, secret, 7, 0))
	r.ServeHTTP(w, req)
	if got := bodyStatusCode(t, w); got != 401 {
		t.Fatalf("empty company status_code want 401 got %d", got)
	}
}
