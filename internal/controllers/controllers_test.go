package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"linkly-be/internal/filestore"
	"linkly-be/internal/middleware"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const testBaseURL = "http://short.test"

// newTestRouter wires the full route surface over a file store in a temp
// directory. Rate limits are generous so tests exercise quotas, not buckets.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := filestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	urlService := service.NewURLService(store.URLs(), nil)
	authService := service.NewAuthService(store.Users(), store.Sessions())
	quotaService := service.NewQuotaService(store.Users(), store.Usage())
	subscriptionService := service.NewSubscriptionService(store.Subscriptions(), store.Users(), authService)

	shortenerController := NewShortenerController(urlService, quotaService, testBaseURL)
	authController := NewAuthController(authService)
	apiController := NewAPIController(authService, urlService, quotaService, testBaseURL)
	subscriptionController := NewSubscriptionController(subscriptionService)
	qrcodeController := NewQRCodeController(urlService, testBaseURL)

	limiter := middleware.NewRateLimiter(rate.Limit(1000), 1000)

	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/:shortCode", limiter.LimitMiddleware(), shortenerController.RedirectToURL)
	router.GET("/qrcode/:shortCode", limiter.LimitMiddleware(), qrcodeController.GenerateQRCode)

	auth := router.Group("/auth")
	auth.Use(limiter.LimitMiddleware())
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	router.POST("/shorten", limiter.LimitMiddleware(), middleware.OptionalSession(authService), shortenerController.CreateShortURL)
	router.GET("/shorten", limiter.LimitMiddleware(), shortenerController.Totals)

	protected := router.Group("")
	protected.Use(limiter.LimitMiddleware(), middleware.RequireSession(authService))
	{
		protected.GET("/user/stats", authController.Stats)
		protected.POST("/generate-api-key", authController.GenerateAPIKey)
	}

	v1 := router.Group("/v1")
	v1.Use(limiter.LimitMiddleware())
	{
		v1.POST("/shorten", apiController.CreateShortURL)
		v1.GET("/shorten", apiController.Usage)
	}

	router.POST("/subscriptions", limiter.LimitMiddleware(), subscriptionController.Record)
	router.GET("/subscriptions", limiter.LimitMiddleware(), subscriptionController.Summary)
	router.GET("/admin/urls", limiter.LimitMiddleware(), shortenerController.AdminURLs)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "controllers-test")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Redirects and PNGs carry non-JSON bodies; only decode JSON responses.
	var decoded map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func registerUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w, body := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email":    email,
		"name":     "Test User",
		"password": "secret123",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}
	sessionID, _ := body["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("expected a sessionId in the register response")
	}
	return sessionID
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	router := newTestRouter(t)

	sessionID := registerUser(t, router, "alice@example.com")

	// Duplicate registration conflicts.
	w, _ := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email":    "ALICE@example.com",
		"name":     "Alice Again",
		"password": "secret456",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", w.Code)
	}

	// Wrong password is rejected without detail.
	w, _ = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", w.Code)
	}

	w, body := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	if body["sessionId"] == "" {
		t.Error("expected a sessionId")
	}

	headers := map[string]string{"Authorization": "Bearer " + sessionID}
	w, _ = doJSON(t, router, http.MethodPost, "/auth/logout", nil, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("logout returned %d", w.Code)
	}

	// The session is gone.
	w, _ = doJSON(t, router, http.MethodGet, "/user/stats", nil, headers)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", w.Code)
	}
}

func TestAnonymousShortenAndRedirect(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "https://example.com/page"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("shorten returned %d: %s", w.Code, w.Body.String())
	}

	shortCode, _ := body["shortCode"].(string)
	if len(shortCode) != 8 {
		t.Fatalf("expected an 8-character code, got %q", shortCode)
	}
	if body["shortUrl"] != testBaseURL+"/"+shortCode {
		t.Errorf("unexpected shortUrl %v", body["shortUrl"])
	}

	w, _ = doJSON(t, router, http.MethodGet, "/"+shortCode, nil, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/page" {
		t.Errorf("unexpected redirect target %q", loc)
	}

	w, _ = doJSON(t, router, http.MethodGet, "/nosuch12", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown code, got %d", w.Code)
	}
}

func TestShortenRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/shorten", gin.H{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing url, got %d", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "not a url"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed url, got %d", w.Code)
	}
}

func TestDailyQuotaDeniesSixthCreate(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 5; i++ {
		w, _ := doJSON(t, router, http.MethodPost, "/shorten", gin.H{
			"url": fmt.Sprintf("https://example.com/page-%d", i),
		}, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("creation %d returned %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w, body := doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "https://example.com/one-too-many"}, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the sixth creation, got %d: %s", w.Code, w.Body.String())
	}
	if body["needsUpgrade"] != true {
		t.Error("expected needsUpgrade to be true")
	}
	if body["limit"] != float64(5) || body["used"] != float64(5) {
		t.Errorf("expected limit=5 used=5, got limit=%v used=%v", body["limit"], body["used"])
	}
	if body["planType"] != "free" {
		t.Errorf("expected free planType, got %v", body["planType"])
	}
}

func TestDailyQuotaDeniesSixthCreateForRegisteredUser(t *testing.T) {
	router := newTestRouter(t)

	sessionID := registerUser(t, router, "fiona@example.com")
	headers := map[string]string{"Authorization": "Bearer " + sessionID}

	for i := 0; i < 5; i++ {
		w, _ := doJSON(t, router, http.MethodPost, "/shorten", gin.H{
			"url": fmt.Sprintf("https://example.com/mine-%d", i),
		}, headers)
		if w.Code != http.StatusCreated {
			t.Fatalf("creation %d returned %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w, body := doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "https://example.com/one-too-many"}, headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the sixth creation, got %d: %s", w.Code, w.Body.String())
	}
	if body["needsUpgrade"] != true {
		t.Error("expected needsUpgrade to be true")
	}
	if body["limit"] != float64(5) || body["used"] != float64(5) {
		t.Errorf("expected limit=5 used=5, got limit=%v used=%v", body["limit"], body["used"])
	}
	if body["planType"] != "free" {
		t.Errorf("expected free planType, got %v", body["planType"])
	}

	// The account-side counters track the same five creations.
	w, body = doJSON(t, router, http.MethodGet, "/user/stats", nil, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("stats returned %d", w.Code)
	}
	if body["urls_created"] != float64(5) {
		t.Errorf("expected 5 urls created, got %v", body["urls_created"])
	}
}

func TestUserStatsRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/user/stats", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", w.Code)
	}

	sessionID := registerUser(t, router, "bob@example.com")
	w, body := doJSON(t, router, http.MethodGet, "/user/stats", nil, map[string]string{
		"Authorization": "Bearer " + sessionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("stats returned %d: %s", w.Code, w.Body.String())
	}
	if body["plan"] != "free" {
		t.Errorf("expected free plan, got %v", body["plan"])
	}
}

func TestAPIKeyRequiresEnterprise(t *testing.T) {
	router := newTestRouter(t)

	sessionID := registerUser(t, router, "carol@example.com")
	w, _ := doJSON(t, router, http.MethodPost, "/generate-api-key", nil, map[string]string{
		"Authorization": "Bearer " + sessionID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 on a free plan, got %d", w.Code)
	}
}

// provisionAPIKey registers an account, upgrades it through the billing
// callback and issues an API key for it.
func provisionAPIKey(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	sessionID := registerUser(t, router, email)

	w, _ := doJSON(t, router, http.MethodPost, "/subscriptions", gin.H{
		"subscriptionId": "sub_" + email,
		"planName":       "Enterprise Plan",
		"email":          email,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("subscription callback returned %d: %s", w.Code, w.Body.String())
	}

	w, body := doJSON(t, router, http.MethodPost, "/generate-api-key", nil, map[string]string{
		"Authorization": "Bearer " + sessionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("key generation returned %d: %s", w.Code, w.Body.String())
	}
	apiKey, _ := body["apiKey"].(string)
	if apiKey == "" {
		t.Fatal("expected an apiKey")
	}
	return apiKey
}

func TestEnterpriseAPIFlow(t *testing.T) {
	router := newTestRouter(t)

	apiKey := provisionAPIKey(t, router, "dana@example.com")

	// Key-authenticated creation with a custom code.
	w, body := doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{
		"url":        "https://example.com/launch",
		"customCode": "promo",
	}, map[string]string{"x-api-key": apiKey})
	if w.Code != http.StatusCreated {
		t.Fatalf("API creation returned %d: %s", w.Code, w.Body.String())
	}
	if body["shortCode"] != "promo" {
		t.Errorf("expected the custom code, got %v", body["shortCode"])
	}
	usage, _ := body["apiUsage"].(map[string]interface{})
	if usage["used"] != float64(1) {
		t.Errorf("expected 1 API request used, got %v", usage["used"])
	}

	// The code is taken now.
	w, body = doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{
		"url":        "https://example.com/other",
		"customCode": "promo",
	}, map[string]string{"x-api-key": apiKey})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if body["code"] != "CODE_EXISTS" {
		t.Errorf("expected CODE_EXISTS, got %v", body["code"])
	}

	// Usage endpoint reflects the month so far.
	w, body = doJSON(t, router, http.MethodGet, "/v1/shorten", nil, map[string]string{"x-api-key": apiKey})
	if w.Code != http.StatusOK {
		t.Fatalf("usage returned %d: %s", w.Code, w.Body.String())
	}
	if body["plan"] != "enterprise" {
		t.Errorf("expected enterprise plan, got %v", body["plan"])
	}
}

func TestAPIKeyErrors(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{"url": "https://example.com"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["code"] != "MISSING_API_KEY" {
		t.Errorf("expected MISSING_API_KEY, got %v", body["code"])
	}

	w, body = doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{"url": "https://example.com"}, map[string]string{
		"x-api-key": "qk_bogus",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["code"] != "INVALID_API_KEY" {
		t.Errorf("expected INVALID_API_KEY, got %v", body["code"])
	}
}

func TestAPICustomCodeErrors(t *testing.T) {
	router := newTestRouter(t)

	apiKey := provisionAPIKey(t, router, "ed@example.com")
	headers := map[string]string{"x-api-key": apiKey}

	// A rejected custom code reports its own error code, not a URL error.
	for _, bad := range []string{"ab", "admin", "has space"} {
		w, body := doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{
			"url":        "https://example.com/page",
			"customCode": bad,
		}, headers)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("custom code %q returned %d, want 400", bad, w.Code)
		}
		if body["code"] != "INVALID_CUSTOM_CODE" {
			t.Errorf("custom code %q: expected INVALID_CUSTOM_CODE, got %v", bad, body["code"])
		}
	}

	// A malformed destination still reports INVALID_URL.
	w, body := doJSON(t, router, http.MethodPost, "/v1/shorten", gin.H{
		"url":        "not a url",
		"customCode": "validcode",
	}, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body["code"] != "INVALID_URL" {
		t.Errorf("expected INVALID_URL, got %v", body["code"])
	}
}

func TestSubscriptionCallbackIdempotent(t *testing.T) {
	router := newTestRouter(t)

	payload := gin.H{
		"subscriptionId": "sub_dup",
		"planName":       "Pro Plan",
		"email":          "nobody@example.com",
	}

	w, _ := doJSON(t, router, http.MethodPost, "/subscriptions", payload, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("first delivery returned %d", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/subscriptions", payload, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery returned %d, want 200", w.Code)
	}

	w, body := doJSON(t, router, http.MethodGet, "/subscriptions", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary returned %d", w.Code)
	}
	if body["total_subscriptions"] != float64(1) {
		t.Errorf("expected 1 subscription, got %v", body["total_subscriptions"])
	}
	if body["total_revenue"] != float64(9) {
		t.Errorf("expected $9 revenue, got %v", body["total_revenue"])
	}
}

func TestAdminURLsAndTotals(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "https://example.com/a"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("shorten returned %d", w.Code)
	}
	shortCode, _ := body["shortCode"].(string)

	doJSON(t, router, http.MethodGet, "/"+shortCode, nil, nil)
	doJSON(t, router, http.MethodGet, "/"+shortCode, nil, nil)

	w, body = doJSON(t, router, http.MethodGet, "/shorten", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("totals returned %d", w.Code)
	}
	if body["totalUrls"] != float64(1) || body["totalClicks"] != float64(2) {
		t.Errorf("expected 1 url / 2 clicks, got %v / %v", body["totalUrls"], body["totalClicks"])
	}

	w, body = doJSON(t, router, http.MethodGet, "/admin/urls", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin urls returned %d", w.Code)
	}
	if body["total"] != float64(1) {
		t.Errorf("expected 1 record, got %v", body["total"])
	}
}

func TestQRCode(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/shorten", gin.H{"url": "https://example.com/qr"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("shorten returned %d", w.Code)
	}
	shortCode, _ := body["shortCode"].(string)

	w, _ = doJSON(t, router, http.MethodGet, "/qrcode/"+shortCode, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("qrcode returned %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	w, _ = doJSON(t, router, http.MethodGet, "/qrcode/unknown1", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown code, got %d", w.Code)
	}
}
