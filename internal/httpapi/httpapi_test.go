package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokopos/backend/internal/cache"
	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/payment"
	"tokopos/backend/internal/service"
	"tokopos/backend/internal/store/memory"
)

const (
	testAuthSecret    = "unit-test-secret-0123456789abcdef"
	testCallbackToken = "cb-test-token"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, payment.NewManager(), cache.NoopReceiptCache{}, 5*time.Minute)
	auth := NewAuthManager(testAuthSecret, time.Hour, repo)
	api := New(svc, auth, "http://127.0.0.1:3000", testCallbackToken)

	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, server *httptest.Server, username, password string) domain.LoginResponse {
	t.Helper()

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login", "", domain.LoginRequest{
		Username: username,
		Password: password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}

	var loginResp domain.LoginResponse
	decodeBody(t, resp, &loginResp)
	if loginResp.AccessToken == "" {
		t.Fatalf("login %s: empty access token", username)
	}
	return loginResp
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestLoginAndRoleEnforcement(t *testing.T) {
	server := newTestServer(t)

	adminLogin := login(t, server, "admin", "admin123")
	if adminLogin.Role != "admin" {
		t.Fatalf("admin role = %s", adminLogin.Role)
	}
	cashierLogin := login(t, server, "cashier", "cashier123")
	if cashierLogin.Role != "cashier" {
		t.Fatalf("cashier role = %s", cashierLogin.Role)
	}

	// Wrong password is rejected.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "wrong-password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", resp.StatusCode)
	}

	// No token at all.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/products", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Cashier hitting an admin-only route.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/settings/payment", cashierLogin.AccessToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cashier on admin route status = %d, want 403", resp.StatusCode)
	}

	// A garbage token is rejected.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/products", "not-a-jwt", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}
}

func TestCartCheckoutFlow(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "cashier", "cashier123").AccessToken

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/cart", token, domain.AddToCartRequest{
		ProductID: "prd-mie-01",
		Qty:       2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add to cart status = %d, want 201", resp.StatusCode)
	}
	var cartResp struct {
		Cart domain.CartView `json:"cart"`
	}
	decodeBody(t, resp, &cartResp)
	if len(cartResp.Cart.Lines) != 1 || cartResp.Cart.Total != 7000 {
		t.Fatalf("cart = %+v, want one line totaling 7000", cartResp.Cart)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout", token, domain.CheckoutRequest{
		Cash: 10000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout status = %d, want 201", resp.StatusCode)
	}
	var checkoutResp domain.CheckoutResponse
	decodeBody(t, resp, &checkoutResp)
	if !strings.HasPrefix(checkoutResp.Transaction.Invoice, "TRX-") {
		t.Fatalf("invoice = %s, want TRX- prefix", checkoutResp.Transaction.Invoice)
	}
	if checkoutResp.Transaction.GrandTotal != 7000 || checkoutResp.Transaction.Change != 3000 {
		t.Fatalf("grand=%d change=%d, want 7000/3000", checkoutResp.Transaction.GrandTotal, checkoutResp.Transaction.Change)
	}

	// Receipt is retrievable by invoice.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/transactions/"+checkoutResp.Transaction.Invoice, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("receipt status = %d, want 200", resp.StatusCode)
	}
	var receiptResp struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	decodeBody(t, resp, &receiptResp)
	if receiptResp.Transaction.Invoice != checkoutResp.Transaction.Invoice {
		t.Fatalf("receipt invoice = %s, want %s", receiptResp.Transaction.Invoice, checkoutResp.Transaction.Invoice)
	}

	// An empty cart cannot be checked out again.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout", token, domain.CheckoutRequest{Cash: 10000})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty cart checkout status = %d, want 422", resp.StatusCode)
	}
}

func TestPaymentCallbackTokenGate(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "cashier", "cashier123").AccessToken

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/cart", token, domain.AddToCartRequest{
		ProductID: "prd-kopi-01",
		Qty:       1,
	})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout", token, domain.CheckoutRequest{Cash: 5000})
	var checkoutResp domain.CheckoutResponse
	decodeBody(t, resp, &checkoutResp)

	callback := domain.PaymentCallbackRequest{
		Invoice:   checkoutResp.Transaction.Invoice,
		Status:    "failed",
		Reference: "CB-HTTP-1",
	}
	raw, _ := json.Marshal(callback)

	// Missing and wrong tokens are both rejected.
	for _, wrongToken := range []string{"", "not-the-token"} {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/payments/callback", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if wrongToken != "" {
			req.Header.Set("X-Callback-Token", wrongToken)
		}
		got, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("callback request: %v", err)
		}
		got.Body.Close()
		if got.StatusCode != http.StatusForbidden {
			t.Fatalf("callback with token %q status = %d, want 403", wrongToken, got.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/payments/callback", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Callback-Token", testCallbackToken)
	got, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Fatalf("callback status = %d, want 200", got.StatusCode)
	}
	var callbackResp struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	decodeBody(t, got, &callbackResp)
	if callbackResp.Transaction.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", callbackResp.Transaction.PaymentStatus)
	}
}

func TestLoginRateLimit(t *testing.T) {
	server := newTestServer(t)

	var lastStatus int
	for i := 0; i < 6; i++ {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login", "", domain.LoginRequest{
			Username: "admin",
			Password: fmt.Sprintf("bad-password-%d", i),
		})
		resp.Body.Close()
		lastStatus = resp.StatusCode
	}
	if lastStatus != http.StatusTooManyRequests {
		t.Fatalf("sixth login attempt status = %d, want 429", lastStatus)
	}
}

func TestCreateCashierAndLogin(t *testing.T) {
	server := newTestServer(t)
	adminToken := login(t, server, "admin", "admin123").AccessToken

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/users/cashiers", adminToken, domain.CashierCreateRequest{
		Username: "kasir2",
		Password: "rahasia-kasir",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create cashier status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	created := login(t, server, "kasir2", "rahasia-kasir")
	if created.Role != "cashier" {
		t.Fatalf("new cashier role = %s, want cashier", created.Role)
	}

	// Short usernames are rejected.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/users/cashiers", adminToken, domain.CashierCreateRequest{
		Username: "ab",
		Password: "rahasia-kasir",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short username status = %d, want 400", resp.StatusCode)
	}
}

func TestProfitReportRequiresAdmin(t *testing.T) {
	server := newTestServer(t)
	cashierToken := login(t, server, "cashier", "cashier123").AccessToken
	adminToken := login(t, server, "admin", "admin123").AccessToken

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/reports/profit", cashierToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cashier on profit report status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/reports/profit", adminToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin on profit report status = %d, want 200", resp.StatusCode)
	}
}
