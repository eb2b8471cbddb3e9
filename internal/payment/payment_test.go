package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tokopos/backend/internal/domain"
)

const testStaticQris = "0002010102112608ABCDEFGH5802ID5904TOKO6304ABCD"

func TestChargeUnsupportedGateway(t *testing.T) {
	m := NewManager()

	_, err := m.Charge(context.Background(), "transfer", domain.Transaction{}, domain.PaymentSetting{})
	if !errors.Is(err, ErrUnsupportedGateway) {
		t.Fatalf("error = %v, want %v", err, ErrUnsupportedGateway)
	}

	// Cash has no gateway leg at all.
	_, err = m.Charge(context.Background(), domain.GatewayCash, domain.Transaction{}, domain.PaymentSetting{})
	if !errors.Is(err, ErrUnsupportedGateway) {
		t.Fatalf("cash error = %v, want %v", err, ErrUnsupportedGateway)
	}
}

func TestChargeRejectsUnconfiguredGateway(t *testing.T) {
	m := NewManager()

	for _, gateway := range []string{domain.GatewayQris, domain.GatewayMidtrans, domain.GatewayXendit} {
		_, err := m.Charge(context.Background(), gateway, domain.Transaction{}, domain.PaymentSetting{})
		if !errors.Is(err, ErrGatewayNotReady) {
			t.Fatalf("%s error = %v, want %v", gateway, err, ErrGatewayNotReady)
		}
	}
}

func TestQrisCharge(t *testing.T) {
	m := NewManager()
	tx := domain.Transaction{Invoice: "TRX-TESTQRIS01", GrandTotal: 26400}
	setting := domain.PaymentSetting{QrisEnabled: true, QrisString: testStaticQris}

	result, err := m.Charge(context.Background(), domain.GatewayQris, tx, setting)
	if err != nil {
		t.Fatalf("qris charge failed: %v", err)
	}
	if result.Reference != tx.Invoice {
		t.Fatalf("reference = %s, want invoice", result.Reference)
	}
	if !strings.Contains(result.PaymentURL, "010212") || !strings.Contains(result.PaymentURL, "540526400") {
		t.Fatalf("payload missing dynamic markers: %s", result.PaymentURL)
	}
}

func TestMidtransCharge(t *testing.T) {
	var gotAuth string
	var gotOrderID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snap/v1/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			TransactionDetails struct {
				OrderID     string `json:"order_id"`
				GrossAmount int64  `json:"gross_amount"`
			} `json:"transaction_details"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode snap request: %v", err)
		}
		gotOrderID = payload.TransactionDetails.OrderID

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"token":        "snap-token-1",
			"redirect_url": "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token-1",
		})
	}))
	defer server.Close()

	m := NewManager(WithMidtransBaseURL(server.URL))
	tx := domain.Transaction{Invoice: "TRX-MIDTRANS01", GrandTotal: 50000}
	setting := domain.PaymentSetting{
		MidtransEnabled:   true,
		MidtransServerKey: "SB-Mid-server-abc",
		MidtransClientKey: "SB-Mid-client-abc",
	}

	result, err := m.Charge(context.Background(), domain.GatewayMidtrans, tx, setting)
	if err != nil {
		t.Fatalf("midtrans charge failed: %v", err)
	}
	if result.Reference != "snap-token-1" || !strings.Contains(result.PaymentURL, "redirection") {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotOrderID != tx.Invoice {
		t.Fatalf("order_id = %s, want %s", gotOrderID, tx.Invoice)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("SB-Mid-server-abc:"))
	if gotAuth != wantAuth {
		t.Fatalf("auth header = %s, want %s", gotAuth, wantAuth)
	}
}

func TestXenditCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/invoices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			ExternalID string `json:"external_id"`
			Amount     int64  `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode invoice request: %v", err)
		}
		if payload.ExternalID != "TRX-XENDIT0001" || payload.Amount != 75000 {
			t.Errorf("unexpected payload: %+v", payload)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":          "inv-xnd-1",
			"invoice_url": "https://checkout.xendit.co/web/inv-xnd-1",
		})
	}))
	defer server.Close()

	m := NewManager(WithXenditBaseURL(server.URL))
	tx := domain.Transaction{Invoice: "TRX-XENDIT0001", GrandTotal: 75000}
	setting := domain.PaymentSetting{
		XenditEnabled:   true,
		XenditSecretKey: "xnd_development_abc",
		XenditPublicKey: "xnd_public_abc",
	}

	result, err := m.Charge(context.Background(), domain.GatewayXendit, tx, setting)
	if err != nil {
		t.Fatalf("xendit charge failed: %v", err)
	}
	if result.Reference != "inv-xnd-1" || result.PaymentURL != "https://checkout.xendit.co/web/inv-xnd-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMidtransChargeSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error_messages":["unauthorized"]}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	m := NewManager(WithMidtransBaseURL(server.URL))
	setting := domain.PaymentSetting{
		MidtransEnabled:   true,
		MidtransServerKey: "bad-key",
		MidtransClientKey: "bad-key",
	}

	_, err := m.Charge(context.Background(), domain.GatewayMidtrans, domain.Transaction{Invoice: "TRX-ERR0000001", GrandTotal: 100}, setting)
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected status 401 error, got %v", err)
	}
}
