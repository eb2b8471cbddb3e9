package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"tokopos/backend/internal/domain"
)

const (
	midtransSandboxBaseURL    = "https://app.sandbox.midtrans.com"
	midtransProductionBaseURL = "https://app.midtrans.com"
)

// MidtransGateway creates a Snap payment page for the transaction and
// returns its redirect URL. The charge stays pending until the Midtrans
// notification callback flips the payment status.
type MidtransGateway struct {
	httpClient *http.Client
	baseURL    string
}

type midtransSnapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
}

type midtransSnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

func (g MidtransGateway) CreateCharge(ctx context.Context, tx domain.Transaction, setting domain.PaymentSetting) (*ChargeResult, error) {
	baseURL := g.baseURL
	if baseURL == "" {
		baseURL = midtransSandboxBaseURL
		if setting.MidtransProduction {
			baseURL = midtransProductionBaseURL
		}
	}

	var payload midtransSnapRequest
	payload.TransactionDetails.OrderID = tx.Invoice
	payload.TransactionDetails.GrossAmount = tx.GrandTotal

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(setting.MidtransServerKey+":")))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("midtrans snap: status %d: %s", resp.StatusCode, string(raw))
	}

	var snap midtransSnapResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, err
	}

	return &ChargeResult{
		Reference:  snap.Token,
		PaymentURL: snap.RedirectURL,
	}, nil
}
