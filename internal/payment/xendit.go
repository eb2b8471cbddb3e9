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

// XenditGateway creates a hosted invoice and returns its payment URL. The
// charge stays pending until the Xendit webhook flips the payment status.
type XenditGateway struct {
	httpClient *http.Client
	baseURL    string
}

type xenditInvoiceRequest struct {
	ExternalID  string `json:"external_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type xenditInvoiceResponse struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
}

func (g XenditGateway) CreateCharge(ctx context.Context, tx domain.Transaction, setting domain.PaymentSetting) (*ChargeResult, error) {
	payload := xenditInvoiceRequest{
		ExternalID:  tx.Invoice,
		Amount:      tx.GrandTotal,
		Description: "Pembayaran " + tx.Invoice,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(setting.XenditSecretKey+":")))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("xendit invoice: status %d: %s", resp.StatusCode, string(raw))
	}

	var invoice xenditInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, err
	}

	return &ChargeResult{
		Reference:  invoice.ID,
		PaymentURL: invoice.InvoiceURL,
	}, nil
}
