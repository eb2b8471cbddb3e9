// Package payment dispatches post-checkout charges to the configured
// payment gateway. Gateways run after the transaction has committed; a
// gateway failure never rolls the sale back, it only leaves the payment
// side unfinished for the caller to surface.
package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tokopos/backend/internal/domain"
)

var (
	ErrGatewayNotReady    = errors.New("gateway pembayaran belum dikonfigurasi")
	ErrUnsupportedGateway = errors.New("gateway pembayaran tidak didukung")
)

// ChargeResult is what a gateway hands back for a committed transaction.
// Reference identifies the charge on the gateway side. PaymentURL is the
// artifact the cashier presents to the customer: a redirect URL for
// hosted-page gateways, the dynamic QR payload for QRIS.
type ChargeResult struct {
	Reference  string
	PaymentURL string
}

type Gateway interface {
	CreateCharge(ctx context.Context, tx domain.Transaction, setting domain.PaymentSetting) (*ChargeResult, error)
}

// Manager routes a charge to the gateway named on the transaction. Base
// URLs are fields so tests can point the HTTP gateways at a local server.
type Manager struct {
	httpClient      *http.Client
	midtransBaseURL string
	xenditBaseURL   string
}

type Option func(*Manager)

func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.httpClient = client }
}

func WithMidtransBaseURL(baseURL string) Option {
	return func(m *Manager) { m.midtransBaseURL = baseURL }
}

func WithXenditBaseURL(baseURL string) Option {
	return func(m *Manager) { m.xenditBaseURL = baseURL }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		httpClient:    &http.Client{Timeout: 12 * time.Second},
		xenditBaseURL: "https://api.xendit.co",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Charge validates gateway readiness against the stored settings and runs
// the matching gateway. Cash has no gateway leg and is rejected here.
func (m *Manager) Charge(ctx context.Context, gateway string, tx domain.Transaction, setting domain.PaymentSetting) (*ChargeResult, error) {
	switch gateway {
	case domain.GatewayQris:
		if !setting.IsGatewayReady(domain.GatewayQris) {
			return nil, ErrGatewayNotReady
		}
		return QrisGateway{}.CreateCharge(ctx, tx, setting)
	case domain.GatewayMidtrans:
		if !setting.IsGatewayReady(domain.GatewayMidtrans) {
			return nil, ErrGatewayNotReady
		}
		g := MidtransGateway{httpClient: m.httpClient, baseURL: m.midtransBaseURL}
		return g.CreateCharge(ctx, tx, setting)
	case domain.GatewayXendit:
		if !setting.IsGatewayReady(domain.GatewayXendit) {
			return nil, ErrGatewayNotReady
		}
		g := XenditGateway{httpClient: m.httpClient, baseURL: m.xenditBaseURL}
		return g.CreateCharge(ctx, tx, setting)
	default:
		return nil, ErrUnsupportedGateway
	}
}
