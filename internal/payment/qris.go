package payment

import (
	"context"

	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/qris"
)

// QrisGateway rewrites the merchant's stored static QRIS string into a
// dynamic payload carrying the transaction's grand total. No network call
// is involved; the customer scans the result directly.
type QrisGateway struct{}

func (QrisGateway) CreateCharge(_ context.Context, tx domain.Transaction, setting domain.PaymentSetting) (*ChargeResult, error) {
	payload, err := qris.MakeDynamic(setting.QrisString, tx.GrandTotal)
	if err != nil {
		return nil, err
	}
	return &ChargeResult{
		Reference:  tx.Invoice,
		PaymentURL: payload,
	}, nil
}
