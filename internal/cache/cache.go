package cache

import (
	"context"
	"time"

	"tokopos/backend/internal/domain"
)

// ReceiptCache holds finalized transactions keyed by invoice for the
// print/receipt lookup path. Entries are deleted when a payment callback
// changes the transaction's status.
type ReceiptCache interface {
	Get(ctx context.Context, invoice string) (*domain.Transaction, bool, error)
	Set(ctx context.Context, invoice string, value *domain.Transaction, ttl time.Duration) error
	Delete(ctx context.Context, invoice string) error
}

type NoopReceiptCache struct{}

func (NoopReceiptCache) Get(_ context.Context, _ string) (*domain.Transaction, bool, error) {
	return nil, false, nil
}

func (NoopReceiptCache) Set(_ context.Context, _ string, _ *domain.Transaction, _ time.Duration) error {
	return nil
}

func (NoopReceiptCache) Delete(_ context.Context, _ string) error {
	return nil
}
