package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/store"
)

func TestCreateCheckoutDecrementsStockAndClearsCart(t *testing.T) {
	databaseURL := os.Getenv("TOKOPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TOKOPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prd-checkout-it-%d", stamp)
	barcode := fmt.Sprintf("899%d", stamp%1_000_000_0000)
	invoice := fmt.Sprintf("TRX-IT%08d", stamp%100_000_000)
	cashierID := fmt.Sprintf("kasir-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_profits WHERE transaction_id IN (SELECT id FROM transactions WHERE invoice = $1)`, invoice)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_details WHERE transaction_id IN (SELECT id FROM transactions WHERE invoice = $1)`, invoice)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE invoice = $1`, invoice)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE cashier_id = $1`, cashierID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, barcode, title, category, buy_price, sell_price, stock, created_at, updated_at)
		VALUES ($1, $2, 'Produk Checkout IT', 'grocery', 8000, 11000, 10, now(), now())
	`, productID, barcode); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.CreateCartLine(ctx, domain.CartLine{
		CashierID: cashierID,
		ProductID: productID,
		Qty:       3,
		Price:     11000,
	}); err != nil {
		t.Fatalf("create cart line: %v", err)
	}

	created, err := s.CreateCheckout(ctx, domain.Transaction{
		Invoice:       invoice,
		CashierID:     cashierID,
		Subtotal:      33000,
		GrandTotal:    33000,
		Cash:          50000,
		Change:        17000,
		PaymentMethod: domain.GatewayCash,
		PaymentStatus: domain.PaymentStatusPaid,
		Details: []domain.TransactionDetail{
			{ProductID: productID, Qty: 3, Price: 33000},
		},
	}, []domain.ProfitRecord{{Total: 9000}})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if created.Details[0].ProductTitle != "Produk Checkout IT" {
		t.Fatalf("detail title = %s", created.Details[0].ProductTitle)
	}

	product, err := s.GetProductByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 7 {
		t.Fatalf("stock after checkout = %d, want 7", product.Stock)
	}

	lines, err := s.ListActiveCartLines(ctx, cashierID)
	if err != nil {
		t.Fatalf("list cart lines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("cart should be cleared, got %d lines", len(lines))
	}

	// A duplicate invoice trips the unique index, not a generic error.
	_, err = s.CreateCheckout(ctx, domain.Transaction{
		Invoice:       invoice,
		CashierID:     cashierID,
		PaymentMethod: domain.GatewayCash,
		PaymentStatus: domain.PaymentStatusPaid,
		Details: []domain.TransactionDetail{
			{ProductID: productID, Qty: 1, Price: 11000},
		},
	}, nil)
	if !errors.Is(err, store.ErrInvoiceCollision) {
		t.Fatalf("duplicate invoice error = %v, want %v", err, store.ErrInvoiceCollision)
	}

	fetched, err := s.FindTransactionByInvoice(ctx, invoice)
	if err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	if fetched.GrandTotal != 33000 || len(fetched.Details) != 1 {
		t.Fatalf("fetched transaction = %+v", fetched)
	}
}
