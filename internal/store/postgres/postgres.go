package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/store"
	"tokopos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	needle := strings.TrimSpace(search)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, barcode, title, category, buy_price, sell_price, stock
		FROM products
		WHERE $1 = '' OR title ILIKE '%' || $1 || '%' OR barcode ILIKE '%' || $1 || '%'
		ORDER BY category, title
	`, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Title, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, barcode, title, category, buy_price, sell_price, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Barcode, &p.Title, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, barcode, title, category, buy_price, sell_price, stock
		FROM products
		WHERE barcode = $1
	`, barcode).Scan(&p.ID, &p.Barcode, &p.Title, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, barcode, title, category, buy_price, sell_price, stock
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Title, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone, '')
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone, '')
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListActiveCartLines(ctx context.Context, cashierID string) ([]domain.CartLine, error) {
	return s.queryCartLines(ctx, `
		SELECT id, cashier_id, product_id, qty, price, COALESCE(hold_id, ''), COALESCE(hold_label, ''), held_at, created_at
		FROM cart_lines
		WHERE cashier_id = $1 AND hold_id IS NULL
		ORDER BY created_at, id
	`, cashierID)
}

func (s *Store) ListHeldCartLines(ctx context.Context, cashierID string) ([]domain.CartLine, error) {
	return s.queryCartLines(ctx, `
		SELECT id, cashier_id, product_id, qty, price, COALESCE(hold_id, ''), COALESCE(hold_label, ''), held_at, created_at
		FROM cart_lines
		WHERE cashier_id = $1 AND hold_id IS NOT NULL
		ORDER BY created_at, id
	`, cashierID)
}

func (s *Store) GetCartLine(ctx context.Context, cashierID string, lineID string) (*domain.CartLine, error) {
	lines, err := s.queryCartLines(ctx, `
		SELECT id, cashier_id, product_id, qty, price, COALESCE(hold_id, ''), COALESCE(hold_label, ''), held_at, created_at
		FROM cart_lines
		WHERE cashier_id = $1 AND id = $2
	`, cashierID, lineID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, store.ErrNotFound
	}
	line := lines[0]
	return &line, nil
}

func (s *Store) FindActiveCartLineByProduct(ctx context.Context, cashierID string, productID string) (*domain.CartLine, error) {
	lines, err := s.queryCartLines(ctx, `
		SELECT id, cashier_id, product_id, qty, price, COALESCE(hold_id, ''), COALESCE(hold_label, ''), held_at, created_at
		FROM cart_lines
		WHERE cashier_id = $1 AND product_id = $2 AND hold_id IS NULL
		LIMIT 1
	`, cashierID, productID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, store.ErrNotFound
	}
	line := lines[0]
	return &line, nil
}

func (s *Store) CreateCartLine(ctx context.Context, line domain.CartLine) (*domain.CartLine, error) {
	if line.CashierID == "" || line.ProductID == "" || line.Qty < 1 {
		return nil, store.ErrInvalidRequest
	}
	if line.ID == "" {
		line.ID = xid.New("crt")
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_lines (id, cashier_id, product_id, qty, price, hold_id, hold_label, held_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, line.ID, line.CashierID, line.ProductID, line.Qty, line.Price,
		nullIfEmpty(line.HoldID), nullIfEmpty(line.HoldLabel), nullTime(line.HeldAt), line.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := line
	return &created, nil
}

func (s *Store) UpdateCartLineQty(ctx context.Context, cashierID string, lineID string, qty int) (*domain.CartLine, error) {
	if qty < 1 {
		return nil, store.ErrInvalidRequest
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_lines
		SET qty = $3
		WHERE cashier_id = $1 AND id = $2 AND hold_id IS NULL
	`, cashierID, lineID, qty)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetCartLine(ctx, cashierID, lineID)
}

func (s *Store) DeleteCartLine(ctx context.Context, cashierID string, lineID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE cashier_id = $1 AND id = $2 AND hold_id IS NULL
	`, cashierID, lineID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) HoldActiveCartLines(ctx context.Context, cashierID string, holdID string, label string) (int, error) {
	if holdID == "" {
		return 0, store.ErrInvalidRequest
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_lines
		SET hold_id = $2, hold_label = $3, held_at = now()
		WHERE cashier_id = $1 AND hold_id IS NULL
	`, cashierID, holdID, label)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, store.ErrEmptyCart
	}
	return int(affected), nil
}

func (s *Store) ResumeHeldCartLines(ctx context.Context, cashierID string, holdID string) (int, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var activeCount int
	err = pgTx.QueryRowContext(ctx, `
		SELECT count(*) FROM cart_lines
		WHERE cashier_id = $1 AND hold_id IS NULL
	`, cashierID).Scan(&activeCount)
	if err != nil {
		return 0, err
	}
	if activeCount > 0 {
		return 0, store.ErrActiveCartNotEmpty
	}

	res, err := pgTx.ExecContext(ctx, `
		UPDATE cart_lines
		SET hold_id = NULL, hold_label = NULL, held_at = NULL
		WHERE cashier_id = $1 AND hold_id = $2
	`, cashierID, holdID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, store.ErrHoldNotFound
	}

	if err := pgTx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *Store) DeleteHeldCartLines(ctx context.Context, cashierID string, holdID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE cashier_id = $1 AND hold_id = $2
	`, cashierID, holdID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, store.ErrHoldNotFound
	}
	return int(affected), nil
}

func (s *Store) CreateCheckout(ctx context.Context, tx domain.Transaction, profits []domain.ProfitRecord) (*domain.Transaction, error) {
	if tx.Invoice == "" || tx.CashierID == "" {
		return nil, store.ErrInvalidRequest
	}
	if len(tx.Details) == 0 {
		return nil, store.ErrEmptyCart
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	productIDs := uniqueProductIDs(tx.Details)
	if len(productIDs) == 0 {
		return nil, store.ErrInvalidRequest
	}

	// Stock rows lock until commit so concurrent checkouts on the same
	// products serialize. Re-check after the lock, not before.
	productRows, err := pgTx.QueryContext(ctx, `
		SELECT id, title, stock
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`, productIDs)
	if err != nil {
		return nil, err
	}
	type productState struct {
		title string
		stock int
	}
	productMap := make(map[string]productState, len(productIDs))
	for productRows.Next() {
		var id, title string
		var stock int
		if err := productRows.Scan(&id, &title, &stock); err != nil {
			_ = productRows.Close()
			return nil, err
		}
		productMap[id] = productState{title: title, stock: stock}
	}
	if err := productRows.Err(); err != nil {
		_ = productRows.Close()
		return nil, err
	}
	_ = productRows.Close()

	needed := make(map[string]int, len(productIDs))
	for _, detail := range tx.Details {
		if detail.Qty < 1 {
			return nil, store.ErrInvalidRequest
		}
		needed[detail.ProductID] += detail.Qty
	}
	for productID, qty := range needed {
		product, exists := productMap[productID]
		if !exists {
			return nil, fmt.Errorf("produk %s tidak ditemukan: %w", productID, store.ErrNotFound)
		}
		if product.stock == 0 {
			return nil, fmt.Errorf("%s: %w", product.title, store.ErrOutOfStock)
		}
		if product.stock < qty {
			return nil, fmt.Errorf("%s: %w", product.title, store.ErrInsufficientStock)
		}
	}

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, cashier_id, customer_id, invoice, discount_type, discount_value, discount,
			tax_type, tax_value, tax, subtotal, grand_total, cash, change,
			payment_method, payment_status, payment_reference, payment_url, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`, tx.ID, tx.CashierID, nullIfEmpty(tx.CustomerID), tx.Invoice, tx.DiscountType, tx.DiscountValue, tx.Discount,
		tx.TaxType, tx.TaxValue, tx.Tax, tx.Subtotal, tx.GrandTotal, tx.Cash, tx.Change,
		tx.PaymentMethod, tx.PaymentStatus, nullIfEmpty(tx.PaymentReference), nullIfEmpty(tx.PaymentURL), tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvoiceCollision
		}
		return nil, err
	}

	for i := range tx.Details {
		if tx.Details[i].ID == "" {
			tx.Details[i].ID = xid.New("dtl")
		}
		tx.Details[i].TransactionID = tx.ID
		if product, ok := productMap[tx.Details[i].ProductID]; ok {
			tx.Details[i].ProductTitle = product.title
		}
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_details (id, transaction_id, product_id, product_title, qty, price)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, tx.Details[i].ID, tx.ID, tx.Details[i].ProductID, tx.Details[i].ProductTitle, tx.Details[i].Qty, tx.Details[i].Price)
		if err != nil {
			return nil, err
		}
	}

	for _, profit := range profits {
		if profit.ID == "" {
			profit.ID = xid.New("prf")
		}
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_profits (id, transaction_id, total)
			VALUES ($1,$2,$3)
		`, profit.ID, tx.ID, profit.Total)
		if err != nil {
			return nil, err
		}
	}

	for productID, qty := range needed {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2
		`, qty, productID)
		if err != nil {
			return nil, err
		}
	}

	_, err = pgTx.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE cashier_id = $1 AND hold_id IS NULL
	`, tx.CashierID)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (s *Store) FindTransactionByInvoice(ctx context.Context, invoice string) (*domain.Transaction, error) {
	var tx domain.Transaction
	var customerID, paymentReference, paymentURL sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cashier_id, customer_id, invoice, discount_type, discount_value, discount,
			tax_type, tax_value, tax, subtotal, grand_total, cash, change,
			payment_method, payment_status, payment_reference, payment_url, created_at
		FROM transactions
		WHERE invoice = $1
	`, invoice).Scan(&tx.ID, &tx.CashierID, &customerID, &tx.Invoice, &tx.DiscountType, &tx.DiscountValue, &tx.Discount,
		&tx.TaxType, &tx.TaxValue, &tx.Tax, &tx.Subtotal, &tx.GrandTotal, &tx.Cash, &tx.Change,
		&tx.PaymentMethod, &tx.PaymentStatus, &paymentReference, &paymentURL, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	tx.CustomerID = customerID.String
	tx.PaymentReference = paymentReference.String
	tx.PaymentURL = paymentURL.String
	tx.CreatedAt = tx.CreatedAt.UTC()

	details, err := s.listTransactionDetails(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Details = details

	if tx.CustomerID != "" {
		customer, err := s.GetCustomerByID(ctx, tx.CustomerID)
		if err == nil {
			tx.Customer = customer
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionSummary, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.cashier_id, t.invoice, t.discount_type, t.discount_value, t.discount,
			t.tax_type, t.tax_value, t.tax, t.subtotal, t.grand_total, t.cash, t.change,
			t.payment_method, t.payment_status, t.created_at,
			COALESCE((SELECT sum(d.qty) FROM transaction_details d WHERE d.transaction_id = t.id), 0),
			COALESCE((SELECT sum(p.total) FROM transaction_profits p WHERE p.transaction_id = t.id), 0)
		FROM transactions t
		WHERE ($1 = '' OR t.invoice ILIKE '%' || $1 || '%')
			AND ($2 = '' OR t.cashier_id = $2)
			AND ($3::timestamptz IS NULL OR t.created_at >= $3)
			AND ($4::timestamptz IS NULL OR t.created_at < $4)
		ORDER BY t.created_at DESC, t.invoice DESC
		LIMIT $5
	`, strings.TrimSpace(filter.Invoice), filter.CashierID, nullTime(filter.StartDate), nullTime(filter.EndDate), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.TransactionSummary, 0, limit)
	for rows.Next() {
		var summary domain.TransactionSummary
		if err := rows.Scan(&summary.ID, &summary.CashierID, &summary.Invoice,
			&summary.DiscountType, &summary.DiscountValue, &summary.Discount,
			&summary.TaxType, &summary.TaxValue, &summary.Tax,
			&summary.Subtotal, &summary.GrandTotal, &summary.Cash, &summary.Change,
			&summary.PaymentMethod, &summary.PaymentStatus, &summary.CreatedAt,
			&summary.TotalItems, &summary.TotalProfit); err != nil {
			return nil, err
		}
		summary.CreatedAt = summary.CreatedAt.UTC()
		result = append(result, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) UpdatePaymentResult(ctx context.Context, invoice string, reference string, paymentURL string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET payment_reference = $2, payment_url = $3
		WHERE invoice = $1
	`, invoice, nullIfEmpty(reference), nullIfEmpty(paymentURL))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, invoice string, status string, reference string) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET payment_status = $2,
			payment_reference = COALESCE(NULLIF($3, ''), payment_reference)
		WHERE invoice = $1
	`, invoice, status, reference)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.FindTransactionByInvoice(ctx, invoice)
}

func (s *Store) GetPaymentSetting(ctx context.Context) (*domain.PaymentSetting, error) {
	var setting domain.PaymentSetting
	err := s.db.QueryRowContext(ctx, `
		SELECT default_gateway,
			midtrans_enabled, COALESCE(midtrans_server_key, ''), COALESCE(midtrans_client_key, ''), midtrans_production,
			xendit_enabled, COALESCE(xendit_secret_key, ''), COALESCE(xendit_public_key, ''), xendit_production,
			qris_enabled, COALESCE(qris_string, '')
		FROM payment_settings
		WHERE id = 1
	`).Scan(&setting.DefaultGateway,
		&setting.MidtransEnabled, &setting.MidtransServerKey, &setting.MidtransClientKey, &setting.MidtransProduction,
		&setting.XenditEnabled, &setting.XenditSecretKey, &setting.XenditPublicKey, &setting.XenditProduction,
		&setting.QrisEnabled, &setting.QrisString)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.PaymentSetting{DefaultGateway: domain.GatewayCash}, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (s *Store) UpdatePaymentSetting(ctx context.Context, setting domain.PaymentSetting) (*domain.PaymentSetting, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_settings (
			id, default_gateway,
			midtrans_enabled, midtrans_server_key, midtrans_client_key, midtrans_production,
			xendit_enabled, xendit_secret_key, xendit_public_key, xendit_production,
			qris_enabled, qris_string, updated_at
		)
		VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
		ON CONFLICT (id) DO UPDATE SET
			default_gateway = EXCLUDED.default_gateway,
			midtrans_enabled = EXCLUDED.midtrans_enabled,
			midtrans_server_key = EXCLUDED.midtrans_server_key,
			midtrans_client_key = EXCLUDED.midtrans_client_key,
			midtrans_production = EXCLUDED.midtrans_production,
			xendit_enabled = EXCLUDED.xendit_enabled,
			xendit_secret_key = EXCLUDED.xendit_secret_key,
			xendit_public_key = EXCLUDED.xendit_public_key,
			xendit_production = EXCLUDED.xendit_production,
			qris_enabled = EXCLUDED.qris_enabled,
			qris_string = EXCLUDED.qris_string,
			updated_at = now()
	`, setting.DefaultGateway,
		setting.MidtransEnabled, nullIfEmpty(setting.MidtransServerKey), nullIfEmpty(setting.MidtransClientKey), setting.MidtransProduction,
		setting.XenditEnabled, nullIfEmpty(setting.XenditSecretKey), nullIfEmpty(setting.XenditPublicKey), setting.XenditProduction,
		setting.QrisEnabled, nullIfEmpty(setting.QrisString))
	if err != nil {
		return nil, err
	}
	updated := setting
	return &updated, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action,
			&entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidRequest
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if password == "" {
		return store.ErrInvalidRequest
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) queryCartLines(ctx context.Context, query string, args ...any) ([]domain.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0, 16)
	for rows.Next() {
		var line domain.CartLine
		var heldAt sql.NullTime
		if err := rows.Scan(&line.ID, &line.CashierID, &line.ProductID, &line.Qty, &line.Price,
			&line.HoldID, &line.HoldLabel, &heldAt, &line.CreatedAt); err != nil {
			return nil, err
		}
		if heldAt.Valid {
			at := heldAt.Time.UTC()
			line.HeldAt = &at
		}
		line.CreatedAt = line.CreatedAt.UTC()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) listTransactionDetails(ctx context.Context, transactionID string) ([]domain.TransactionDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, COALESCE(product_title, ''), qty, price
		FROM transaction_details
		WHERE transaction_id = $1
		ORDER BY id
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.TransactionDetail, 0, 8)
	for rows.Next() {
		var detail domain.TransactionDetail
		if err := rows.Scan(&detail.ID, &detail.TransactionID, &detail.ProductID, &detail.ProductTitle, &detail.Qty, &detail.Price); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func uniqueProductIDs(details []domain.TransactionDetail) []string {
	if len(details) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(details))
	for _, detail := range details {
		if detail.ProductID == "" {
			continue
		}
		set[detail.ProductID] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
