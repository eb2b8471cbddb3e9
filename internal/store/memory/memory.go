package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/store"
	"tokopos/backend/internal/xid"
)

type Store struct {
	mu                    sync.RWMutex
	products              map[string]domain.Product
	customers             map[string]domain.Customer
	cartLines             map[string]domain.CartLine
	transactionsByInvoice map[string]*domain.Transaction
	profitsByTransaction  map[string][]domain.ProfitRecord
	paymentSetting        domain.PaymentSetting
	auditLogs             []domain.AuditLog
	usersByUsername       map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	products := []domain.Product{
		{ID: "prd-mie-01", Barcode: "8991002101234", Title: "Mie Goreng Instan", Category: "grocery", BuyPrice: 2700, SellPrice: 3500, Stock: 120},
		{ID: "prd-telur-01", Barcode: "8991002102345", Title: "Telur 10 Butir", Category: "grocery", BuyPrice: 23000, SellPrice: 26500, Stock: 60},
		{ID: "prd-susu-01", Barcode: "8991002103456", Title: "Susu UHT 1L", Category: "dairy", BuyPrice: 14500, SellPrice: 18900, Stock: 48},
		{ID: "prd-roti-01", Barcode: "8991002104567", Title: "Roti Tawar", Category: "bakery", BuyPrice: 13000, SellPrice: 17800, Stock: 30},
		{ID: "prd-kopi-01", Barcode: "8991002105678", Title: "Kopi Sachet", Category: "beverage", BuyPrice: 1800, SellPrice: 2600, Stock: 200},
		{ID: "prd-gula-01", Barcode: "8991002106789", Title: "Gula 1kg", Category: "grocery", BuyPrice: 15500, SellPrice: 17400, Stock: 80},
		{ID: "prd-teh-01", Barcode: "8991002107890", Title: "Teh Celup", Category: "beverage", BuyPrice: 7400, SellPrice: 9800, Stock: 64},
		{ID: "prd-air-01", Barcode: "8991002108901", Title: "Air Mineral 600ml", Category: "beverage", BuyPrice: 3200, SellPrice: 3900, Stock: 240},
		{ID: "prd-keripik-01", Barcode: "8991002109012", Title: "Keripik Singkong", Category: "snack", BuyPrice: 8200, SellPrice: 12800, Stock: 45},
		{ID: "prd-coklat-01", Barcode: "8991002110123", Title: "Coklat Batang", Category: "snack", BuyPrice: 5700, SellPrice: 8600, Stock: 72},
		{ID: "prd-sabun-01", Barcode: "8991002111234", Title: "Sabun Mandi", Category: "household", BuyPrice: 5100, SellPrice: 7400, Stock: 90},
		{ID: "prd-shampoo-01", Barcode: "8991002112345", Title: "Shampoo Sachet", Category: "household", BuyPrice: 2200, SellPrice: 3200, Stock: 150},
	}

	customers := []domain.Customer{
		{ID: "cst-umum", Name: "Pelanggan Umum", Phone: ""},
		{ID: "cst-budi", Name: "Budi Santoso", Phone: "081234567890"},
		{ID: "cst-sari", Name: "Sari Lestari", Phone: "081298765432"},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	return &Store{
		products:              productMap,
		customers:             customerMap,
		cartLines:             make(map[string]domain.CartLine),
		transactionsByInvoice: make(map[string]*domain.Transaction),
		profitsByTransaction:  make(map[string][]domain.ProfitRecord),
		paymentSetting:        domain.PaymentSetting{DefaultGateway: domain.GatewayCash},
		auditLogs:             make([]domain.AuditLog, 0, 128),
		usersByUsername:       seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, search string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Barcode), needle) {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Title, b.Title)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Barcode == barcode {
			copyProduct := p
			return &copyProduct, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) ListActiveCartLines(_ context.Context, cashierID string) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectCartLines(cashierID, func(l domain.CartLine) bool { return l.Active() }), nil
}

func (s *Store) ListHeldCartLines(_ context.Context, cashierID string) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectCartLines(cashierID, func(l domain.CartLine) bool { return !l.Active() }), nil
}

func (s *Store) GetCartLine(_ context.Context, cashierID string, lineID string) (*domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	line, exists := s.cartLines[lineID]
	if !exists || line.CashierID != cashierID {
		return nil, store.ErrNotFound
	}
	copyLine := cloneCartLine(line)
	return &copyLine, nil
}

func (s *Store) FindActiveCartLineByProduct(_ context.Context, cashierID string, productID string) (*domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, line := range s.cartLines {
		if line.CashierID == cashierID && line.ProductID == productID && line.Active() {
			copyLine := cloneCartLine(line)
			return &copyLine, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateCartLine(_ context.Context, line domain.CartLine) (*domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if line.CashierID == "" || line.ProductID == "" || line.Qty < 1 {
		return nil, store.ErrInvalidRequest
	}
	if _, exists := s.products[line.ProductID]; !exists {
		return nil, store.ErrNotFound
	}
	if line.ID == "" {
		line.ID = xid.New("crt")
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}
	s.cartLines[line.ID] = line
	created := cloneCartLine(line)
	return &created, nil
}

func (s *Store) UpdateCartLineQty(_ context.Context, cashierID string, lineID string, qty int) (*domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 1 {
		return nil, store.ErrInvalidRequest
	}
	line, exists := s.cartLines[lineID]
	if !exists || line.CashierID != cashierID || !line.Active() {
		return nil, store.ErrNotFound
	}
	line.Qty = qty
	s.cartLines[lineID] = line
	updated := cloneCartLine(line)
	return &updated, nil
}

func (s *Store) DeleteCartLine(_ context.Context, cashierID string, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, exists := s.cartLines[lineID]
	if !exists || line.CashierID != cashierID || !line.Active() {
		return store.ErrNotFound
	}
	delete(s.cartLines, lineID)
	return nil
}

func (s *Store) HoldActiveCartLines(_ context.Context, cashierID string, holdID string, label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if holdID == "" {
		return 0, store.ErrInvalidRequest
	}
	heldAt := time.Now().UTC()
	count := 0
	for id, line := range s.cartLines {
		if line.CashierID != cashierID || !line.Active() {
			continue
		}
		line.HoldID = holdID
		line.HoldLabel = label
		at := heldAt
		line.HeldAt = &at
		s.cartLines[id] = line
		count++
	}
	if count == 0 {
		return 0, store.ErrEmptyCart
	}
	return count, nil
}

func (s *Store) ResumeHeldCartLines(_ context.Context, cashierID string, holdID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.cartLines {
		if line.CashierID == cashierID && line.Active() {
			return 0, store.ErrActiveCartNotEmpty
		}
	}

	count := 0
	for id, line := range s.cartLines {
		if line.CashierID != cashierID || line.HoldID != holdID {
			continue
		}
		line.HoldID = ""
		line.HoldLabel = ""
		line.HeldAt = nil
		s.cartLines[id] = line
		count++
	}
	if count == 0 {
		return 0, store.ErrHoldNotFound
	}
	return count, nil
}

func (s *Store) DeleteHeldCartLines(_ context.Context, cashierID string, holdID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, line := range s.cartLines {
		if line.CashierID != cashierID || line.HoldID != holdID {
			continue
		}
		delete(s.cartLines, id)
		count++
	}
	if count == 0 {
		return 0, store.ErrHoldNotFound
	}
	return count, nil
}

func (s *Store) CreateCheckout(_ context.Context, tx domain.Transaction, profits []domain.ProfitRecord) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Invoice == "" || tx.CashierID == "" {
		return nil, store.ErrInvalidRequest
	}
	if len(tx.Details) == 0 {
		return nil, store.ErrEmptyCart
	}
	if _, exists := s.transactionsByInvoice[tx.Invoice]; exists {
		return nil, store.ErrInvoiceCollision
	}

	// Stock re-check against current state before any mutation. The single
	// store mutex is the memory-mode equivalent of the row lock the postgres
	// implementation takes.
	for _, detail := range tx.Details {
		product, exists := s.products[detail.ProductID]
		if !exists {
			return nil, fmt.Errorf("produk %s tidak ditemukan: %w", detail.ProductID, store.ErrNotFound)
		}
		if product.Stock == 0 {
			return nil, fmt.Errorf("%s: %w", product.Title, store.ErrOutOfStock)
		}
		if product.Stock < detail.Qty {
			return nil, fmt.Errorf("%s: %w", product.Title, store.ErrInsufficientStock)
		}
	}

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	for i := range tx.Details {
		if tx.Details[i].ID == "" {
			tx.Details[i].ID = xid.New("dtl")
		}
		tx.Details[i].TransactionID = tx.ID
		if title, ok := s.products[tx.Details[i].ProductID]; ok {
			tx.Details[i].ProductTitle = title.Title
		}
	}

	for _, detail := range tx.Details {
		product := s.products[detail.ProductID]
		product.Stock -= detail.Qty
		s.products[detail.ProductID] = product
	}

	for id, line := range s.cartLines {
		if line.CashierID == tx.CashierID && line.Active() {
			delete(s.cartLines, id)
		}
	}

	stored := make([]domain.ProfitRecord, 0, len(profits))
	for _, profit := range profits {
		if profit.ID == "" {
			profit.ID = xid.New("prf")
		}
		profit.TransactionID = tx.ID
		stored = append(stored, profit)
	}
	s.profitsByTransaction[tx.ID] = stored

	txCopy := cloneTransaction(&tx)
	s.transactionsByInvoice[tx.Invoice] = txCopy
	return cloneTransaction(txCopy), nil
}

func (s *Store) FindTransactionByInvoice(_ context.Context, invoice string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactionsByInvoice[invoice]
	if !exists {
		return nil, store.ErrNotFound
	}
	result := cloneTransaction(tx)
	if tx.CustomerID != "" {
		if customer, ok := s.customers[tx.CustomerID]; ok {
			copyCustomer := customer
			result.Customer = &copyCustomer
		}
	}
	return result, nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.TransactionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToUpper(strings.TrimSpace(filter.Invoice))
	result := make([]domain.TransactionSummary, 0, len(s.transactionsByInvoice))
	for _, tx := range s.transactionsByInvoice {
		if needle != "" && !strings.Contains(strings.ToUpper(tx.Invoice), needle) {
			continue
		}
		if filter.CashierID != "" && tx.CashierID != filter.CashierID {
			continue
		}
		if filter.StartDate != nil && tx.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !tx.CreatedAt.Before(*filter.EndDate) {
			continue
		}

		summary := domain.TransactionSummary{Transaction: *cloneTransaction(tx)}
		for _, detail := range tx.Details {
			summary.TotalItems += detail.Qty
		}
		for _, profit := range s.profitsByTransaction[tx.ID] {
			summary.TotalProfit += profit.Total
		}
		result = append(result, summary)
	}

	slices.SortFunc(result, func(a, b domain.TransactionSummary) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.Invoice, a.Invoice)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) UpdatePaymentResult(_ context.Context, invoice string, reference string, paymentURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactionsByInvoice[invoice]
	if !exists {
		return store.ErrNotFound
	}
	tx.PaymentReference = reference
	tx.PaymentURL = paymentURL
	return nil
}

func (s *Store) UpdatePaymentStatus(_ context.Context, invoice string, status string, reference string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactionsByInvoice[invoice]
	if !exists {
		return nil, store.ErrNotFound
	}
	tx.PaymentStatus = status
	if reference != "" {
		tx.PaymentReference = reference
	}
	return cloneTransaction(tx), nil
}

func (s *Store) GetPaymentSetting(_ context.Context) (*domain.PaymentSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting := s.paymentSetting
	return &setting, nil
}

func (s *Store) UpdatePaymentSetting(_ context.Context, setting domain.PaymentSetting) (*domain.PaymentSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paymentSetting = setting
	updated := setting
	return &updated, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, len(s.auditLogs))
	copy(result, s.auditLogs)
	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidRequest
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidRequest
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	if password == "" {
		return store.ErrInvalidRequest
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) collectCartLines(cashierID string, keep func(domain.CartLine) bool) []domain.CartLine {
	lines := make([]domain.CartLine, 0, 8)
	for _, line := range s.cartLines {
		if line.CashierID != cashierID || !keep(line) {
			continue
		}
		lines = append(lines, cloneCartLine(line))
	}
	slices.SortFunc(lines, func(a, b domain.CartLine) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return lines
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneCartLine(src domain.CartLine) domain.CartLine {
	clone := src
	if src.HeldAt != nil {
		at := *src.HeldAt
		clone.HeldAt = &at
	}
	return clone
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	clone := *src
	clone.Details = make([]domain.TransactionDetail, len(src.Details))
	copy(clone.Details, src.Details)
	if src.Customer != nil {
		customer := *src.Customer
		clone.Customer = &customer
	}
	return &clone
}
