package store

import (
	"context"
	"errors"

	"tokopos/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrActiveCartNotEmpty = errors.New("active cart not empty")
	ErrHoldNotFound       = errors.New("held cart not found")
	ErrInvoiceCollision   = errors.New("invoice already exists")
)

type Repository interface {
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)

	ListActiveCartLines(ctx context.Context, cashierID string) ([]domain.CartLine, error)
	ListHeldCartLines(ctx context.Context, cashierID string) ([]domain.CartLine, error)
	GetCartLine(ctx context.Context, cashierID string, lineID string) (*domain.CartLine, error)
	FindActiveCartLineByProduct(ctx context.Context, cashierID string, productID string) (*domain.CartLine, error)
	CreateCartLine(ctx context.Context, line domain.CartLine) (*domain.CartLine, error)
	UpdateCartLineQty(ctx context.Context, cashierID string, lineID string, qty int) (*domain.CartLine, error)
	DeleteCartLine(ctx context.Context, cashierID string, lineID string) error
	HoldActiveCartLines(ctx context.Context, cashierID string, holdID string, label string) (int, error)
	ResumeHeldCartLines(ctx context.Context, cashierID string, holdID string) (int, error)
	DeleteHeldCartLines(ctx context.Context, cashierID string, holdID string) (int, error)

	// CreateCheckout persists the transaction, its details and profit records,
	// re-checks and decrements stock, and deletes the cashier's active cart
	// lines in one atomic unit.
	CreateCheckout(ctx context.Context, tx domain.Transaction, profits []domain.ProfitRecord) (*domain.Transaction, error)
	FindTransactionByInvoice(ctx context.Context, invoice string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionSummary, error)
	UpdatePaymentResult(ctx context.Context, invoice string, reference string, paymentURL string) error
	UpdatePaymentStatus(ctx context.Context, invoice string, status string, reference string) (*domain.Transaction, error)

	GetPaymentSetting(ctx context.Context) (*domain.PaymentSetting, error)
	UpdatePaymentSetting(ctx context.Context, setting domain.PaymentSetting) (*domain.PaymentSetting, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
