package domain

import "time"

// Amounts are integer Rupiah (no sub-unit). Allocation math keeps fractional
// values internally and rounds only at persistence or display boundaries.

type Product struct {
	ID        string `json:"id"`
	Barcode   string `json:"barcode"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	BuyPrice  int64  `json:"buy_price"`
	SellPrice int64  `json:"sell_price"`
	Stock     int    `json:"stock"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CartLine is one product row in a cashier's working set. A line with an
// empty HoldID is active; a non-empty HoldID marks it held under that group.
type CartLine struct {
	ID        string     `json:"id"`
	CashierID string     `json:"cashier_id"`
	ProductID string     `json:"product_id"`
	Qty       int        `json:"qty"`
	Price     int64      `json:"price"`
	HoldID    string     `json:"hold_id,omitempty"`
	HoldLabel string     `json:"hold_label,omitempty"`
	HeldAt    *time.Time `json:"held_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (l CartLine) Active() bool {
	return l.HoldID == ""
}

type CartLineView struct {
	CartLine
	Product Product `json:"product"`
}

type CartView struct {
	Lines []CartLineView `json:"lines"`
	Total int64          `json:"total"`
}

type HeldCartGroup struct {
	HoldID     string    `json:"hold_id"`
	Label      string    `json:"label"`
	HeldAt     time.Time `json:"held_at"`
	ItemsCount int       `json:"items_count"`
	Total      int64     `json:"total"`
}

const (
	AdjustmentNominal = "nominal"
	AdjustmentPercent = "percent"
)

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

const (
	GatewayCash     = "cash"
	GatewayQris     = "qris"
	GatewayMidtrans = "midtrans"
	GatewayXendit   = "xendit"
)

// Transaction is immutable after checkout except for the payment reference
// fields, which a gateway callback may fill in later.
type Transaction struct {
	ID               string    `json:"id"`
	CashierID        string    `json:"cashier_id"`
	CustomerID       string    `json:"customer_id,omitempty"`
	Invoice          string    `json:"invoice"`
	DiscountType     string    `json:"discount_type"`
	DiscountValue    float64   `json:"discount_value"`
	Discount         int64     `json:"discount"`
	TaxType          string    `json:"tax_type"`
	TaxValue         float64   `json:"tax_value"`
	Tax              int64     `json:"tax"`
	Subtotal         int64     `json:"subtotal"`
	GrandTotal       int64     `json:"grand_total"`
	Cash             int64     `json:"cash"`
	Change           int64     `json:"change"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentStatus    string    `json:"payment_status"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	PaymentURL       string    `json:"payment_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	Details  []TransactionDetail `json:"details,omitempty"`
	Customer *Customer           `json:"customer,omitempty"`
}

// TransactionDetail is owned exclusively by its Transaction and created in
// the same atomic unit. Price is the line sell total before discount/tax
// allocation.
type TransactionDetail struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	ProductTitle  string `json:"product_title,omitempty"`
	Qty           int    `json:"qty"`
	Price         int64  `json:"price"`
}

// ProfitRecord stores the allocated per-line profit so reporting does not
// have to re-derive it from cost history.
type ProfitRecord struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	Total         int64  `json:"total"`
}

// TransactionSummary is a history row: the transaction plus the aggregates
// the listing screen shows.
type TransactionSummary struct {
	Transaction
	TotalItems  int   `json:"total_items"`
	TotalProfit int64 `json:"total_profit"`
}

type TransactionFilter struct {
	Invoice   string
	CashierID string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// PaymentSetting is the single-row gateway configuration.
type PaymentSetting struct {
	DefaultGateway     string `json:"default_gateway"`
	MidtransEnabled    bool   `json:"midtrans_enabled"`
	MidtransServerKey  string `json:"midtrans_server_key"`
	MidtransClientKey  string `json:"midtrans_client_key"`
	MidtransProduction bool   `json:"midtrans_production"`
	XenditEnabled      bool   `json:"xendit_enabled"`
	XenditSecretKey    string `json:"xendit_secret_key"`
	XenditPublicKey    string `json:"xendit_public_key"`
	XenditProduction   bool   `json:"xendit_production"`
	QrisEnabled        bool   `json:"qris_enabled"`
	QrisString         string `json:"qris_string"`
}

func (s PaymentSetting) IsGatewayReady(gateway string) bool {
	switch gateway {
	case GatewayMidtrans:
		return s.MidtransEnabled && s.MidtransServerKey != "" && s.MidtransClientKey != ""
	case GatewayXendit:
		return s.XenditEnabled && s.XenditSecretKey != "" && s.XenditPublicKey != ""
	case GatewayQris:
		return s.QrisEnabled && s.QrisString != ""
	default:
		return false
	}
}

type GatewayOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (s PaymentSetting) EnabledGateways() []GatewayOption {
	options := make([]GatewayOption, 0, 3)
	if s.IsGatewayReady(GatewayQris) {
		options = append(options, GatewayOption{
			Value:       GatewayQris,
			Label:       "QRIS",
			Description: "Kemudahan pembayaran tinggal scan beres.",
		})
	}
	if s.IsGatewayReady(GatewayMidtrans) {
		options = append(options, GatewayOption{
			Value:       GatewayMidtrans,
			Label:       "Midtrans",
			Description: "Bagikan tautan pembayaran Snap Midtrans ke pelanggan.",
		})
	}
	if s.IsGatewayReady(GatewayXendit) {
		options = append(options, GatewayOption{
			Value:       GatewayXendit,
			Label:       "Xendit",
			Description: "Buat invoice otomatis menggunakan Xendit.",
		})
	}
	return options
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type UpdateCartQtyRequest struct {
	Qty int `json:"qty"`
}

type HoldCartRequest struct {
	Label string `json:"label"`
}

type CheckoutRequest struct {
	CustomerID     string  `json:"customer_id,omitempty"`
	DiscountType   string  `json:"discount_type"`
	DiscountValue  float64 `json:"discount_value"`
	TaxType        string  `json:"tax_type"`
	TaxValue       float64 `json:"tax_value"`
	Cash           int64   `json:"cash"`
	PaymentGateway string  `json:"payment_gateway,omitempty"`
}

type CheckoutResponse struct {
	Transaction  Transaction `json:"transaction"`
	RedirectTo   string      `json:"redirect_to"`
	PaymentError string      `json:"payment_error,omitempty"`
}

type PaymentCallbackRequest struct {
	Invoice   string `json:"invoice"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

// ProfitReportRow is one allocated line of the detail/profit report. The
// allocation here is rounded per line for display; it reconciles with the
// checkout-time allocation only at the transaction aggregate.
type ProfitReportRow struct {
	Invoice         string    `json:"invoice"`
	Date            time.Time `json:"date"`
	ProductTitle    string    `json:"product_title"`
	Qty             int       `json:"qty"`
	BuyUnit         int64     `json:"buy_unit"`
	SellNetUnit     int64     `json:"sell_net_unit"`
	ProfitUnit      int64     `json:"profit_unit"`
	BuyTotal        int64     `json:"buy_total"`
	SellNetTotal    int64     `json:"sell_net_total"`
	ProfitTotal     int64     `json:"profit_total"`
	DiscountPercent float64   `json:"discount_percent"`
	Discount        int64     `json:"discount"`
	TaxPercent      float64   `json:"tax_percent"`
	Tax             int64     `json:"tax"`
}

type ProfitReport struct {
	Rows        []ProfitReportRow `json:"rows"`
	TotalBuy    int64             `json:"total_buy"`
	TotalSell   int64             `json:"total_sell"`
	TotalProfit int64             `json:"total_profit"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
