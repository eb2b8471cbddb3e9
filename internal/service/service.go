package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"tokopos/backend/internal/allocation"
	"tokopos/backend/internal/cache"
	"tokopos/backend/internal/domain"
	"tokopos/backend/internal/payment"
	"tokopos/backend/internal/store"
	"tokopos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// StockValidationError lists the cart's failing products by title so the
// cashier sees every problem at once instead of fixing them one by one.
type StockValidationError struct {
	OutOfStock   []string
	Insufficient []string
}

func (e *StockValidationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.OutOfStock) > 0 {
		parts = append(parts, "stok habis: "+strings.Join(e.OutOfStock, ", "))
	}
	if len(e.Insufficient) > 0 {
		parts = append(parts, "stok tidak mencukupi: "+strings.Join(e.Insufficient, ", "))
	}
	return strings.Join(parts, "; ")
}

type Service struct {
	repo       store.Repository
	payments   *payment.Manager
	receipts   cache.ReceiptCache
	receiptTTL time.Duration
}

func New(repo store.Repository, payments *payment.Manager, receipts cache.ReceiptCache, receiptTTL time.Duration) *Service {
	if receipts == nil {
		receipts = cache.NoopReceiptCache{}
	}
	if receiptTTL <= 0 {
		receiptTTL = 15 * time.Minute
	}

	return &Service{
		repo:       repo,
		payments:   payments,
		receipts:   receipts,
		receiptTTL: receiptTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, search)
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, store.ErrInvalidRequest
	}
	product, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) ListCart(ctx context.Context) (domain.CartView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CartView{}, fmt.Errorf("actor required")
	}

	lines, err := s.repo.ListActiveCartLines(ctx, actor.Username)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.buildCartView(ctx, lines)
}

func (s *Service) AddToCart(ctx context.Context, req domain.AddToCartRequest) (domain.CartView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CartView{}, fmt.Errorf("actor required")
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return domain.CartView{}, store.ErrInvalidRequest
	}
	if req.Qty < 1 {
		req.Qty = 1
	}

	product, err := s.repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return domain.CartView{}, err
	}
	if product.Stock == 0 {
		return domain.CartView{}, fmt.Errorf("%s: %w", product.Title, store.ErrOutOfStock)
	}

	existing, err := s.repo.FindActiveCartLineByProduct(ctx, actor.Username, req.ProductID)
	switch {
	case err == nil:
		newQty := existing.Qty + req.Qty
		if newQty > product.Stock {
			return domain.CartView{}, fmt.Errorf("%s: %w", product.Title, store.ErrInsufficientStock)
		}
		if _, err := s.repo.UpdateCartLineQty(ctx, actor.Username, existing.ID, newQty); err != nil {
			return domain.CartView{}, err
		}
	case errors.Is(err, store.ErrNotFound):
		if req.Qty > product.Stock {
			return domain.CartView{}, fmt.Errorf("%s: %w", product.Title, store.ErrInsufficientStock)
		}
		_, err := s.repo.CreateCartLine(ctx, domain.CartLine{
			CashierID: actor.Username,
			ProductID: product.ID,
			Qty:       req.Qty,
			Price:     product.SellPrice,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return domain.CartView{}, err
		}
	default:
		return domain.CartView{}, err
	}

	return s.ListCart(ctx)
}

func (s *Service) UpdateCartQty(ctx context.Context, lineID string, qty int) (domain.CartView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CartView{}, fmt.Errorf("actor required")
	}
	if qty < 1 {
		return domain.CartView{}, store.ErrInvalidRequest
	}

	line, err := s.repo.GetCartLine(ctx, actor.Username, lineID)
	if err != nil {
		return domain.CartView{}, err
	}
	if !line.Active() {
		return domain.CartView{}, store.ErrNotFound
	}

	product, err := s.repo.GetProductByID(ctx, line.ProductID)
	if err != nil {
		return domain.CartView{}, err
	}
	if qty > product.Stock {
		return domain.CartView{}, fmt.Errorf("%s: %w", product.Title, store.ErrInsufficientStock)
	}

	if _, err := s.repo.UpdateCartLineQty(ctx, actor.Username, lineID, qty); err != nil {
		return domain.CartView{}, err
	}
	return s.ListCart(ctx)
}

func (s *Service) RemoveCartLine(ctx context.Context, lineID string) (domain.CartView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CartView{}, fmt.Errorf("actor required")
	}

	if err := s.repo.DeleteCartLine(ctx, actor.Username, lineID); err != nil {
		return domain.CartView{}, err
	}
	return s.ListCart(ctx)
}

// HoldCart parks the cashier's entire active cart under a fresh hold id so
// another customer can be served. Label falls back to a timestamp so held
// carts stay tellable apart on the resume screen.
func (s *Service) HoldCart(ctx context.Context, req domain.HoldCartRequest) (domain.HeldCartGroup, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.HeldCartGroup{}, fmt.Errorf("actor required")
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "Transaksi " + time.Now().UTC().Format("15:04")
	}
	holdID := "HOLD-" + uuid.NewString()

	count, err := s.repo.HoldActiveCartLines(ctx, actor.Username, holdID, label)
	if err != nil {
		return domain.HeldCartGroup{}, err
	}

	s.logAudit(ctx, "cart_hold", "cart", holdID, fmt.Sprintf("label=%s,lines=%d", label, count))

	groups, err := s.ListHeldCarts(ctx)
	if err != nil {
		return domain.HeldCartGroup{}, err
	}
	for _, group := range groups {
		if group.HoldID == holdID {
			return group, nil
		}
	}
	return domain.HeldCartGroup{HoldID: holdID, Label: label, ItemsCount: count}, nil
}

func (s *Service) ListHeldCarts(ctx context.Context) ([]domain.HeldCartGroup, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("actor required")
	}

	lines, err := s.repo.ListHeldCartLines(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	byHold := make(map[string]*domain.HeldCartGroup)
	order := make([]string, 0, 8)
	for _, line := range lines {
		group, exists := byHold[line.HoldID]
		if !exists {
			group = &domain.HeldCartGroup{HoldID: line.HoldID, Label: line.HoldLabel}
			if line.HeldAt != nil {
				group.HeldAt = *line.HeldAt
			}
			byHold[line.HoldID] = group
			order = append(order, line.HoldID)
		}
		group.ItemsCount += line.Qty
		group.Total += line.Price * int64(line.Qty)
	}

	groups := make([]domain.HeldCartGroup, 0, len(order))
	for _, holdID := range order {
		groups = append(groups, *byHold[holdID])
	}
	return groups, nil
}

// ResumeHold restores a held cart into the active working set. It refuses
// to merge: the active cart must be empty first.
func (s *Service) ResumeHold(ctx context.Context, holdID string) (domain.CartView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CartView{}, fmt.Errorf("actor required")
	}
	holdID = strings.TrimSpace(holdID)
	if holdID == "" {
		return domain.CartView{}, store.ErrInvalidRequest
	}

	count, err := s.repo.ResumeHeldCartLines(ctx, actor.Username, holdID)
	if err != nil {
		return domain.CartView{}, err
	}

	s.logAudit(ctx, "cart_resume", "cart", holdID, fmt.Sprintf("lines=%d", count))
	return s.ListCart(ctx)
}

func (s *Service) DiscardHold(ctx context.Context, holdID string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return fmt.Errorf("actor required")
	}
	holdID = strings.TrimSpace(holdID)
	if holdID == "" {
		return store.ErrInvalidRequest
	}

	count, err := s.repo.DeleteHeldCartLines(ctx, actor.Username, holdID)
	if err != nil {
		return err
	}

	s.logAudit(ctx, "cart_discard", "cart", holdID, fmt.Sprintf("lines=%d", count))
	return nil
}

// Checkout turns the cashier's active cart into a finalized transaction:
// stock validation, server-side totals, atomic persist with stock decrement
// and cart clearing, then the gateway leg. Everything after the store commit
// is best effort; a gateway failure is reported but never undoes the sale.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CheckoutResponse{}, fmt.Errorf("actor required")
	}

	lines, err := s.repo.ListActiveCartLines(ctx, actor.Username)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if len(lines) == 0 {
		return domain.CheckoutResponse{}, store.ErrEmptyCart
	}

	productIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	stockErr := &StockValidationError{}
	for _, line := range lines {
		product, exists := products[line.ProductID]
		if !exists {
			stockErr.OutOfStock = append(stockErr.OutOfStock, line.ProductID)
			continue
		}
		if product.Stock == 0 {
			stockErr.OutOfStock = append(stockErr.OutOfStock, product.Title)
			continue
		}
		if product.Stock < line.Qty {
			stockErr.Insufficient = append(stockErr.Insufficient, product.Title)
		}
	}
	if len(stockErr.OutOfStock) > 0 || len(stockErr.Insufficient) > 0 {
		return domain.CheckoutResponse{}, stockErr
	}

	discountType, err := normalizeAdjustmentType(req.DiscountType)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	taxType, err := normalizeAdjustmentType(req.TaxType)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if req.DiscountValue < 0 || req.TaxValue < 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidRequest
	}

	gateway := strings.TrimSpace(req.PaymentGateway)
	if gateway == "" {
		gateway = domain.GatewayCash
	}
	if !isSupportedGateway(gateway) {
		return domain.CheckoutResponse{}, payment.ErrUnsupportedGateway
	}

	var setting domain.PaymentSetting
	if gateway != domain.GatewayCash {
		loaded, err := s.repo.GetPaymentSetting(ctx)
		if err != nil {
			return domain.CheckoutResponse{}, err
		}
		setting = *loaded
		if !setting.IsGatewayReady(gateway) {
			return domain.CheckoutResponse{}, payment.ErrGatewayNotReady
		}
	}

	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
			return domain.CheckoutResponse{}, err
		}
	}

	allocLines := make([]allocation.Line, 0, len(lines))
	for _, line := range lines {
		product := products[line.ProductID]
		allocLines = append(allocLines, allocation.Line{
			SellUnit: line.Price,
			BuyUnit:  product.BuyPrice,
			Qty:      line.Qty,
		})
	}

	subtotal := allocation.Subtotal(allocLines)
	discount := allocation.ResolveNominal(discountType, req.DiscountValue, subtotal)
	if discount > subtotal {
		discount = subtotal
	}
	taxBase := subtotal - discount
	tax := allocation.ResolveNominal(taxType, req.TaxValue, taxBase)
	grandTotal := taxBase + tax

	cash := int64(0)
	change := int64(0)
	if gateway == domain.GatewayCash {
		if req.Cash < grandTotal {
			return domain.CheckoutResponse{}, fmt.Errorf("uang tunai kurang dari total: %w", store.ErrInvalidRequest)
		}
		cash = req.Cash
		change = req.Cash - grandTotal
	}

	paymentStatus := domain.PaymentStatusPending
	if gateway == domain.GatewayCash || gateway == domain.GatewayQris {
		paymentStatus = domain.PaymentStatusPaid
	}

	allocated := allocation.Allocate(allocLines, discount, tax)
	details := make([]domain.TransactionDetail, 0, len(lines))
	profits := make([]domain.ProfitRecord, 0, len(lines))
	for i, line := range lines {
		details = append(details, domain.TransactionDetail{
			ProductID: line.ProductID,
			Qty:       line.Qty,
			Price:     allocated[i].LineSell,
		})
		profits = append(profits, domain.ProfitRecord{
			Total: allocation.RoundMinor(allocated[i].Profit),
		})
	}

	tx := domain.Transaction{
		CashierID:     actor.Username,
		CustomerID:    req.CustomerID,
		Invoice:       xid.Invoice(),
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		Discount:      discount,
		TaxType:       taxType,
		TaxValue:      req.TaxValue,
		Tax:           tax,
		Subtotal:      subtotal,
		GrandTotal:    grandTotal,
		Cash:          cash,
		Change:        change,
		PaymentMethod: gateway,
		PaymentStatus: paymentStatus,
		CreatedAt:     time.Now().UTC(),
		Details:       details,
	}

	created, err := s.repo.CreateCheckout(ctx, tx, profits)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(ctx, "checkout", "transaction", created.Invoice,
		fmt.Sprintf("gateway=%s,total=%d,items=%d", gateway, created.GrandTotal, len(created.Details)))

	response := domain.CheckoutResponse{
		Transaction: *created,
		RedirectTo:  "/transactions/" + created.Invoice + "/print",
	}

	if gateway != domain.GatewayCash {
		result, chargeErr := s.payments.Charge(ctx, gateway, *created, setting)
		if chargeErr != nil {
			log.Printf("[service] WARN: gateway charge failed invoice=%s gateway=%s: %v", created.Invoice, gateway, chargeErr)
			response.PaymentError = chargeErr.Error()
		} else {
			if err := s.repo.UpdatePaymentResult(ctx, created.Invoice, result.Reference, result.PaymentURL); err != nil {
				log.Printf("[service] WARN: failed to store payment result invoice=%s: %v", created.Invoice, err)
			}
			created.PaymentReference = result.Reference
			created.PaymentURL = result.PaymentURL
			response.Transaction = *created
		}
	}

	if err := s.receipts.Set(ctx, created.Invoice, created, s.receiptTTL); err != nil {
		log.Printf("[service] WARN: failed to cache receipt invoice=%s: %v", created.Invoice, err)
	}

	return response, nil
}

func (s *Service) History(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionSummary, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("actor required")
	}
	if actor.Role != "admin" {
		filter.CashierID = actor.Username
	}

	// Without an explicit filter the listing defaults to today's sales,
	// which is what the cashier screen shows.
	if filter.StartDate == nil && filter.EndDate == nil && strings.TrimSpace(filter.Invoice) == "" {
		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)
		filter.StartDate = &start
		filter.EndDate = &end
	}

	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) GetReceiptByInvoice(ctx context.Context, invoice string) (domain.Transaction, error) {
	invoice = strings.ToUpper(strings.TrimSpace(invoice))
	if invoice == "" {
		return domain.Transaction{}, store.ErrInvalidRequest
	}

	if cached, hit, err := s.receipts.Get(ctx, invoice); err != nil {
		log.Printf("[service] WARN: receipt cache get failed invoice=%s: %v", invoice, err)
	} else if hit {
		return *cached, nil
	}

	tx, err := s.repo.FindTransactionByInvoice(ctx, invoice)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := s.receipts.Set(ctx, invoice, tx, s.receiptTTL); err != nil {
		log.Printf("[service] WARN: failed to cache receipt invoice=%s: %v", invoice, err)
	}
	return *tx, nil
}

// ProfitReport rebuilds the per-line discount/tax allocation for every
// transaction in the range and renders it rounded per line, with a total
// that reconciles by summing the rendered rows.
func (s *Service) ProfitReport(ctx context.Context, from time.Time, to time.Time) (domain.ProfitReport, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.ProfitReport{}, fmt.Errorf("admin role required")
	}
	if to.Before(from) {
		return domain.ProfitReport{}, store.ErrInvalidRequest
	}

	summaries, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{
		StartDate: &from,
		EndDate:   &to,
		Limit:     5000,
	})
	if err != nil {
		return domain.ProfitReport{}, err
	}

	report := domain.ProfitReport{Rows: make([]domain.ProfitReportRow, 0, len(summaries)*2)}
	for _, summary := range summaries {
		tx, err := s.repo.FindTransactionByInvoice(ctx, summary.Invoice)
		if err != nil {
			return domain.ProfitReport{}, err
		}
		if len(tx.Details) == 0 {
			continue
		}

		productIDs := make([]string, 0, len(tx.Details))
		for _, detail := range tx.Details {
			productIDs = append(productIDs, detail.ProductID)
		}
		products, err := s.repo.GetProductsByIDs(ctx, productIDs)
		if err != nil {
			return domain.ProfitReport{}, err
		}

		allocLines := make([]allocation.Line, 0, len(tx.Details))
		for _, detail := range tx.Details {
			buyUnit := products[detail.ProductID].BuyPrice
			sellUnit := int64(0)
			if detail.Qty > 0 {
				sellUnit = detail.Price / int64(detail.Qty)
			}
			allocLines = append(allocLines, allocation.Line{
				SellUnit: sellUnit,
				BuyUnit:  buyUnit,
				Qty:      detail.Qty,
			})
		}

		allocated := allocation.Allocate(allocLines, tx.Discount, tx.Tax)
		for i, detail := range tx.Details {
			al := allocated[i]
			sellNetTotal := allocation.RoundMinor(al.NetSell)
			profitTotal := allocation.RoundMinor(al.Profit)

			row := domain.ProfitReportRow{
				Invoice:      tx.Invoice,
				Date:         tx.CreatedAt,
				ProductTitle: detail.ProductTitle,
				Qty:          detail.Qty,
				BuyUnit:      allocLines[i].BuyUnit,
				BuyTotal:     al.BuyTotal,
				SellNetTotal: sellNetTotal,
				ProfitTotal:  profitTotal,
				Discount:     allocation.RoundMinor(al.Discount),
				Tax:          allocation.RoundMinor(al.Tax),
			}
			if detail.Qty > 0 {
				row.SellNetUnit = allocation.RoundMinor(al.NetSell / float64(detail.Qty))
				row.ProfitUnit = allocation.RoundMinor(al.Profit / float64(detail.Qty))
			}
			if tx.DiscountType == domain.AdjustmentPercent {
				row.DiscountPercent = tx.DiscountValue
			}
			if tx.TaxType == domain.AdjustmentPercent {
				row.TaxPercent = tx.TaxValue
			}

			report.Rows = append(report.Rows, row)
			report.TotalBuy += al.BuyTotal
			report.TotalSell += sellNetTotal
			report.TotalProfit += profitTotal
		}
	}

	return report, nil
}

func (s *Service) GetPaymentSetting(ctx context.Context) (domain.PaymentSetting, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.PaymentSetting{}, fmt.Errorf("admin role required")
	}

	setting, err := s.repo.GetPaymentSetting(ctx)
	if err != nil {
		return domain.PaymentSetting{}, err
	}
	return *setting, nil
}

func (s *Service) UpdatePaymentSetting(ctx context.Context, setting domain.PaymentSetting) (domain.PaymentSetting, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.PaymentSetting{}, fmt.Errorf("admin role required")
	}

	setting.DefaultGateway = strings.TrimSpace(setting.DefaultGateway)
	if setting.DefaultGateway == "" {
		setting.DefaultGateway = domain.GatewayCash
	}
	if !isSupportedGateway(setting.DefaultGateway) {
		return domain.PaymentSetting{}, store.ErrInvalidRequest
	}
	setting.QrisString = strings.TrimSpace(setting.QrisString)
	if setting.QrisEnabled && setting.QrisString == "" {
		return domain.PaymentSetting{}, store.ErrInvalidRequest
	}

	updated, err := s.repo.UpdatePaymentSetting(ctx, setting)
	if err != nil {
		return domain.PaymentSetting{}, err
	}

	s.logAudit(ctx, "payment_setting_update", "payment_setting", "default",
		fmt.Sprintf("default=%s,qris=%t,midtrans=%t,xendit=%t",
			updated.DefaultGateway, updated.QrisEnabled, updated.MidtransEnabled, updated.XenditEnabled))

	return *updated, nil
}

func (s *Service) ListEnabledGateways(ctx context.Context) ([]domain.GatewayOption, error) {
	setting, err := s.repo.GetPaymentSetting(ctx)
	if err != nil {
		return nil, err
	}
	return setting.EnabledGateways(), nil
}

// ApplyPaymentCallback moves a pending transaction to its final payment
// status. Called from the gateway webhook, so there is no actor; the
// endpoint authenticates with a shared callback token instead.
func (s *Service) ApplyPaymentCallback(ctx context.Context, req domain.PaymentCallbackRequest) (domain.Transaction, error) {
	invoice := strings.ToUpper(strings.TrimSpace(req.Invoice))
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if invoice == "" {
		return domain.Transaction{}, store.ErrInvalidRequest
	}
	switch status {
	case domain.PaymentStatusPaid, domain.PaymentStatusFailed, domain.PaymentStatusExpired:
	default:
		return domain.Transaction{}, store.ErrInvalidRequest
	}

	updated, err := s.repo.UpdatePaymentStatus(ctx, invoice, status, strings.TrimSpace(req.Reference))
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := s.receipts.Delete(ctx, invoice); err != nil {
		log.Printf("[service] WARN: failed to invalidate receipt cache invoice=%s: %v", invoice, err)
	}

	s.logAudit(ctx, "payment_callback", "transaction", invoice, fmt.Sprintf("status=%s", status))
	return *updated, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) buildCartView(ctx context.Context, lines []domain.CartLine) (domain.CartView, error) {
	view := domain.CartView{Lines: make([]domain.CartLineView, 0, len(lines))}
	if len(lines) == 0 {
		return view, nil
	}

	productIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return domain.CartView{}, err
	}

	for _, line := range lines {
		view.Lines = append(view.Lines, domain.CartLineView{
			CartLine: line,
			Product:  products[line.ProductID],
		})
		view.Total += line.Price * int64(line.Qty)
	}
	return view, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("aud"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

func normalizeAdjustmentType(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "":
		return domain.AdjustmentNominal, nil
	case domain.AdjustmentNominal, domain.AdjustmentPercent:
		return kind, nil
	default:
		return "", store.ErrInvalidRequest
	}
}

func isSupportedGateway(gateway string) bool {
	switch gateway {
	case domain.GatewayCash, domain.GatewayQris, domain.GatewayMidtrans, domain.GatewayXendit:
		return true
	}
	return false
}
