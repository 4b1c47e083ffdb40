package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/cart"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/money"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/obs"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/session"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

// attempt is the per-terminal checkout state between begin and completion.
// The amount due and the cart snapshot are locked at begin time so totals on
// the receipt always match what the cashier confirmed.
type attempt struct {
	State     State
	Summary   cart.Summary
	AmountDue int64
	Tendered  int64
	Method    string
	BegunAt   time.Time
}

// Status is the terminal-visible view of the checkout flow.
type Status struct {
	State        State   `json:"state"`
	AmountDue    int64   `json:"amountDue"`
	Tendered     int64   `json:"tendered"`
	QuickTenders []int64 `json:"quickTenders"`
}

// Service sequences cart -> payment -> submission -> receipt. One attempt
// per terminal at a time; the in-flight latch guarantees exactly one
// platform submission per confirmed payment.
type Service struct {
	Carts    *cart.Service
	Platform platform.Client
	Settings *settings.Service
	Session  *session.Manager
	Receipts *receipt.Store
	Events   *events.Bus
	Logger   zerolog.Logger
	Now      func() time.Time

	mu     sync.Mutex
	active map[string]*attempt
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Begin locks the amount due for the terminal's cart and moves to awaiting
// payment. The tendered amount is pre-filled with the amount due.
func (s *Service) Begin(ctx context.Context, terminalID string) (Status, error) {
	if s == nil || s.Carts == nil {
		return Status{}, errors.New("checkout service not configured")
	}
	taxBps := settings.Defaults().TaxBps()
	if s.Settings != nil {
		taxBps = s.Settings.Effective(ctx).TaxBps()
	}
	summary, err := s.Carts.Summarize(ctx, terminalID, taxBps)
	if err != nil {
		return Status{}, err
	}
	if len(summary.Lines) == 0 {
		return Status{}, ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.activeFor(terminalID); ok && existing.State == Submitting {
		return Status{}, ErrSubmissionInFlight
	}
	a := &attempt{
		State:     AwaitingPayment,
		Summary:   summary,
		AmountDue: summary.Total,
		Tendered:  summary.Total,
		BegunAt:   s.now(),
	}
	s.setActive(terminalID, a)
	return statusOf(a), nil
}

// Cancel discards the in-progress payment and returns to building. The cart
// is untouched.
func (s *Service) Cancel(ctx context.Context, terminalID string) (Status, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activeFor(terminalID)
	if !ok {
		return Status{State: Building, QuickTenders: QuickTenders}, nil
	}
	if a.State == Submitting {
		return Status{}, ErrSubmissionInFlight
	}
	delete(s.active, terminalID)
	return Status{State: Building, QuickTenders: QuickTenders}, nil
}

// AllowCartMutation implements cart.Guard. While an attempt exists the amount
// due is locked to a cart snapshot, so any mutation would either be dropped
// from the submitted sale or charge the customer for removed items. The
// cashier cancels (or completes) the payment first.
func (s *Service) AllowCartMutation(ctx context.Context, terminalID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activeFor(terminalID); ok {
		return common.NewAppError("CHECKOUT_IN_PROGRESS", "cancel the payment before changing the cart", http.StatusConflict, nil)
	}
	return nil
}

// CurrentStatus reports the terminal's checkout state.
func (s *Service) CurrentStatus(terminalID string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activeFor(terminalID)
	if !ok {
		return Status{State: Building, QuickTenders: QuickTenders}
	}
	return statusOf(a)
}

// Pay validates the payment, submits the sale to the platform exactly once,
// and on success stores the receipt and clears the cart. On failure the
// attempt moves to Failed with the cart untouched so payment can be retried.
func (s *Service) Pay(ctx context.Context, terminalID, method string, tendered int64) (receipt.Sale, error) {
	if s == nil || s.Platform == nil {
		return receipt.Sale{}, errors.New("checkout service not configured")
	}
	if !ValidMethod(method) {
		return receipt.Sale{}, ErrInvalidMethod
	}
	sess, err := s.Session.Current()
	if err != nil {
		return receipt.Sale{}, err
	}

	s.mu.Lock()
	a, ok := s.activeFor(terminalID)
	if !ok || (a.State != AwaitingPayment && a.State != Failed) {
		if ok && a.State == Submitting {
			s.mu.Unlock()
			return receipt.Sale{}, ErrSubmissionInFlight
		}
		s.mu.Unlock()
		return receipt.Sale{}, ErrNotAwaitingPayment
	}
	if method != MethodCash {
		// Non-cash methods settle the exact amount due.
		tendered = a.AmountDue
	}
	if method == MethodCash && tendered < a.AmountDue {
		s.mu.Unlock()
		return receipt.Sale{}, ErrInsufficientPayment
	}
	a.State = Submitting
	a.Method = method
	a.Tendered = tendered
	summary := a.Summary
	amountDue := a.AmountDue
	s.mu.Unlock()

	change := money.FloorZero(tendered - amountDue)
	// The submission must not be cancelled by a dropped HTTP request: the
	// platform may already have committed the sale. The client's timeout still
	// bounds the call.
	ctx = context.WithoutCancel(ctx)
	result, err := s.Platform.SubmitSale(ctx, buildSaleRequest(sess, terminalID, summary, method, tendered, change))
	if err != nil {
		s.mu.Lock()
		a.State = Failed
		s.mu.Unlock()
		obs.CountSale(method, "failed")
		if s.Events != nil {
			_, _ = s.Events.Emit(ctx, events.TopicSaleFailed, terminalID, map[string]any{"reason": err.Error()})
		}
		s.Logger.Error().Err(err).Str("terminal_id", terminalID).Msg("sale submission failed")
		return receipt.Sale{}, fmt.Errorf("%w: %s", ErrSubmission, err)
	}

	sale := receipt.Sale{
		InvoiceNumber:  result.InvoiceNumber,
		CompletedAt:    result.CompletedAt,
		CashierName:    sess.Cashier.Name,
		Items:          receiptItems(summary),
		Subtotal:       summary.Subtotal,
		DiscountAmount: summary.DiscountAmount,
		TaxAmount:      summary.TaxAmount,
		Total:          summary.Total,
		Tendered:       tendered,
		Change:         change,
		PaymentMethod:  method,
	}
	if s.Receipts != nil {
		if err := s.Receipts.Save(ctx, sale); err != nil {
			s.Logger.Warn().Err(err).Str("invoice", sale.InvoiceNumber).Msg("receipt store failed")
		}
	}
	// The attempt ends before the cart is cleared so the guard does not veto
	// the clear itself.
	s.mu.Lock()
	delete(s.active, terminalID)
	s.mu.Unlock()

	if err := s.Carts.Clear(ctx, terminalID); err != nil {
		s.Logger.Warn().Err(err).Str("terminal_id", terminalID).Msg("cart clear after sale failed")
	}

	obs.CountSale(method, "succeeded")
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCompleted, terminalID, map[string]any{
			"invoice": sale.InvoiceNumber,
			"total":   sale.Total,
			"method":  method,
			"items":   soldItems(summary),
		})
	}
	s.Logger.Info().
		Str("terminal_id", terminalID).
		Str("invoice", sale.InvoiceNumber).
		Int64("total", sale.Total).
		Str("method", method).
		Msg("sale completed")
	return sale, nil
}

func (s *Service) activeFor(terminalID string) (*attempt, bool) {
	if s.active == nil {
		return nil, false
	}
	a, ok := s.active[terminalID]
	return a, ok
}

func (s *Service) setActive(terminalID string, a *attempt) {
	if s.active == nil {
		s.active = make(map[string]*attempt)
	}
	s.active[terminalID] = a
}

func statusOf(a *attempt) Status {
	return Status{
		State:        a.State,
		AmountDue:    a.AmountDue,
		Tendered:     a.Tendered,
		QuickTenders: QuickTenders,
	}
}

func buildSaleRequest(sess session.Session, terminalID string, summary cart.Summary, method string, tendered, change int64) platform.SaleRequest {
	items := make([]platform.SaleItem, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		items = append(items, platform.SaleItem{
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.Discount,
			Subtotal:       line.Subtotal(),
		})
	}
	return platform.SaleRequest{
		CashierID:       sess.Cashier.ID,
		CashSessionID:   sess.Drawer.ID,
		TerminalID:      terminalID,
		Items:           items,
		Subtotal:        summary.Subtotal,
		DiscountAmount:  summary.DiscountAmount,
		DiscountPercent: summary.DiscountPercent,
		TaxAmount:       summary.TaxAmount,
		TotalAmount:     summary.Total,
		PaymentMethod:   method,
		PaymentAmount:   tendered,
		ChangeAmount:    change,
		Status:          "completed",
	}
}

// soldItems lists the identifiers notifiers need, e.g. for dropping cached
// product entries whose stock just changed.
func soldItems(summary cart.Summary) []map[string]any {
	items := make([]map[string]any, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		items = append(items, map[string]any{
			"productId": line.ProductID,
			"barcode":   line.Barcode,
			"sku":       line.SKU,
			"name":      line.Name,
			"quantity":  line.Quantity,
		})
	}
	return items
}

func receiptItems(summary cart.Summary) []receipt.Item {
	items := make([]receipt.Item, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		items = append(items, receipt.Item{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal(),
		})
	}
	return items
}
