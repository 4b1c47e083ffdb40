package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/cart"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/checkout"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/session"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

const term = "term-1"

type fixture struct {
	svc      *checkout.Service
	carts    *cart.Service
	mock     *platform.Mock
	receipts *receipt.Store
	bus      *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mock := platform.NewMock()
	products, err := catalog.NewService(catalog.ServiceConfig{Source: mock})
	require.NoError(t, err)

	bus := &events.Bus{}
	carts := &cart.Service{
		Store:    &cart.Store{R: client, TTL: time.Hour},
		Products: products,
		Events:   bus,
	}
	cfg := &settings.Service{Platform: mock, Logger: zerolog.Nop()}
	mgr := &session.Manager{Platform: mock, Logger: zerolog.Nop()}
	_, err = mgr.SignIn(context.Background(), "token-abc")
	require.NoError(t, err)

	receipts := &receipt.Store{R: client, TTL: time.Hour}
	svc := &checkout.Service{
		Carts:    carts,
		Platform: mock,
		Settings: cfg,
		Session:  mgr,
		Receipts: receipts,
		Events:   bus,
		Logger:   zerolog.Nop(),
	}
	carts.Guard = svc
	return &fixture{svc: svc, carts: carts, mock: mock, receipts: receipts, bus: bus}
}

// fillCart scans two units of a 10000-rupiah product so the worked totals
// (subtotal 20000, tax 2200 at 11%) apply.
func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.mock.Products = append(f.mock.Products, catalog.Product{
		ID: "p-beras", SKU: "BRS-1", Barcode: "111", Name: "Beras 1kg", Price: 10000, Active: true,
	})
	_, err := f.carts.AddItem(ctx, term, "111")
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, term, "111")
	require.NoError(t, err)
}

func TestBeginEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Begin(context.Background(), term)
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	require.Equal(t, checkout.Building, f.svc.CurrentStatus(term).State)
}

func TestBeginLocksAmountDue(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	status, err := f.svc.Begin(context.Background(), term)
	require.NoError(t, err)
	require.Equal(t, checkout.AwaitingPayment, status.State)
	require.Equal(t, int64(22200), status.AmountDue)
	require.Equal(t, int64(22200), status.Tendered, "tendered is pre-filled with the amount due")
	require.Equal(t, []int64{50000, 100000, 200000}, status.QuickTenders)
}

func TestCancelReturnsToBuilding(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)
	status, err := f.svc.Cancel(ctx, term)
	require.NoError(t, err)
	require.Equal(t, checkout.Building, status.State)

	// The cart is untouched by a cancel.
	c, err := f.carts.Get(ctx, term)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 2, c.Lines[0].Quantity)
}

func TestCashPaymentWorkedExample(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	// Global discount 5000 -> taxable 15000, tax 1650, total 16650.
	_, err := f.carts.SetGlobalDiscount(ctx, term, cart.DiscountAmount, 5000)
	require.NoError(t, err)

	status, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)
	require.Equal(t, int64(16650), status.AmountDue)

	_, err = f.svc.Pay(ctx, term, checkout.MethodCash, 10000)
	require.ErrorIs(t, err, checkout.ErrInsufficientPayment)

	sale, err := f.svc.Pay(ctx, term, checkout.MethodCash, 20000)
	require.NoError(t, err)
	require.Equal(t, int64(16650), sale.Total)
	require.Equal(t, int64(3350), sale.Change)
	require.Equal(t, "Kasir Satu", sale.CashierName)
	require.NotEmpty(t, sale.InvoiceNumber)

	// Exactly one submission, with the exact process-sale shape.
	require.Len(t, f.mock.Submitted, 1)
	req := f.mock.Submitted[0]
	require.Equal(t, "u-1", req.CashierID)
	require.Equal(t, "cs-1", req.CashSessionID)
	require.Equal(t, int64(20000), req.Subtotal)
	require.Equal(t, int64(5000), req.DiscountAmount)
	require.Equal(t, int64(1650), req.TaxAmount)
	require.Equal(t, int64(16650), req.TotalAmount)
	require.Equal(t, int64(20000), req.PaymentAmount)
	require.Equal(t, int64(3350), req.ChangeAmount)
	require.Equal(t, "completed", req.Status)

	// The cart is cleared and state returns to building.
	c, err := f.carts.Get(ctx, term)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
	require.Equal(t, checkout.Building, f.svc.CurrentStatus(term).State)

	// The receipt is stored for reprint.
	stored, err := f.receipts.Get(ctx, sale.InvoiceNumber)
	require.NoError(t, err)
	require.Equal(t, sale.Total, stored.Total)
}

func TestNonCashNeverInsufficient(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	sale, err := f.svc.Pay(ctx, term, checkout.MethodQRIS, 0)
	require.NoError(t, err)
	require.Equal(t, int64(22200), sale.Tendered, "non-cash settles the exact amount due")
	require.Equal(t, int64(0), sale.Change)
}

func TestFailedSubmissionKeepsCartAndAllowsRetry(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	var failures []events.Event
	f.bus.Subscribe(events.NotifierFunc(func(_ context.Context, ev events.Event) error {
		if ev.Topic == events.TopicSaleFailed {
			failures = append(failures, ev)
		}
		return nil
	}))

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	f.mock.SubmitFn = func(context.Context, platform.SaleRequest) (platform.SaleResult, error) {
		return platform.SaleResult{}, errors.New("stock conflict")
	}
	_, err = f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	require.ErrorIs(t, err, checkout.ErrSubmission)
	require.Len(t, failures, 1)

	// Cart untouched; retry from the failed state succeeds.
	c, err := f.carts.Get(ctx, term)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	f.mock.SubmitFn = nil
	sale, err := f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	require.NoError(t, err)
	require.Equal(t, int64(2800), sale.Change)
}

func TestCartLockedWhileAwaitingPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	// Every mutation is rejected while the amount due is locked, so nothing
	// can be added that the submitted sale would silently drop.
	_, err = f.carts.AddItem(ctx, term, "111")
	require.True(t, common.IsAppError(err))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CHECKOUT_IN_PROGRESS", appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)

	_, err = f.carts.UpdateQuantity(ctx, term, "p-beras", 5)
	require.True(t, common.IsAppError(err))
	require.True(t, common.IsAppError(f.carts.Clear(ctx, term)))

	c, err := f.carts.Get(ctx, term)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 2, c.Lines[0].Quantity)

	sale, err := f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	require.NoError(t, err)
	require.Equal(t, int64(22200), sale.Total)

	// The submitted sale matches the cart exactly, and the cleared cart lost
	// nothing that was sold.
	require.Len(t, f.mock.Submitted, 1)
	require.Len(t, f.mock.Submitted[0].Items, 1)
	require.Equal(t, 2, f.mock.Submitted[0].Items[0].Quantity)
	c, err = f.carts.Get(ctx, term)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestCancelUnlocksCart(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, term)
	require.NoError(t, err)

	c, err := f.carts.AddItem(ctx, term, "111")
	require.NoError(t, err)
	require.Equal(t, 3, c.Lines[0].Quantity)
}

func TestCartStaysLockedAfterFailedSubmission(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	f.mock.SubmitFn = func(context.Context, platform.SaleRequest) (platform.SaleResult, error) {
		return platform.SaleResult{}, errors.New("platform down")
	}
	_, err = f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	require.ErrorIs(t, err, checkout.ErrSubmission)

	// A retry submits the same locked snapshot, so the cart stays frozen
	// until the attempt is cancelled or completed.
	_, err = f.carts.AddItem(ctx, term, "111")
	require.True(t, common.IsAppError(err))

	_, err = f.svc.Cancel(ctx, term)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, term, "111")
	require.NoError(t, err)
}

func TestPayWithoutBegin(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, err := f.svc.Pay(context.Background(), term, checkout.MethodCash, 50000)
	require.ErrorIs(t, err, checkout.ErrNotAwaitingPayment)
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Pay(context.Background(), term, "cek", 1000)
	require.ErrorIs(t, err, checkout.ErrInvalidMethod)
}

func TestPayRequiresSession(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	f.svc.Session.SignOut(ctx)
	_, err = f.svc.Pay(ctx, term, checkout.MethodCash, 50000)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestSubmissionLatchBlocksConcurrentPay(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	release := make(chan struct{})
	f.mock.SubmitFn = func(context.Context, platform.SaleRequest) (platform.SaleResult, error) {
		<-release
		return platform.SaleResult{InvoiceNumber: "INV-X", CompletedAt: time.Now()}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	}()

	require.Eventually(t, func() bool {
		return f.svc.CurrentStatus(term).State == checkout.Submitting
	}, time.Second, 5*time.Millisecond)

	_, err = f.svc.Pay(ctx, term, checkout.MethodCash, 25000)
	require.ErrorIs(t, err, checkout.ErrSubmissionInFlight)
	_, err = f.svc.Cancel(ctx, term)
	require.ErrorIs(t, err, checkout.ErrSubmissionInFlight)

	close(release)
	wg.Wait()
	require.Equal(t, checkout.Building, f.svc.CurrentStatus(term).State)
}

func TestChangeWorkedExample(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, term)
	require.NoError(t, err)

	sale, err := f.svc.Pay(ctx, term, checkout.MethodCash, 50000)
	require.NoError(t, err)
	require.Equal(t, int64(22200), sale.Total)
	require.Equal(t, int64(27800), sale.Change)
}
