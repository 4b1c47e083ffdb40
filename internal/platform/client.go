package platform

import (
	"context"
	"errors"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
)

// ErrNoOpenSession is returned when the cashier has no open cash session.
var ErrNoOpenSession = errors.New("platform: no open cash session")

// ErrUnauthorized is returned when the platform rejects the terminal's
// credentials.
var ErrUnauthorized = errors.New("platform: unauthorized")

// Client is the boundary to the backing platform. The terminal owns pricing
// and checkout orchestration; the platform owns persistence, stock and auth.
type Client interface {
	// LookupProduct resolves a barcode (exact) or name fragment
	// (case-insensitive) to an active product. Returns catalog.ErrNotFound
	// when nothing matches.
	LookupProduct(ctx context.Context, query string) (catalog.Product, error)

	// SubmitSale persists a completed sale atomically (sale row, items,
	// stock movements) and returns the assigned invoice number. Callers
	// must not retry on ambiguous failures; the terminal's idempotency key
	// guards double submission instead.
	SubmitSale(ctx context.Context, req SaleRequest) (SaleResult, error)

	// FetchSettings returns the store configuration row.
	FetchSettings(ctx context.Context) (Settings, error)

	// ActiveCashSession returns the cashier's open drawer session, or
	// ErrNoOpenSession.
	ActiveCashSession(ctx context.Context, cashierID string) (CashSession, error)

	// CurrentUser resolves the bearer token to the signed-in cashier.
	CurrentUser(ctx context.Context, token string) (User, error)
}
