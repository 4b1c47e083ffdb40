package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
)

// Mock is an in-memory Client for tests and offline development. Products
// are matched the way the platform does: exact barcode first, then
// case-insensitive partial name.
type Mock struct {
	mu       sync.Mutex
	Products []catalog.Product
	Config   Settings
	Session  CashSession
	Cashier  User
	SubmitFn func(ctx context.Context, req SaleRequest) (SaleResult, error)

	Submitted []SaleRequest
	seq       int
}

// NewMock seeds a mock with a small assortment and an open session.
func NewMock() *Mock {
	return &Mock{
		Products: []catalog.Product{
			{ID: "p-aqua", SKU: "AQG600", Barcode: "8992761111113", Name: "Aqua Gelas 600ml", Price: 4000, Unit: "pcs", Stock: 120, Active: true},
			{ID: "p-teh", SKU: "TEH-250", Barcode: "8996001600146", Name: "Teh Botol 250ml", Price: 3500, Unit: "pcs", Stock: 48, Active: true},
			{ID: "p-indomie", SKU: "IDM-GRG", Barcode: "089686010947", Name: "Indomie Goreng", Price: 3000, Unit: "pcs", Stock: 200, Active: true},
		},
		Config: Settings{
			StoreName:    "TOKO SAHABAT MINIMARKET",
			StoreAddress: "JL. MERDEKA NO. 123, BANDUNG",
			StorePhone:   "Telp: 021-12345678",
			TaxRate:      11,
			CurrencyCode: "IDR",
		},
		Session: CashSession{ID: "cs-1", CashierID: "u-1", OpeningBalance: 500_000, OpenedAt: time.Now()},
		Cashier: User{ID: "u-1", Name: "Kasir Satu", Email: "kasir1@example.com", Role: "cashier"},
	}
}

// LookupProduct implements Client and catalog.Source.
func (m *Mock) LookupProduct(_ context.Context, query string) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	query = strings.TrimSpace(query)
	for _, p := range m.Products {
		if p.Active && (p.Barcode == query || p.SKU == query) {
			return p, nil
		}
	}
	lower := strings.ToLower(query)
	for _, p := range m.Products {
		if p.Active && strings.Contains(strings.ToLower(p.Name), lower) {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

// SubmitSale implements Client. Each accepted sale gets a sequential
// invoice number in the platform's INV-YYYYMMDD-NNNN format.
func (m *Mock) SubmitSale(ctx context.Context, req SaleRequest) (SaleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}
	m.Submitted = append(m.Submitted, req)
	m.seq++
	now := time.Now()
	return SaleResult{
		SaleID:        uuid.NewString(),
		InvoiceNumber: fmt.Sprintf("INV-%s-%04d", now.Format("20060102"), m.seq),
		CompletedAt:   now,
	}, nil
}

// FetchSettings implements Client.
func (m *Mock) FetchSettings(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Config, nil
}

// ActiveCashSession implements Client.
func (m *Mock) ActiveCashSession(_ context.Context, cashierID string) (CashSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Session.ID == "" || m.Session.CashierID != cashierID {
		return CashSession{}, ErrNoOpenSession
	}
	return m.Session, nil
}

// CurrentUser implements Client.
func (m *Mock) CurrentUser(_ context.Context, token string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(token) == "" {
		return User{}, ErrUnauthorized
	}
	return m.Cashier, nil
}
