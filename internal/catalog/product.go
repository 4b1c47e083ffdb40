package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no product matches the scanned code.
var ErrNotFound = errors.New("catalog: product not found")

// Product is the sellable item as shown on the register. Price is in
// rupiah (minor units are not used for IDR).
type Product struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
	Stock    int    `json:"stock"`
	Active   bool   `json:"active"`
}

// Source resolves products from the backing platform. The query is an exact
// barcode first, falling back to a case-insensitive partial name match.
// Implementations return ErrNotFound (possibly wrapped) when nothing matches.
type Source interface {
	LookupProduct(ctx context.Context, query string) (Product, error)
}
