package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/obs"
)

// Service resolves scanned codes to products, caching positive hits so a
// register that scans the same SKU all day does not keep hitting the
// backing platform.
type Service struct {
	source Source
	cache  *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source Source
	Cache  *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: product source is required")
	}
	return &Service{source: cfg.Source, cache: cfg.Cache}, nil
}

// Lookup resolves a scanned barcode or typed name fragment to a sellable
// product. Inactive products are treated as not found so discontinued items
// cannot be rung up.
func (s *Service) Lookup(ctx context.Context, query string) (Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Product{}, badRequest("query", "query is required", nil)
	}
	key := productCacheKey(query)
	if s.cache != nil {
		var cached Product
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			obs.CountLookup("hit")
			return cached, nil
		}
	}
	product, err := s.source.LookupProduct(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.CountLookup("miss")
			return Product{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		obs.CountLookup("error")
		return Product{}, fmt.Errorf("lookup product: %w", err)
	}
	if !product.Active {
		obs.CountLookup("miss")
		return Product{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: ErrNotFound}
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, product)
	}
	obs.CountLookup("hit")
	return product, nil
}

// InvalidateCodes drops cached entries for the given codes. Called after a
// completed sale so the next scan reflects the platform's updated stock.
func (s *Service) InvalidateCodes(ctx context.Context, codes ...string) {
	if s.cache == nil {
		return
	}
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		_ = s.cache.Invalidate(ctx, productCacheKey(code))
	}
}

func productCacheKey(query string) string {
	return "catalog:product:" + strings.ToLower(query)
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
