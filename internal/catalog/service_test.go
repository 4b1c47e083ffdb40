package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
)

type fakeSource struct {
	products map[string]catalog.Product
	calls    int
}

func (f *fakeSource) LookupProduct(_ context.Context, code string) (catalog.Product, error) {
	f.calls++
	p, ok := f.products[code]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func newTestCache(t *testing.T) *catalog.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCache(client, time.Minute)
}

func TestLookupCachesHits(t *testing.T) {
	source := &fakeSource{products: map[string]catalog.Product{
		"8992761111113": {ID: "p-1", SKU: "AQG600", Barcode: "8992761111113", Name: "Aqua Gelas 600ml", Price: 4000, Stock: 120, Active: true},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: source, Cache: newTestCache(t)})
	require.NoError(t, err)

	first, err := svc.Lookup(context.Background(), "8992761111113")
	require.NoError(t, err)
	require.Equal(t, int64(4000), first.Price)

	second, err := svc.Lookup(context.Background(), "8992761111113")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, source.calls)
}

func TestSaleNotifierDropsSoldProductsFromCache(t *testing.T) {
	source := &fakeSource{products: map[string]catalog.Product{
		"8992761111113": {ID: "p-1", SKU: "AQG600", Barcode: "8992761111113", Name: "Aqua Gelas 600ml", Price: 4000, Stock: 120, Active: true},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: source, Cache: newTestCache(t)})
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "8992761111113")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)

	notifier := catalog.SaleNotifier(svc)
	require.NoError(t, notifier(context.Background(), events.Event{
		Topic:   events.TopicSaleCompleted,
		Payload: json.RawMessage(`{"items":[{"barcode":"8992761111113","sku":"AQG600","name":"Aqua Gelas 600ml"}]}`),
	}))

	// The platform decremented stock during the sale; the next scan must see
	// the fresh row, not the cached one.
	source.products["8992761111113"] = catalog.Product{
		ID: "p-1", SKU: "AQG600", Barcode: "8992761111113", Name: "Aqua Gelas 600ml", Price: 4000, Stock: 118, Active: true,
	}
	fresh, err := svc.Lookup(context.Background(), "8992761111113")
	require.NoError(t, err)
	require.Equal(t, 118, fresh.Stock)
	require.Equal(t, 2, source.calls)
}

func TestSaleNotifierIgnoresOtherTopics(t *testing.T) {
	source := &fakeSource{products: map[string]catalog.Product{
		"TEH-250": {ID: "p-2", SKU: "TEH-250", Name: "Teh Botol 250ml", Price: 3500, Active: true},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: source, Cache: newTestCache(t)})
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "TEH-250")
	require.NoError(t, err)

	notifier := catalog.SaleNotifier(svc)
	require.NoError(t, notifier(context.Background(), events.Event{
		Topic:   events.TopicCartCleared,
		Payload: json.RawMessage(`{}`),
	}))

	_, err = svc.Lookup(context.Background(), "TEH-250")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls, "a cleared cart must not evict cached products")
}

func TestLookupUnknownCode(t *testing.T) {
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: &fakeSource{}})
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "0000000000000")
	require.Error(t, err)
}

func TestLookupInactiveProductHidden(t *testing.T) {
	source := &fakeSource{products: map[string]catalog.Product{
		"OLD-1": {ID: "p-9", SKU: "OLD-1", Name: "Discontinued", Price: 1000, Active: false},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: source})
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "OLD-1")
	require.Error(t, err)
}

func TestLookupHandler(t *testing.T) {
	source := &fakeSource{products: map[string]catalog.Product{
		"TEH-250": {ID: "p-2", SKU: "TEH-250", Name: "Teh Botol 250ml", Price: 3500, Stock: 48, Active: true},
	}}
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: source})
	require.NoError(t, err)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/lookup", strings.NewReader(`{"query":"TEH-250"}`))
	rec := httptest.NewRecorder()
	handler.Lookup(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Teh Botol 250ml", body.Data.Name)

	missReq := httptest.NewRequest(http.MethodPost, "/api/v1/pos/lookup", strings.NewReader(`{"query":"NOPE"}`))
	missRec := httptest.NewRecorder()
	handler.Lookup(missRec, missReq)
	require.Equal(t, http.StatusNotFound, missRec.Code)

	emptyReq := httptest.NewRequest(http.MethodPost, "/api/v1/pos/lookup", strings.NewReader(`{}`))
	emptyRec := httptest.NewRecorder()
	handler.Lookup(emptyRec, emptyReq)
	require.Equal(t, http.StatusBadRequest, emptyRec.Code)
}
