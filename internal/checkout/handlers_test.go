package checkout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/checkout"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
)

func newCheckoutRouter(f *fixture) chi.Router {
	h := &checkout.Handler{Service: f.svc}
	r := chi.NewRouter()
	r.Use(common.TerminalMiddleware)
	r.Get("/pos/checkout", h.Status)
	r.Post("/pos/checkout/begin", h.Begin)
	r.Post("/pos/checkout/cancel", h.Cancel)
	r.Post("/pos/checkout/pay", h.Pay)
	return r
}

func doCheckout(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(common.TerminalHeader, term)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutHandlersHappyPath(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	router := newCheckoutRouter(f)

	rec := doCheckout(router, http.MethodPost, "/pos/checkout/begin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var beginResp struct {
		Data checkout.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &beginResp))
	require.Equal(t, int64(22200), beginResp.Data.AmountDue)

	rec = doCheckout(router, http.MethodPost, "/pos/checkout/pay", `{"method":"tunai","tendered":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var payResp struct {
		Data struct {
			Sale    receipt.Sale     `json:"sale"`
			Receipt receipt.Document `json:"receipt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payResp))
	require.Equal(t, int64(27800), payResp.Data.Sale.Change)
	require.Equal(t, "Rp 22.200", payResp.Data.Receipt.Total)
	require.Equal(t, "TUNAI", payResp.Data.Receipt.PaymentMethod)
}

func TestCheckoutHandlersErrors(t *testing.T) {
	f := newFixture(t)
	router := newCheckoutRouter(f)

	rec := doCheckout(router, http.MethodPost, "/pos/checkout/begin", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doCheckout(router, http.MethodPost, "/pos/checkout/pay", `{"method":"cek","tendered":100}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.fillCart(t)
	rec = doCheckout(router, http.MethodPost, "/pos/checkout/begin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doCheckout(router, http.MethodPost, "/pos/checkout/pay", `{"method":"tunai","tendered":100}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
