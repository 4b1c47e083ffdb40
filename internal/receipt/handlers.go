package receipt

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/obs"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

// Handler serves formatted receipts for reprint.
type Handler struct {
	Store    *Store
	Settings *settings.Service
}

// Get handles GET /api/v1/pos/receipt/{invoice}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	invoice := chi.URLParam(r, "invoice")
	if invoice == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invoice number is required", nil)
		return
	}
	sale, err := h.Store.Get(r.Context(), invoice)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "receipt not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	cfg := settings.Defaults()
	if h.Settings != nil {
		cfg = h.Settings.Effective(r.Context())
	}
	obs.CountReceiptReprint()
	common.JSON(w, http.StatusOK, map[string]any{"data": Format(sale, cfg)})
}
