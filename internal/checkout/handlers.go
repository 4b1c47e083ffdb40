package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/session"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

var validate = validator.New()

// Handler exposes the checkout endpoints.
type Handler struct {
	Service  *Service
	Settings *settings.Service
}

type payRequest struct {
	Method   string `json:"method" validate:"required,oneof=tunai qris transfer e-wallet"`
	Tendered int64  `json:"tendered" validate:"gte=0"`
}

// Begin handles POST /api/v1/pos/checkout/begin.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	status, err := h.Service.Begin(r.Context(), terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": status})
}

// Cancel handles POST /api/v1/pos/checkout/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	status, err := h.Service.Cancel(r.Context(), terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": status})
}

// Status handles GET /api/v1/pos/checkout.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Service.CurrentStatus(terminalID)})
}

// Pay handles POST /api/v1/pos/checkout/pay. On success it returns the
// completed sale together with the print-ready receipt document.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "method must be one of tunai, qris, transfer, e-wallet", nil)
		return
	}
	sale, err := h.Service.Pay(r.Context(), terminalID, req.Method, req.Tendered)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cfg := settings.Defaults()
	if h.Settings != nil {
		cfg = h.Settings.Effective(r.Context())
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"sale":    sale,
		"receipt": receipt.Format(sale, cfg),
	}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrInsufficientPayment):
		common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT", "tendered amount is below the amount due", nil)
	case errors.Is(err, ErrInvalidMethod):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payment method", nil)
	case errors.Is(err, ErrNotAwaitingPayment):
		common.JSONError(w, http.StatusConflict, "NOT_AWAITING_PAYMENT", "no payment is awaiting confirmation", nil)
	case errors.Is(err, ErrSubmissionInFlight):
		common.JSONError(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT", "a submission is already in progress", nil)
	case errors.Is(err, session.ErrNoSession):
		common.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "no cashier session; sign in first", nil)
	case errors.Is(err, ErrSubmission):
		common.JSONError(w, http.StatusBadGateway, "SUBMISSION_FAILED", "sale submission failed", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
