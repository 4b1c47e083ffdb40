package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

var validate = validator.New()

// Handler exposes the cart endpoints for a terminal. The terminal id comes
// from the request context (set by common.TerminalMiddleware).
type Handler struct {
	Service  *Service
	Settings *settings.Service
}

type addItemRequest struct {
	Query string `json:"query" validate:"required"`
}

type updateLineRequest struct {
	Quantity *int   `json:"quantity"`
	Discount *int64 `json:"discount"`
}

type globalDiscountRequest struct {
	Type  string `json:"type" validate:"required,oneof=percent amount"`
	Value int64  `json:"value" validate:"gte=0"`
}

// Get handles GET /api/v1/pos/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	c, err := h.Service.Get(r.Context(), terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// AddItem handles POST /api/v1/pos/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "query is required", nil)
		return
	}
	c, err := h.Service.AddItem(r.Context(), terminalID, req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// UpdateLine handles PATCH /api/v1/pos/cart/items/{productId}. Accepts a new
// quantity, a new line discount, or both.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	productID := chi.URLParam(r, "productId")
	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if req.Quantity == nil && req.Discount == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity or discount is required", nil)
		return
	}
	var (
		c   *Cart
		err error
	)
	if req.Quantity != nil {
		c, err = h.Service.UpdateQuantity(r.Context(), terminalID, productID, *req.Quantity)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Discount != nil {
		c, err = h.Service.UpdateLineDiscount(r.Context(), terminalID, productID, *req.Discount)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// RemoveLine handles DELETE /api/v1/pos/cart/items/{productId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	c, err := h.Service.RemoveItem(r.Context(), terminalID, chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// SetDiscount handles PUT /api/v1/pos/cart/discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	var req globalDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "type must be percent or amount and value must be >= 0", nil)
		return
	}
	c, err := h.Service.SetGlobalDiscount(r.Context(), terminalID, req.Type, req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Clear handles DELETE /api/v1/pos/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	if err := h.Service.Clear(r.Context(), terminalID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"cleared": true}})
}

// Summary handles GET /api/v1/pos/cart/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := common.TerminalID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "terminal id is required", nil)
		return
	}
	taxBps := settings.Defaults().TaxBps()
	if h.Settings != nil {
		taxBps = h.Settings.Effective(r.Context()).TaxBps()
	}
	summary, err := h.Service.Summarize(r.Context(), terminalID, taxBps)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "line not found", nil)
		return
	case errors.Is(err, ErrDiscountOutOfRange):
		common.JSONError(w, http.StatusBadRequest, "DISCOUNT_OUT_OF_RANGE", "discount out of range", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
