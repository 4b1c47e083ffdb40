package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
)

// Handler exposes sign-in/sign-out for the terminal.
type Handler struct {
	Manager *Manager
}

type signInRequest struct {
	Token string `json:"token"`
}

// SignIn handles POST /api/v1/pos/session/sign-in.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	sess, err := h.Manager.SignIn(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, platform.ErrUnauthorized):
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
		case errors.Is(err, platform.ErrNoOpenSession):
			common.JSONError(w, http.StatusConflict, "NO_OPEN_DRAWER", "open a cash session before selling", nil)
		default:
			common.JSONError(w, http.StatusBadGateway, "PLATFORM_ERROR", "could not reach the platform", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, sess)
}

// SignOut handles POST /api/v1/pos/session/sign-out.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.Manager.SignOut(r.Context())
	common.JSONData(w, http.StatusOK, map[string]any{"signedOut": true})
}

// Current handles GET /api/v1/pos/session.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Manager.Current()
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "no cashier session", nil)
		return
	}
	common.JSONData(w, http.StatusOK, sess)
}
