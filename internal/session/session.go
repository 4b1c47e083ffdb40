package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
)

// ErrNoSession is returned when a checkout is attempted before sign-in.
var ErrNoSession = errors.New("session: no active cashier session")

// Session ties the signed-in cashier to their open cash drawer. Checkout
// refuses to submit a sale without both, so the platform can always attribute
// a transaction to a drawer.
type Session struct {
	Cashier platform.User        `json:"cashier"`
	Drawer  platform.CashSession `json:"drawer"`
}

// SettingsCache is the slice of the settings service sign-out needs: the
// next shift starts from fresh platform settings instead of the previous
// shift's cache.
type SettingsCache interface {
	Invalidate(ctx context.Context)
}

// Manager holds the terminal's current session. One register, one cashier at
// a time; a new sign-in replaces the previous session.
type Manager struct {
	Platform platform.Client
	Settings SettingsCache
	Logger   zerolog.Logger

	mu      sync.RWMutex
	current *Session
}

// SignIn resolves the token to a cashier and loads their open cash session.
func (m *Manager) SignIn(ctx context.Context, token string) (Session, error) {
	if m.Platform == nil {
		return Session{}, errors.New("session: platform client not configured")
	}
	user, err := m.Platform.CurrentUser(ctx, token)
	if err != nil {
		return Session{}, fmt.Errorf("resolve cashier: %w", err)
	}
	drawer, err := m.Platform.ActiveCashSession(ctx, user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("load cash session: %w", err)
	}
	sess := Session{Cashier: user, Drawer: drawer}
	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()
	m.Logger.Info().Str("cashier_id", user.ID).Str("cash_session_id", drawer.ID).Msg("cashier signed in")
	return sess, nil
}

// SignOut clears the current session and drops the cached store settings.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	if m.current != nil {
		m.Logger.Info().Str("cashier_id", m.current.Cashier.ID).Msg("cashier signed out")
	}
	m.current = nil
	m.mu.Unlock()
	if m.Settings != nil {
		m.Settings.Invalidate(ctx)
	}
}

// Current returns the active session or ErrNoSession.
func (m *Manager) Current() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, ErrNoSession
	}
	return *m.current, nil
}
