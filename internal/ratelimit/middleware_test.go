package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/ratelimit"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: client, Prefix: "rl:"},
		Config: ratelimit.Config{
			Key:    ratelimit.TerminalKey,
			Window: time.Minute,
			Max:    2,
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := common.TerminalMiddleware(handler.Middleware(next))

	do := func(terminal string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/pos/lookup", nil)
		req.Header.Set(common.TerminalHeader, terminal)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do("term-1").Code)
	require.Equal(t, http.StatusOK, do("term-1").Code)

	limited := do("term-1")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.NotEmpty(t, limited.Header().Get("Retry-After"))

	// Another terminal has its own window.
	require.Equal(t, http.StatusOK, do("term-2").Code)
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	var seen error
	handler := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: client, Prefix: "rl:"},
		Config:  ratelimit.Config{Key: ratelimit.TerminalKey, Window: time.Minute, Max: 1},
		OnError: func(err error) { seen = err },
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/pos/lookup", nil)
	rec := httptest.NewRecorder()
	handler.Middleware(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, seen)
}
