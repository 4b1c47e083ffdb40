package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
)

const cacheKey = "pos:settings"

// Service resolves the effective store settings. Values are cached in Redis
// with a TTL; if the platform is unreachable the register keeps selling with
// the last known (or default) configuration.
type Service struct {
	Platform platform.Client
	Redis    *redis.Client
	TTL      time.Duration
	Logger   zerolog.Logger

	mu   sync.Mutex
	last *Settings
}

// Effective returns the current settings, consulting cache, then platform,
// then fallbacks.
func (s *Service) Effective(ctx context.Context) Settings {
	if s.Redis != nil {
		if data, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Settings
			if json.Unmarshal(data, &cached) == nil {
				s.remember(cached)
				return cached
			}
		}
	}
	if s.Platform != nil {
		row, err := s.Platform.FetchSettings(ctx)
		if err == nil {
			effective := FromPlatform(row)
			s.store(ctx, effective)
			s.remember(effective)
			return effective
		}
		s.Logger.Warn().Err(err).Msg("settings fetch failed, using last known values")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		return *s.last
	}
	return Defaults()
}

// Invalidate drops the cached settings so the next read hits the platform.
func (s *Service) Invalidate(ctx context.Context) {
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, cacheKey).Err()
	}
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

func (s *Service) store(ctx context.Context, v Settings) {
	if s.Redis == nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.Redis.Set(ctx, cacheKey, data, ttl).Err()
}

func (s *Service) remember(v Settings) {
	s.mu.Lock()
	s.last = &v
	s.mu.Unlock()
}

// Handler exposes GET /api/v1/pos/settings.
type Handler struct {
	Service *Service
}

// Get returns the effective settings for the terminal UI.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Service.Effective(r.Context())})
}
