package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
)

// Deps probes the terminal's two runtime dependencies.
type Deps struct {
	Redis    *redis.Client
	Platform platform.Client
}

// PingRedis implements Checker.
func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// PingPlatform implements Checker. A settings fetch doubles as the probe.
func (d Deps) PingPlatform(ctx context.Context, timeout time.Duration) error {
	if d.Platform == nil {
		return errors.New("platform not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := d.Platform.FetchSettings(ctx)
	return err
}
