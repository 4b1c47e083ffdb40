package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":         "redis://localhost:6379/0",
		"PLATFORM_BASE_URL": "https://platform.example.com/",
		"PORT":              "",
		"CART_TTL":          "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "IDR", cfg.CurrencyCode)
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, "https://platform.example.com", cfg.PlatformBaseURL)
}

func TestLoadRequiresRedis(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":         "",
		"PLATFORM_BASE_URL": "https://platform.example.com",
	})
	require.Error(t, err)
}

func TestLoadRequiresPlatform(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":         "redis://localhost:6379/0",
		"PLATFORM_BASE_URL": "",
	})
	require.Error(t, err)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":         "redis://localhost:6379/0",
		"PLATFORM_BASE_URL": "https://platform.example.com",
		"SETTINGS_CACHE_TTL": "bogus",
	})
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
}
