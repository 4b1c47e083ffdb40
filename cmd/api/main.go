package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/cart"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/checkout"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/common"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/config"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/health"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/lock"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/obs"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/ratelimit"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/resilience"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/security"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/session"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-terminal-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	breaker := resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).
		WithTarget("platform").
		WithLogger(logger)

	platformClient, err := platform.NewREST(platform.RESTConfig{
		BaseURL:     cfg.PlatformBaseURL,
		APIKey:      cfg.PlatformAPIKey,
		Timeout:     cfg.PlatformTimeout,
		RetryBase:   cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      cfg.RetryJitterPercent,
		Breaker:     breaker,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise platform client")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Source: platformClient,
		Cache:  catalog.NewCache(redisClient, cfg.ProductCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	settingsSvc := &settings.Service{
		Platform: platformClient,
		Redis:    redisClient,
		TTL:      cfg.SettingsCacheTTL,
		Logger:   logger,
	}
	settingsHandler := &settings.Handler{Service: settingsSvc}

	sessionMgr := &session.Manager{Platform: platformClient, Settings: settingsSvc, Logger: logger}
	sessionHandler := &session.Handler{Manager: sessionMgr}

	bus := &events.Bus{}
	bus.Subscribe(eventLogger(logger))
	bus.Subscribe(catalog.SaleNotifier(catalogService))

	cartStore := &cart.Store{R: redisClient, TTL: cfg.CartTTL}
	cartSvc := &cart.Service{
		Store:    cartStore,
		Products: catalogService,
		Events:   bus,
		Lock:     &lock.Locker{R: redisClient},
	}
	cartHandler := &cart.Handler{Service: cartSvc, Settings: settingsSvc}

	receiptStore := &receipt.Store{R: redisClient, TTL: cfg.ReceiptTTL}
	receiptHandler := &receipt.Handler{Store: receiptStore, Settings: settingsSvc}

	checkoutSvc := &checkout.Service{
		Carts:    cartSvc,
		Platform: platformClient,
		Settings: settingsSvc,
		Session:  sessionMgr,
		Receipts: receiptStore,
		Events:   bus,
		Logger:   logger,
	}
	checkoutHandler := &checkout.Handler{Service: checkoutSvc, Settings: settingsSvc}
	cartSvc.Guard = checkoutSvc

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	lookupLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:lookup:"},
		Config: ratelimit.Config{
			Key:    ratelimit.TerminalKey,
			Window: cfg.LookupRateWindow,
			Max:    cfg.LookupRateMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Terminal-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:         health.Deps{Redis: redisClient, Platform: platformClient},
		RedisTimeout:    envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		PlatformTimeout: envDurationMillis("HEALTH_READY_PLATFORM_TIMEOUT_MS", 800),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1/pos", func(pos chi.Router) {
		pos.Use(common.TerminalMiddleware)

		pos.With(lookupLimit.Middleware).Post("/lookup", catalogHandler.Lookup)

		pos.Get("/settings", settingsHandler.Get)
		pos.Get("/receipt/{invoice}", receiptHandler.Get)

		pos.Route("/session", func(s chi.Router) {
			s.Get("/", sessionHandler.Current)
			s.Post("/sign-in", sessionHandler.SignIn)
			s.Post("/sign-out", sessionHandler.SignOut)
		})

		pos.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Get("/summary", cartHandler.Summary)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{productId}", cartHandler.UpdateLine)
			c.Delete("/items/{productId}", cartHandler.RemoveLine)
			c.Put("/discount", cartHandler.SetDiscount)
			c.Delete("/", cartHandler.Clear)
		})

		pos.Route("/checkout", func(c chi.Router) {
			c.Get("/", checkoutHandler.Status)
			c.Post("/begin", checkoutHandler.Begin)
			c.Post("/cancel", checkoutHandler.Cancel)
			c.With(idem.Middleware).Post("/pay", checkoutHandler.Pay)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// eventLogger mirrors every domain event into the structured log so an
// operator can reconstruct a shift from the log stream alone.
func eventLogger(logger zerolog.Logger) events.NotifierFunc {
	return func(ctx context.Context, evt events.Event) error {
		logger.Info().
			Str("topic", evt.Topic).
			Str("terminal_id", evt.TerminalID).
			RawJSON("payload", evt.Payload).
			Time("occurred_at", evt.OccurredAt).
			Msg("domain event")
		return nil
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
