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
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sugarnest/bakery-api/internal/cart"
	"github.com/sugarnest/bakery-api/internal/catalog"
	"github.com/sugarnest/bakery-api/internal/checkout"
	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/config"
	"github.com/sugarnest/bakery-api/internal/events"
	"github.com/sugarnest/bakery-api/internal/favorites"
	"github.com/sugarnest/bakery-api/internal/health"
	"github.com/sugarnest/bakery-api/internal/lock"
	"github.com/sugarnest/bakery-api/internal/notify"
	"github.com/sugarnest/bakery-api/internal/obs"
	"github.com/sugarnest/bakery-api/internal/order"
	"github.com/sugarnest/bakery-api/internal/ratelimit"
	"github.com/sugarnest/bakery-api/internal/resilience"
	"github.com/sugarnest/bakery-api/internal/security"
	"github.com/sugarnest/bakery-api/internal/shipping"
	"github.com/sugarnest/bakery-api/internal/store"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "sugarnest")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "bakery-api",
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
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if envBool("DB_RUN_MIGRATIONS", true) {
		if err := runMigrations(cfg); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	pool := mustInitDatabase(startCtx, cfg, logger)
	defer pool.Close()
	st := store.New(pool)

	redisClient := mustInitRedis(startCtx, cfg, logger, metricsEnabled)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	validate := validator.New(validator.WithRequiredStructEnabled())

	asynqClient := asynq.NewClient(asynqRedisOpt(redisClient))
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	enqueuer := &notify.Enqueuer{Client: asynqClient, Logger: logger}

	bus := &events.Bus{
		Store:     st,
		Notifiers: []events.Notifier{logNotifier{logger: logger}},
	}

	voucherSvc := &voucher.Service{Q: st, DefaultPerUserLimit: cfg.VoucherPerUserMax}
	voucherHandler := &voucher.Handler{Svc: voucherSvc}

	catalogSvc := &catalog.Service{
		Q:        st,
		Vouchers: voucherSvc,
		Cache:    catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	cartSvc := &cart.Service{Q: st, Vouchers: voucherSvc, Events: bus, TTL: cfg.CartTTL}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{
		Pool:     pool,
		Store:    st,
		Locker:   lock.Locker{Client: redisClient},
		Events:   bus,
		Notify:   enqueuer,
		Validate: validate,
		Logger:   logger,
		Currency: cfg.Currency,
		LockTTL:  envDurationMillis("CHECKOUT_LOCK_TTL_MS", 10000),
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	orderHandler := &order.Handler{Q: st}
	favoritesSvc := &favorites.Service{Q: st}
	favoritesHandler := &favorites.Handler{Svc: favoritesSvc}

	shippingHandler := &shipping.Handler{
		Client:   newShippingClient(cfg, logger),
		Validate: validate,
	}

	idem := common.Idem{R: redisClient, TTL: envDurationMillis("IDEMPOTENCY_TTL_MS", 86400000)}

	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl"},
		Config: ratelimit.Config{
			Key:    ratelimit.KeyByClient,
			Window: envDurationMillis("RATE_LIMIT_WINDOW_MS", 60000),
			Max:    envInt("RATE_LIMIT_MAX", 300),
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
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
	r.Use(security.Headers{
		Enable:     true,
		EnableHSTS: envBool("SECURE_HSTS", false),
		HSTSMaxAge: envInt("SECURE_HSTS_MAX_AGE", 31536000),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Anonymous-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(common.IdentityMiddleware)
	r.Use(limiter.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := &health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/v1", func(v chi.Router) {
		catalogHandler.Routes(v)
		orderHandler.Routes(v)
		favoritesHandler.Routes(v)

		v.Get("/vouchers", voucherHandler.List)
		v.Post("/vouchers/preview", voucherHandler.Preview)
		v.Post("/shipping/quote", shippingHandler.Quote)

		v.Group(func(g chi.Router) {
			g.Use(idem.Middleware)
			cartHandler.Routes(g)
			g.Post("/checkout", checkoutHandler.Create)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		healthHandler.SetDraining(true)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown http server")
		}
		logger.Info().Msg("server shutdown complete")
	}
}

// logNotifier records emitted domain events; email delivery happens through
// the task queue, not the bus.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	n.logger.Info().
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID.String()).
		Msg("domain event")
	return nil
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func newShippingClient(cfg *config.Config, logger zerolog.Logger) shipping.Client {
	if cfg.DeliveryAPIBaseURL == "" {
		return shipping.MockClient{FreeOver: envInt64("SHIPPING_FREE_OVER", 500000)}
	}
	breaker := resilience.NewBreaker(
		envInt("CIRCUIT_DELIVERY_MIN_REQ", 10),
		envFloat("CIRCUIT_DELIVERY_FAILURE_RATE", 0.5),
		envDurationMillis("CIRCUIT_DELIVERY_OPEN_FOR_MS", 30000),
	).WithTarget("delivery-quote").WithLogger(logger)
	return &shipping.DeliveryClient{
		BaseURL: cfg.DeliveryAPIBaseURL,
		APIKey:  cfg.DeliveryAPIKey,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     breaker,
			BaseBackoff: envDurationMillis("RETRY_BASE_MS", 100),
			MaxAttempts: envInt("RETRY_MAX_ATTEMPTS", 3),
			Jitter:      envFloat("RETRY_JITTER", 0.2),
			Timeout:     envDurationMillis("OUTBOUND_TIMEOUT_MS", 3000),
		},
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "bakery-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metricsEnabled bool) *redis.Client {
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func asynqRedisOpt(client *redis.Client) asynq.RedisClientOpt {
	opts := client.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
