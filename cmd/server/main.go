package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/breaker"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/httpserver"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/metrics"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/mysql"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/postgres"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/redis"
	"github.com/architgupta225/Anonn-app-sub003/internal/analytics"
	"github.com/architgupta225/Anonn-app-sub003/internal/app"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/config"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/logging"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/retry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

const startupTimeout = 30 * time.Second

type storeResult struct {
	store        domain.ReviewStore
	healthChecks []httpserver.HealthCheck
	close        func()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func startupPolicy(clock clockwork.Clock, dependency string) retry.Policy {
	p := retry.StartupPolicy(clock)
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not reachable, retrying", "dependency", dependency, "attempt", attempt, "backoff", backoff, "error", err)
	}
	return p
}

func setupPostgres(ctx context.Context, cfg *config.Config, clock clockwork.Clock) storeResult {
	pool, err := retry.Do(ctx, startupPolicy(clock, "postgres"), retry.UnlessCanceled, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	return storeResult{
		store:        postgres.NewReviewRepo(pool, cfg.StoreQueryTimeout),
		healthChecks: []httpserver.HealthCheck{{Name: "postgres", Critical: true, Check: pool.Ping}},
		close:        pool.Close,
	}
}

func setupMySQL(ctx context.Context, cfg *config.Config, clock clockwork.Clock) storeResult {
	db, err := retry.Do(ctx, startupPolicy(clock, "mysql"), retry.UnlessCanceled, func(ctx context.Context) (*sql.DB, error) {
		return mysql.Connect(ctx, cfg.MySQLDSN)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	return storeResult{
		store:        mysql.NewReviewRepo(db, cfg.StoreQueryTimeout),
		healthChecks: []httpserver.HealthCheck{{Name: "mysql", Critical: true, Check: db.PingContext}},
		close:        func() { _ = db.Close() },
	}
}

func setupReviewStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) storeResult {
	var res storeResult
	switch cfg.ReviewStoreDriver {
	case config.DriverMySQL:
		res = setupMySQL(ctx, cfg, clock)
	default:
		res = setupPostgres(ctx, cfg, clock)
	}

	settings := breaker.DefaultSettings()
	settings.FailureThreshold = uint(cfg.StoreBreakerFailures)
	settings.Delay = cfg.StoreBreakerDelay
	res.store = breaker.NewReviewStore(res.store, settings, metrics.NewBreakerMetrics(reg))
	return res
}

func setupRedis(ctx context.Context, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) *goredis.Client {
	redisMetrics := metrics.NewRedisMetrics(reg)
	client, err := retry.Do(ctx, startupPolicy(clock, "redis"), retry.UnlessCanceled, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, redisMetrics)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func analyticsSettings(cfg *config.Config) app.AnalyticsSettings {
	return app.AnalyticsSettings{
		Policy: domain.RiskPolicy{
			WindowDays:       cfg.WindowDays,
			ThresholdPercent: cfg.RiskThresholdPercent,
		},
		TrendPeriodDays: cfg.TrendPeriodDays,
	}
}

func runGracefulShutdown(srv *httpserver.Server, stopBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopBackground()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "review_store", cfg.ReviewStoreDriver)

	registry := metrics.NewRegistry()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	storeRes := setupReviewStore(startupCtx, cfg, clock, registry)
	defer storeRes.close()
	healthChecks := storeRes.healthChecks

	var shared domain.AnalyticsCache
	var redisClient *goredis.Client
	if cfg.SharedCacheEnabled() {
		redisClient = setupRedis(startupCtx, cfg, clock, registry)
		defer func() { _ = redisClient.Close() }()
		shared = redis.NewAnalyticsCache(redisClient, cfg.CacheTTL)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	classifier := analytics.NewClassifier(cfg.NegativeMeanThreshold)
	aggregator := analytics.NewAggregator(storeRes.store, classifier)
	evaluator := analytics.NewEvaluator(aggregator)
	bucketer := analytics.NewBucketer(storeRes.store)

	cacheMetrics := metrics.NewCacheMetrics(registry)
	resultCache := analytics.NewResultCache(cfg.CacheTTL, clock)
	stopEviction := resultCache.StartEvictionTimer(cfg.CacheEvictionInterval, cacheMetrics.ObserveSweep)
	defer stopEviction()

	facade := app.NewAnalytics(evaluator, bucketer, analyticsSettings(cfg), resultCache, shared,
		metrics.NewAnalyticsMetrics(registry), cacheMetrics, clock)

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if redisClient != nil {
		subscriber := redis.NewInvalidationSubscriber(redisClient, facade)
		go subscriber.Start(backgroundCtx)
	}

	srv := httpserver.NewServer(cfg, facade, healthChecks, registry, metrics.NewHTTPMetrics(registry), clock)

	done := runGracefulShutdown(srv, stopBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
