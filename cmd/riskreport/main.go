// Command riskreport computes the analytics of one organization straight from
// the review store and prints them as JSON. It bypasses every cache.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/mysql"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/postgres"
	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/redis"
	"github.com/architgupta225/Anonn-app-sub003/internal/analytics"
	"github.com/architgupta225/Anonn-app-sub003/internal/app"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/config"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/logging"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/version"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const queryTimeout = 30 * time.Second

type report struct {
	*domain.Analytics
	WindowDays       int     `json:"windowDays"`
	ThresholdPercent float64 `json:"thresholdPercent"`
	PeriodDays       int     `json:"periodDays"`
}

func main() {
	var (
		orgFlag    = flag.String("org", "", "Organization UUID (required)")
		asOfFlag   = flag.String("as-of", "", "Evaluation instant, RFC3339 (default: now)")
		driver     = flag.String("driver", envOr("REVIEW_STORE_DRIVER", config.DriverPostgres), "Review store driver: postgres or mysql")
		dsn        = flag.String("dsn", "", "Store DSN (default: DATABASE_URL or MYSQL_DSN env)")
		windowDays = flag.Int("window-days", domain.DefaultWindowDays, "Risk window in days")
		threshold  = flag.Float64("threshold", domain.DefaultRiskThresholdPercent, "Risk threshold percent")
		negMean    = flag.Float64("negative-mean", domain.DefaultNegativeMeanThreshold, "Mean rating at or below which a review counts as negative")
		periodDays = flag.Int("period-days", domain.DefaultTrendPeriodDays, "Trend period in days")
		fillZero   = flag.Bool("fill", false, "Zero-fill days without reviews")
		notifyURL  = flag.String("notify-redis", "", "Redis URL; if set, publish review_created so running servers drop their cache")
		verbose    = flag.Bool("verbose", false, "Verbose logging")
		showVer    = flag.Bool("version", false, "Print build information and exit")
	)
	flag.Parse()

	if *showVer {
		v := version.Get()
		fmt.Printf("riskreport %s (commit %s, built %s, %s)\n", v.Version, v.Commit, v.BuildTime, v.GoVersion)
		return
	}

	logLevel := "info"
	if *verbose {
		logLevel = "debug"
	}
	slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))

	if *orgFlag == "" {
		log.Fatal("Organization required (-org)")
	}
	orgID, err := uuid.Parse(*orgFlag)
	if err != nil {
		log.Fatalf("Invalid organization UUID: %v", err)
	}

	clock := clockwork.NewRealClock()
	asOf := clock.Now().UTC()
	if *asOfFlag != "" {
		asOf, err = time.Parse(time.RFC3339, *asOfFlag)
		if err != nil {
			log.Fatalf("Invalid -as-of: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, *driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to open review store: %v", err)
	}
	defer closeStore()

	settings := app.AnalyticsSettings{
		Policy:          domain.RiskPolicy{WindowDays: *windowDays, ThresholdPercent: *threshold},
		TrendPeriodDays: *periodDays,
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid analytics settings: %v", err)
	}

	aggregator := analytics.NewAggregator(store, analytics.NewClassifier(*negMean))
	facade := app.NewAnalytics(analytics.NewEvaluator(aggregator), analytics.NewBucketer(store), settings,
		analytics.NewResultCache(time.Minute, clock), nil, nil, nil, clock)

	result, err := facade.GetAnalytics(ctx, orgID, asOf)
	if err != nil {
		log.Fatalf("Failed to compute analytics: %v", err)
	}
	if *fillZero {
		from, to := analytics.Window(result.AsOf, *periodDays)
		result.Trend = analytics.FillGaps(result.Trend, from, to)
	}

	out := report{
		Analytics:        result,
		WindowDays:       settings.Policy.WindowDays,
		ThresholdPercent: settings.Policy.ThresholdPercent,
		PeriodDays:       settings.TrendPeriodDays,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if *notifyURL != "" {
		if err := notify(ctx, *notifyURL, orgID); err != nil {
			log.Fatalf("Failed to notify servers: %v", err)
		}
		slog.Info("Published review_created", "organization_id", orgID)
	}
}

func openStore(ctx context.Context, driver, dsn string) (domain.ReviewStore, func(), error) {
	switch driver {
	case config.DriverPostgres:
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		pool, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewReviewRepo(pool, queryTimeout), pool.Close, nil
	case config.DriverMySQL:
		if dsn == "" {
			dsn = os.Getenv("MYSQL_DSN")
		}
		db, err := mysql.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewReviewRepo(db, queryTimeout), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func notify(ctx context.Context, redisURL string, orgID uuid.UUID) error {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	defer func() { _ = rdb.Close() }()

	return redis.PublishReviewCreated(ctx, rdb, orgID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
