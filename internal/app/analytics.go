package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/metrics"
	"github.com/architgupta225/Anonn-app-sub003/internal/analytics"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// RiskEvaluator computes the risk signal of one organization.
type RiskEvaluator interface {
	Evaluate(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error)
}

// TrendBucketer computes the daily volume series of one organization.
type TrendBucketer interface {
	Trend(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error)
}

// AnalyticsSettings are the defaults GetAnalytics computes with.
type AnalyticsSettings struct {
	Policy          domain.RiskPolicy
	TrendPeriodDays int
}

// DefaultAnalyticsSettings returns a 30-day, 40% risk policy and a 30-day trend.
func DefaultAnalyticsSettings() AnalyticsSettings {
	return AnalyticsSettings{
		Policy:          domain.DefaultRiskPolicy(),
		TrendPeriodDays: domain.DefaultTrendPeriodDays,
	}
}

// Validate reports domain.ErrInvalidWindow for a policy or period the engine would reject.
func (s AnalyticsSettings) Validate() error {
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	if err := domain.ValidateDays("trend period days", s.TrendPeriodDays); err != nil {
		return err
	}
	return nil
}

// Analytics is the consumer-facing entry point of the engine. It owns the caching
// policy: an in-process memo per (organization, minute), an optional shared cache
// behind it, and collapsing of concurrent misses for the same key.
type Analytics struct {
	risk     RiskEvaluator
	trend    TrendBucketer
	settings AnalyticsSettings
	local    *analytics.ResultCache
	shared   domain.AnalyticsCache
	metrics  *metrics.AnalyticsMetrics
	cacheM   *metrics.CacheMetrics
	clock    clockwork.Clock
	group    singleflight.Group

	// generations counts invalidations per organization. A computation only
	// caches its result if no invalidation happened while it ran.
	genMu       sync.Mutex
	generations map[uuid.UUID]uint64
}

// NewAnalytics creates the facade.
// shared, analyticsMetrics and cacheMetrics may be nil.
func NewAnalytics(risk RiskEvaluator, trend TrendBucketer, settings AnalyticsSettings, local *analytics.ResultCache, shared domain.AnalyticsCache, analyticsMetrics *metrics.AnalyticsMetrics, cacheMetrics *metrics.CacheMetrics, clock clockwork.Clock) *Analytics {
	return &Analytics{
		risk:     risk,
		trend:    trend,
		settings: settings,
		local:    local,
		shared:   shared,
		metrics:  analyticsMetrics,
		cacheM:   cacheMetrics,
		clock:    clock,

		generations: make(map[uuid.UUID]uint64),
	}
}

// Settings returns the defaults the facade computes with.
func (a *Analytics) Settings() AnalyticsSettings {
	return a.settings
}

// GetAnalytics returns the risk signal and trend of orgID as of asOf.
// A zero asOf means now. Results for the same organization and minute are
// served from cache until the TTL passes or the organization is invalidated.
func (a *Analytics) GetAnalytics(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*domain.Analytics, error) {
	if asOf.IsZero() {
		asOf = a.clock.Now()
	}
	asOf = asOf.UTC()
	minute := analytics.MinuteKey(asOf)
	gen := a.generation(orgID)

	if cached, ok := a.local.Get(orgID, asOf); ok {
		a.cacheHit(metrics.LayerMemory)
		return cached, nil
	}
	a.cacheMiss(metrics.LayerMemory)

	if a.shared != nil {
		if cached, ok := a.shared.Get(ctx, orgID, minute); ok {
			a.cacheHit(metrics.LayerRedis)
			a.setLocal(orgID, asOf, gen, cached)
			return cached, nil
		}
		a.cacheMiss(metrics.LayerRedis)
	}

	// Calls started before an invalidation never absorb calls started after it.
	key := orgID.String() + ":" + strconv.FormatInt(minute.Unix(), 10) + ":" + strconv.FormatUint(gen, 10)
	ch := a.group.DoChan(key, func() (any, error) {
		return a.compute(ctx, orgID, asOf, gen)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("analytics for organization %s: %w", orgID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			// The leader's context was canceled but ours is alive.
			if res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
				return a.compute(ctx, orgID, asOf, a.generation(orgID))
			}
			return nil, res.Err
		}
		result, _ := res.Val.(*domain.Analytics)
		if res.Shared {
			return cloneResult(result), nil
		}
		return result, nil
	}
}

func (a *Analytics) compute(ctx context.Context, orgID uuid.UUID, asOf time.Time, gen uint64) (*domain.Analytics, error) {
	start := a.clock.Now()
	result := &domain.Analytics{OrganizationID: orgID, AsOf: asOf}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		signal, err := a.risk.Evaluate(gctx, orgID, asOf, a.settings.Policy)
		if err != nil {
			return fmt.Errorf("evaluate risk: %w", err)
		}
		result.Risk = signal
		return nil
	})
	g.Go(func() error {
		points, err := a.trend.Trend(gctx, orgID, asOf, a.settings.TrendPeriodDays)
		if err != nil {
			return fmt.Errorf("compute trend: %w", err)
		}
		result.Trend = points
		return nil
	})

	err := g.Wait()
	a.observeComputation(a.clock.Since(start), result, err)
	if err != nil {
		slog.WarnContext(ctx, "Analytics computation failed", "organization_id", orgID, "as_of", asOf, "error", err)
		return nil, fmt.Errorf("analytics for organization %s: %w", orgID, err)
	}

	if !a.setLocal(orgID, asOf, gen, result) {
		slog.DebugContext(ctx, "Discarding analytics computed before invalidation", "organization_id", orgID, "as_of", asOf)
		return result, nil
	}
	if a.shared != nil {
		a.shared.Set(ctx, orgID, analytics.MinuteKey(asOf), result)
		if a.generation(orgID) != gen {
			// Invalidated while the entry was written.
			if err := a.shared.Invalidate(ctx, orgID); err != nil {
				slog.WarnContext(ctx, "Failed to drop stale shared analytics", "organization_id", orgID, "error", err)
			}
		}
	}

	slog.DebugContext(ctx, "Analytics computed", "organization_id", orgID, "as_of", asOf, "has_risk", result.Risk.HasRisk, "negative_percentage", result.Risk.NegativePercentage, "trend_days", len(result.Trend))
	return result, nil
}

// EvaluateRisk computes a risk signal with a caller-supplied policy. It bypasses the cache.
func (a *Analytics) EvaluateRisk(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error) {
	if asOf.IsZero() {
		asOf = a.clock.Now()
	}
	signal, err := a.risk.Evaluate(ctx, orgID, asOf.UTC(), policy)
	if err != nil {
		return domain.RiskSignal{}, fmt.Errorf("evaluate risk for organization %s: %w", orgID, err)
	}
	return signal, nil
}

// Trend computes a daily volume series with a caller-supplied period. It bypasses the cache.
func (a *Analytics) Trend(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error) {
	if asOf.IsZero() {
		asOf = a.clock.Now()
	}
	points, err := a.trend.Trend(ctx, orgID, asOf.UTC(), periodDays)
	if err != nil {
		return nil, fmt.Errorf("compute trend for organization %s: %w", orgID, err)
	}
	return points, nil
}

// Invalidate drops every cached result for orgID. It is called when a review is ingested.
// The in-process entries are always dropped, even if the shared cache fails.
func (a *Analytics) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	a.genMu.Lock()
	a.generations[orgID]++
	a.genMu.Unlock()

	dropped := a.local.InvalidateOrganization(orgID)
	if a.cacheM != nil {
		a.cacheM.Invalidations.Inc()
		a.cacheM.Size.Set(float64(a.local.Size()))
	}

	if a.shared != nil {
		if err := a.shared.Invalidate(ctx, orgID); err != nil {
			return fmt.Errorf("invalidate shared analytics cache for organization %s: %w", orgID, err)
		}
	}

	slog.DebugContext(ctx, "Analytics cache invalidated", "organization_id", orgID, "dropped_local", dropped)
	return nil
}

func (a *Analytics) generation(orgID uuid.UUID) uint64 {
	a.genMu.Lock()
	defer a.genMu.Unlock()
	return a.generations[orgID]
}

// setLocal stores result unless orgID was invalidated after gen was read.
func (a *Analytics) setLocal(orgID uuid.UUID, asOf time.Time, gen uint64, result *domain.Analytics) bool {
	a.genMu.Lock()
	defer a.genMu.Unlock()
	if a.generations[orgID] != gen {
		return false
	}
	a.local.Set(orgID, asOf, result)
	return true
}

func (a *Analytics) cacheHit(layer string) {
	if a.cacheM != nil {
		a.cacheM.Hits.WithLabelValues(layer).Inc()
	}
}

func (a *Analytics) cacheMiss(layer string) {
	if a.cacheM != nil {
		a.cacheM.Misses.WithLabelValues(layer).Inc()
	}
}

func (a *Analytics) observeComputation(elapsed time.Duration, result *domain.Analytics, err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.ComputationDuration.Observe(elapsed.Seconds())

	switch {
	case err == nil:
		a.metrics.Computations.WithLabelValues(metrics.ResultOK).Inc()
		if result.Risk.HasRisk {
			a.metrics.RiskFlagged.Inc()
		}
	case isContextErr(err):
		a.metrics.Computations.WithLabelValues(metrics.ResultCanceled).Inc()
	case errors.Is(err, domain.ErrStoreUnavailable):
		a.metrics.Computations.WithLabelValues(metrics.ResultStoreUnavailable).Inc()
	default:
		a.metrics.Computations.WithLabelValues(metrics.ResultError).Inc()
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func cloneResult(a *domain.Analytics) *domain.Analytics {
	if a == nil {
		return nil
	}
	out := *a
	if a.Trend != nil {
		out.Trend = make([]domain.TrendPoint, len(a.Trend))
		copy(out.Trend, a.Trend)
	}
	return &out
}
