package httpserver

import (
	"context"
	"testing"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/app"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/config"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

type mockAnalyticsService struct {
	getAnalyticsFn func(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*domain.Analytics, error)
	evaluateRiskFn func(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error)
	trendFn        func(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error)
	invalidateFn   func(ctx context.Context, orgID uuid.UUID) error
}

func (m *mockAnalyticsService) GetAnalytics(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*domain.Analytics, error) {
	if m.getAnalyticsFn != nil {
		return m.getAnalyticsFn(ctx, orgID, asOf)
	}
	return &domain.Analytics{OrganizationID: orgID, AsOf: asOf, Trend: []domain.TrendPoint{}}, nil
}

func (m *mockAnalyticsService) EvaluateRisk(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error) {
	if m.evaluateRiskFn != nil {
		return m.evaluateRiskFn(ctx, orgID, asOf, policy)
	}
	return domain.RiskSignal{}, nil
}

func (m *mockAnalyticsService) Trend(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error) {
	if m.trendFn != nil {
		return m.trendFn(ctx, orgID, asOf, periodDays)
	}
	return nil, nil
}

func (m *mockAnalyticsService) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, orgID)
	}
	return nil
}

func (m *mockAnalyticsService) Settings() app.AnalyticsSettings {
	return app.DefaultAnalyticsSettings()
}

type testServerOption func(*testServerOptions)

type testServerOptions struct {
	healthChecks []HealthCheck
	rateLimit    float64
	rateBurst    int
}

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(o *testServerOptions) {
		o.healthChecks = checks
	}
}

func withRateLimit(perSecond float64, burst int) testServerOption {
	return func(o *testServerOptions) {
		o.rateLimit = perSecond
		o.rateBurst = burst
	}
}

func newTestServer(t *testing.T, svc analyticsService, opts ...testServerOption) *Server {
	t.Helper()

	o := testServerOptions{rateLimit: 1000, rateBurst: 1000}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &config.Config{
		AppEnv:       "test",
		Port:         "0",
		APIRateLimit: o.rateLimit,
		APIRateBurst: o.rateBurst,
	}
	return NewServer(cfg, svc, o.healthChecks, nil, nil, clockwork.NewFakeClockAt(testNow))
}
