package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/metrics"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	fetchFn func(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error)
	calls   int
}

func (m *mockStore) FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, orgID, from, to)
	}
	return []domain.Review{}, nil
}

var (
	testTo   = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	testFrom = testTo.Add(-30 * 24 * time.Hour)
	errDown  = errors.New("connection refused")
)

func failing() *mockStore {
	return &mockStore{fetchFn: func(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.Review, error) {
		return nil, errDown
	}}
}

func testSettings() Settings {
	return Settings{FailureThreshold: 3, Delay: 50 * time.Millisecond, SuccessThreshold: 1}
}

func TestReviewStore_PassesThroughWhenClosed(t *testing.T) {
	want := []domain.Review{{ID: uuid.New()}}
	next := &mockStore{fetchFn: func(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.Review, error) {
		return want, nil
	}}
	store := NewReviewStore(next, testSettings(), nil)

	got, err := store.FetchReviews(context.Background(), uuid.New(), testFrom, testTo)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, circuitbreaker.ClosedState, store.State())
}

func TestReviewStore_TransientFailuresKeepItClosed(t *testing.T) {
	store := NewReviewStore(failing(), testSettings(), nil)

	for range 2 {
		_, err := store.FetchReviews(context.Background(), uuid.New(), testFrom, testTo)
		assert.ErrorIs(t, err, errDown)
	}

	assert.Equal(t, circuitbreaker.ClosedState, store.State())
}

func TestReviewStore_OpensAndFailsFast(t *testing.T) {
	next := failing()
	m := metrics.NewBreakerMetrics(prometheus.NewRegistry())
	store := NewReviewStore(next, testSettings(), m)
	ctx := context.Background()

	for range 3 {
		_, _ = store.FetchReviews(ctx, uuid.New(), testFrom, testTo)
	}
	require.Equal(t, circuitbreaker.OpenState, store.State())

	_, err := store.FetchReviews(ctx, uuid.New(), testFrom, testTo)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejections))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.State))
}

func TestReviewStore_ClosesAfterSuccessfulTrial(t *testing.T) {
	healthy := false
	next := &mockStore{fetchFn: func(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.Review, error) {
		if healthy {
			return []domain.Review{}, nil
		}
		return nil, errDown
	}}
	store := NewReviewStore(next, testSettings(), nil)
	ctx := context.Background()

	for range 3 {
		_, _ = store.FetchReviews(ctx, uuid.New(), testFrom, testTo)
	}
	require.Equal(t, circuitbreaker.OpenState, store.State())

	healthy = true
	time.Sleep(2 * testSettings().Delay)

	_, err := store.FetchReviews(ctx, uuid.New(), testFrom, testTo)
	require.NoError(t, err)
	assert.Equal(t, circuitbreaker.ClosedState, store.State())
}

func TestReviewStore_CancellationIsNotAFailure(t *testing.T) {
	next := &mockStore{fetchFn: func(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Review, error) {
		return nil, ctx.Err()
	}}
	store := NewReviewStore(next, testSettings(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 10 {
		_, err := store.FetchReviews(ctx, uuid.New(), testFrom, testTo)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	}

	assert.Equal(t, circuitbreaker.ClosedState, store.State())
}

func TestReviewStore_AbandonedTrialReopens(t *testing.T) {
	next := &mockStore{fetchFn: func(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Review, error) {
		return nil, ctx.Err()
	}}
	store := NewReviewStore(next, testSettings(), nil)
	store.cb.HalfOpen()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FetchReviews(ctx, uuid.New(), testFrom, testTo)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, circuitbreaker.OpenState, store.State())
}

func TestReviewStore_CancelledCallAdmittedClosedLeavesTrialAlone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var store *ReviewStore
	next := &mockStore{fetchFn: func(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Review, error) {
		// Another caller's failures move the breaker on while this call is in flight.
		store.cb.HalfOpen()
		cancel()
		return nil, ctx.Err()
	}}
	store = NewReviewStore(next, testSettings(), nil)

	_, err := store.FetchReviews(ctx, uuid.New(), testFrom, testTo)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, circuitbreaker.HalfOpenState, store.State())
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(circuitbreaker.ClosedState))
	assert.Equal(t, float64(1), stateToFloat(circuitbreaker.HalfOpenState))
	assert.Equal(t, float64(2), stateToFloat(circuitbreaker.OpenState))
}
