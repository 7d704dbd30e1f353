// Package breaker guards the review store with a circuit breaker, so a store
// outage fails analytics requests fast instead of queueing them behind timeouts.
package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/metrics"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/google/uuid"
)

// Settings configure when the breaker opens and how long it stays open.
type Settings struct {
	FailureThreshold uint
	Delay            time.Duration
	SuccessThreshold uint
}

// DefaultSettings opens after 5 consecutive failures for 30s and closes after one good trial.
func DefaultSettings() Settings {
	return Settings{FailureThreshold: 5, Delay: 30 * time.Second, SuccessThreshold: 1}
}

// ReviewStore decorates a domain.ReviewStore with a circuit breaker.
type ReviewStore struct {
	next    domain.ReviewStore
	cb      circuitbreaker.CircuitBreaker[any]
	metrics *metrics.BreakerMetrics
}

var _ domain.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore wraps next. m may be nil.
func NewReviewStore(next domain.ReviewStore, settings Settings, m *metrics.BreakerMetrics) *ReviewStore {
	s := &ReviewStore{next: next, metrics: m}
	s.cb = circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(settings.FailureThreshold).
		WithDelay(settings.Delay).
		WithSuccessThreshold(settings.SuccessThreshold).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "review_store",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if s.metrics != nil {
				s.metrics.StateChanges.WithLabelValues(e.NewState.String()).Inc()
				s.metrics.State.Set(stateToFloat(e.NewState))
			}
		}).
		Build()
	return s
}

// FetchReviews fails fast with domain.ErrStoreUnavailable while the breaker is open.
// Cancellation of ctx is never counted against the store.
func (s *ReviewStore) FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	if !s.cb.TryAcquirePermit() {
		if s.metrics != nil {
			s.metrics.Rejections.Inc()
		}
		return nil, fmt.Errorf("review store: %w: %w", domain.ErrStoreUnavailable, circuitbreaker.ErrOpen)
	}
	trial := s.cb.IsHalfOpen()

	reviews, err := s.next.FetchReviews(ctx, orgID, from, to)
	switch {
	case err == nil:
		s.cb.RecordSuccess()
	case ctx.Err() != nil:
		// A half-open trial that the caller abandoned must still hand its permit back.
		if trial {
			s.cb.RecordError(err)
		}
	default:
		s.cb.RecordError(err)
	}
	return reviews, err
}

// State returns the current breaker state.
func (s *ReviewStore) State() circuitbreaker.State {
	return s.cb.State()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
