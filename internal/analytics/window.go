package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
)

const day = 24 * time.Hour

// Window returns the half-open interval [asOf - days, asOf) in UTC.
func Window(asOf time.Time, days int) (from, to time.Time) {
	to = asOf.UTC()
	from = to.AddDate(0, 0, -days)
	return from, to
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// Aggregator counts total and negative reviews of an organization over a trailing window.
type Aggregator struct {
	store      domain.ReviewStore
	classifier Classifier
}

func NewAggregator(store domain.ReviewStore, classifier Classifier) *Aggregator {
	return &Aggregator{
		store:      store,
		classifier: classifier,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, orgID uuid.UUID, asOf time.Time, windowDays int) (domain.WindowCounts, error) {
	if err := domain.ValidateDays("window days", windowDays); err != nil {
		return domain.WindowCounts{}, err
	}

	from, to := Window(asOf, windowDays)
	reviews, err := fetchReviews(ctx, a.store, orgID, from, to)
	if err != nil {
		return domain.WindowCounts{}, err
	}

	return a.count(reviews, from, to), nil
}

func (a *Aggregator) count(reviews []domain.Review, from, to time.Time) domain.WindowCounts {
	var counts domain.WindowCounts
	for _, review := range reviews {
		// The store owns the interval, this only guards the boundaries.
		if !inWindow(review.CreatedAt, from, to) {
			continue
		}

		switch a.classifier.Classify(review) {
		case domain.LabelExcluded:
			continue
		case domain.LabelNegative:
			counts.Negative++
		}
		counts.Total++
	}
	return counts
}

// fetchReviews reports every store failure as domain.ErrStoreUnavailable, except
// cancellation of the caller's own context, which is passed through as is.
func fetchReviews(ctx context.Context, store domain.ReviewStore, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	reviews, err := store.FetchReviews(ctx, orgID, from, to)
	if err == nil {
		return reviews, nil
	}

	if ctx.Err() != nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return nil, fmt.Errorf("fetch reviews for organization %s: %w", orgID, err)
	}
	return nil, fmt.Errorf("fetch reviews for organization %s: %w: %w", orgID, domain.ErrStoreUnavailable, err)
}
