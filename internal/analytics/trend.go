package analytics

import (
	"context"
	"slices"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
)

// Bucketer groups an organization's reviews into UTC calendar-day volume buckets.
type Bucketer struct {
	store domain.ReviewStore
}

func NewBucketer(store domain.ReviewStore) *Bucketer {
	return &Bucketer{store: store}
}

// Trend returns a sparse, ascending series: days without reviews are omitted.
func (b *Bucketer) Trend(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error) {
	if err := domain.ValidateDays("period days", periodDays); err != nil {
		return nil, err
	}

	from, to := Window(asOf, periodDays)
	reviews, err := fetchReviews(ctx, b.store, orgID, from, to)
	if err != nil {
		return nil, err
	}

	return BucketByDay(reviews, from, to), nil
}

// BucketByDay counts reviews in [from, to) per UTC day, regardless of their label.
func BucketByDay(reviews []domain.Review, from, to time.Time) []domain.TrendPoint {
	counts := make(map[time.Time]int)
	for _, review := range reviews {
		if !inWindow(review.CreatedAt, from, to) {
			continue
		}
		counts[startOfDay(review.CreatedAt)]++
	}

	points := make([]domain.TrendPoint, 0, len(counts))
	for date, count := range counts {
		points = append(points, domain.TrendPoint{Date: date, Count: count})
	}
	slices.SortFunc(points, func(a, b domain.TrendPoint) int {
		return a.Date.Compare(b.Date)
	})
	return points
}

// FillGaps turns a sparse series into a dense one covering every UTC day touched by [from, to).
// It is never applied by the engine itself; consumers that need zero-filled days call it.
func FillGaps(points []domain.TrendPoint, from, to time.Time) []domain.TrendPoint {
	if !from.Before(to) {
		return []domain.TrendPoint{}
	}

	byDay := make(map[time.Time]int, len(points))
	for _, p := range points {
		byDay[startOfDay(p.Date)] += p.Count
	}

	first := startOfDay(from)
	last := startOfDay(to.Add(-time.Nanosecond))

	dense := make([]domain.TrendPoint, 0, int(last.Sub(first)/day)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dense = append(dense, domain.TrendPoint{Date: d, Count: byDay[d]})
	}
	return dense
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
