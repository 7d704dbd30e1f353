package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTrend_SparseSeries(t *testing.T) {
	store := &memoryStore{}
	store.add(review(testOrg, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), uniform(4)))
	store.add(review(testOrg, time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), uniform(1)))
	store.add(review(testOrg, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), domain.Ratings{}))

	points, err := NewBucketer(store).Trend(context.Background(), testOrg, date(2024, 1, 15), 30)

	require.NoError(t, err)
	assert.Equal(t, []domain.TrendPoint{
		{Date: date(2024, 1, 1), Count: 2},
		{Date: date(2024, 1, 3), Count: 1},
	}, points)
}

func TestTrend_GroupsByUTCDay(t *testing.T) {
	tz := time.FixedZone("UTC-5", -5*60*60)
	store := &memoryStore{}
	// 2024-01-01 21:00 local is 2024-01-02 02:00 UTC
	store.add(review(testOrg, time.Date(2024, 1, 1, 21, 0, 0, 0, tz), uniform(3)))

	points, err := NewBucketer(store).Trend(context.Background(), testOrg, date(2024, 1, 15), 30)

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, date(2024, 1, 2), points[0].Date)
}

func TestTrend_EmptyIsNotNil(t *testing.T) {
	points, err := NewBucketer(&memoryStore{}).Trend(context.Background(), testOrg, testAsOf, 30)

	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestTrend_HalfOpenBoundaries(t *testing.T) {
	asOf := date(2024, 2, 1)
	store := &memoryStore{}
	store.add(review(testOrg, asOf.Add(-30*24*time.Hour), uniform(3)))
	store.add(review(testOrg, asOf, uniform(3)))

	points, err := NewBucketer(store).Trend(context.Background(), testOrg, asOf, 30)

	require.NoError(t, err)
	assert.Equal(t, []domain.TrendPoint{{Date: date(2024, 1, 2), Count: 1}}, points)
}

func TestTrend_InvalidPeriod(t *testing.T) {
	for _, periodDays := range []int{0, -1, domain.MaxWindowDays + 1, 200000} {
		store := &mockReviewStore{}
		_, err := NewBucketer(store).Trend(context.Background(), testOrg, testAsOf, periodDays)

		assert.ErrorIs(t, err, domain.ErrInvalidWindow, "periodDays=%d", periodDays)
		assert.Equal(t, 0, store.calls)
	}
}

func TestTrend_StoreUnavailable(t *testing.T) {
	store := &mockReviewStore{
		fetchFn: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Review, error) {
			return nil, errors.New("no route to host")
		},
	}

	_, err := NewBucketer(store).Trend(context.Background(), testOrg, testAsOf, 30)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestBucketByDay_SortedAscending(t *testing.T) {
	from, to := date(2024, 1, 1), date(2024, 1, 31)
	reviews := []domain.Review{
		review(testOrg, date(2024, 1, 20), uniform(3)),
		review(testOrg, date(2024, 1, 5), uniform(3)),
		review(testOrg, date(2024, 1, 12), uniform(3)),
		review(testOrg, date(2024, 1, 5).Add(time.Hour), uniform(3)),
	}

	points := BucketByDay(reviews, from, to)

	assert.Equal(t, []domain.TrendPoint{
		{Date: date(2024, 1, 5), Count: 2},
		{Date: date(2024, 1, 12), Count: 1},
		{Date: date(2024, 1, 20), Count: 1},
	}, points)
}

func TestFillGaps(t *testing.T) {
	sparse := []domain.TrendPoint{
		{Date: date(2024, 1, 1), Count: 2},
		{Date: date(2024, 1, 3), Count: 1},
	}

	dense := FillGaps(sparse, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), date(2024, 1, 5))

	assert.Equal(t, []domain.TrendPoint{
		{Date: date(2024, 1, 1), Count: 2},
		{Date: date(2024, 1, 2), Count: 0},
		{Date: date(2024, 1, 3), Count: 1},
		{Date: date(2024, 1, 4), Count: 0},
	}, dense)
}

func TestFillGaps_EmptyRange(t *testing.T) {
	assert.Empty(t, FillGaps(nil, date(2024, 1, 2), date(2024, 1, 2)))
}

func TestTrendPoint_JSON(t *testing.T) {
	data, err := json.Marshal(domain.TrendPoint{Date: date(2024, 1, 3), Count: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-03","count":7}`, string(data))

	var decoded domain.TrendPoint
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, date(2024, 1, 3), decoded.Date)
	assert.Equal(t, 7, decoded.Count)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"03/01/2024","count":1}`), &decoded))
}
