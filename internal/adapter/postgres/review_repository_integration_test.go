package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

func newReview(orgID uuid.UUID, createdAt time.Time, ratings domain.Ratings) domain.Review {
	return domain.Review{ID: uuid.New(), OrganizationID: orgID, CreatedAt: createdAt, Ratings: ratings}
}

func TestReviewRepo_FetchReviews_HalfOpenAndOrdered(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewReviewRepo(pool, 5*time.Second)
	ctx := context.Background()

	org := uuid.New()
	from := asOf.Add(-30 * 24 * time.Hour)

	atFrom := newReview(org, from, domain.Ratings{Management: domain.Rated(1)})
	late := newReview(org, asOf.Add(-time.Second), domain.Ratings{Compensation: domain.Rated(5)})
	middle := newReview(org, asOf.Add(-10*24*time.Hour), domain.Ratings{})
	atTo := newReview(org, asOf, domain.Ratings{Management: domain.Rated(2)})
	beforeFrom := newReview(org, from.Add(-time.Second), domain.Ratings{})

	for _, r := range []domain.Review{late, atTo, atFrom, beforeFrom, middle} {
		require.NoError(t, repo.Insert(ctx, r))
	}

	reviews, err := repo.FetchReviews(ctx, org, from, asOf)
	require.NoError(t, err)

	require.Len(t, reviews, 3)
	assert.Equal(t, atFrom.ID, reviews[0].ID)
	assert.Equal(t, middle.ID, reviews[1].ID)
	assert.Equal(t, late.ID, reviews[2].ID)
	assert.Equal(t, time.UTC, reviews[0].CreatedAt.Location())
}

func TestReviewRepo_FetchReviews_NullableRatings(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewReviewRepo(pool, 0)
	ctx := context.Background()

	org := uuid.New()
	stored := newReview(org, asOf.Add(-time.Hour), domain.Ratings{
		WorkLifeBalance: domain.Rated(2),
		Management:      domain.Rated(4),
	})
	require.NoError(t, repo.Insert(ctx, stored))

	reviews, err := repo.FetchReviews(ctx, org, asOf.Add(-24*time.Hour), asOf)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	got := reviews[0].Ratings
	require.NotNil(t, got.WorkLifeBalance)
	assert.Equal(t, 2, *got.WorkLifeBalance)
	require.NotNil(t, got.Management)
	assert.Equal(t, 4, *got.Management)
	assert.Nil(t, got.CultureValues)
	assert.Nil(t, got.CareerOpportunities)
	assert.Nil(t, got.Compensation)
}

func TestReviewRepo_FetchReviews_ScopedToOrganization(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewReviewRepo(pool, 0)
	ctx := context.Background()

	org, other := uuid.New(), uuid.New()
	require.NoError(t, repo.Insert(ctx, newReview(org, asOf.Add(-time.Hour), domain.Ratings{})))
	require.NoError(t, repo.Insert(ctx, newReview(other, asOf.Add(-time.Hour), domain.Ratings{})))

	reviews, err := repo.FetchReviews(ctx, org, asOf.Add(-24*time.Hour), asOf)
	require.NoError(t, err)

	require.Len(t, reviews, 1)
	assert.Equal(t, org, reviews[0].OrganizationID)
}

func TestReviewRepo_FetchReviews_EmptyIsNotAnError(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewReviewRepo(pool, 0)

	reviews, err := repo.FetchReviews(context.Background(), uuid.New(), asOf.Add(-24*time.Hour), asOf)

	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewRepo_FetchReviews_ClosedPoolIsStoreUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	pool, err := Connect(context.Background(), testDatabaseURL)
	require.NoError(t, err)
	pool.Close()

	repo := NewReviewRepo(pool, time.Second)
	_, err = repo.FetchReviews(context.Background(), uuid.New(), asOf.Add(-24*time.Hour), asOf)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestReviewRepo_FetchReviews_CanceledContextPassesThrough(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewReviewRepo(pool, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FetchReviews(ctx, uuid.New(), asOf.Add(-24*time.Hour), asOf)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}
