package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fetchReviewsSQL = `
SELECT id, organization_id, created_at,
       work_life_balance, culture_values, career_opportunities, compensation, management
FROM reviews
WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at`

const insertReviewSQL = `
INSERT INTO reviews (id, organization_id, created_at,
                     work_life_balance, culture_values, career_opportunities, compensation, management)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// ReviewRepo reads reviews from PostgreSQL. It implements domain.ReviewStore.
type ReviewRepo struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewReviewRepo creates a repository. A zero queryTimeout leaves deadlines to the caller.
func NewReviewRepo(pool *pgxpool.Pool, queryTimeout time.Duration) *ReviewRepo {
	return &ReviewRepo{pool: pool, queryTimeout: queryTimeout}
}

// FetchReviews returns the reviews of orgID created in [from, to), oldest first.
// Failures are reported as domain.ErrStoreUnavailable unless ctx itself ended.
func (r *ReviewRepo) FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	queryCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(queryCtx, fetchReviewsSQL, orgID, from.UTC(), to.UTC())
	if err != nil {
		return nil, r.storeError(ctx, "query reviews", err)
	}

	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, r.storeError(ctx, "scan reviews", err)
	}
	return reviews, nil
}

// Insert stores a review. Ingestion belongs to the surrounding application;
// this exists for seeding and tests.
func (r *ReviewRepo) Insert(ctx context.Context, review domain.Review) error {
	ratings := review.Ratings
	_, err := r.pool.Exec(ctx, insertReviewSQL,
		review.ID, review.OrganizationID, review.CreatedAt.UTC(),
		ratings.WorkLifeBalance, ratings.CultureValues, ratings.CareerOpportunities, ratings.Compensation, ratings.Management)
	if err != nil {
		return fmt.Errorf("failed to insert review %s: %w", review.ID, err)
	}
	return nil
}

func (r *ReviewRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() { /* EMPTY */ }
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *ReviewRepo) storeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("failed to %s: %w", op, ctx.Err())
	}
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func scanReview(row pgx.CollectableRow) (domain.Review, error) {
	var review domain.Review
	var workLife, culture, career, compensation, management *int16
	err := row.Scan(&review.ID, &review.OrganizationID, &review.CreatedAt,
		&workLife, &culture, &career, &compensation, &management)
	if err != nil {
		return domain.Review{}, err
	}

	review.CreatedAt = review.CreatedAt.UTC()
	review.Ratings = domain.Ratings{
		WorkLifeBalance:     fromSmallint(workLife),
		CultureValues:       fromSmallint(culture),
		CareerOpportunities: fromSmallint(career),
		Compensation:        fromSmallint(compensation),
		Management:          fromSmallint(management),
	}
	return review, nil
}

func fromSmallint(v *int16) *int {
	if v == nil {
		return nil
	}
	return domain.Rated(int(*v))
}
