package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
)

var _ domain.ReviewStore = (*ReviewRepo)(nil)

var reviewColumns = []string{
	"id", "organization_id", "created_at",
	"work_life_balance", "culture_values", "career_opportunities", "compensation", "management",
}

type ReviewRepo struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewReviewRepo(db *sql.DB, queryTimeout time.Duration) *ReviewRepo {
	return &ReviewRepo{db: db, queryTimeout: queryTimeout}
}

// FetchReviews returns the reviews of orgID created in [from, to), oldest first.
func (r *ReviewRepo) FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	queryCtx := ctx
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}

	query, args := buildFetchReviewsQuery(orgID, from, to)
	rows, err := r.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, storeError(ctx, "running reviews query", err)
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, storeError(ctx, "scanning review", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(ctx, "iterating reviews", err)
	}
	return reviews, nil
}

func buildFetchReviewsQuery(orgID uuid.UUID, from, to time.Time) (string, []any) {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select(reviewColumns...)
	sb.From("reviews")
	sb.Where(
		sb.Equal("organization_id", orgID.String()),
		sb.GreaterEqualThan("created_at", from.UTC()),
		sb.LessThan("created_at", to.UTC()),
	)
	sb.OrderBy("created_at ASC")
	return sb.Build()
}

func scanReview(rows *sql.Rows) (domain.Review, error) {
	var (
		review domain.Review
		dims   [5]sql.NullInt16
		rawID  string
		rawOrg string
	)
	if err := rows.Scan(&rawID, &rawOrg, &review.CreatedAt, &dims[0], &dims[1], &dims[2], &dims[3], &dims[4]); err != nil {
		return domain.Review{}, err
	}

	var err error
	if review.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Review{}, fmt.Errorf("parsing review id: %w", err)
	}
	if review.OrganizationID, err = uuid.Parse(rawOrg); err != nil {
		return domain.Review{}, fmt.Errorf("parsing organization id: %w", err)
	}

	review.CreatedAt = review.CreatedAt.UTC()
	review.Ratings = domain.Ratings{
		WorkLifeBalance:     fromNull(dims[0]),
		CultureValues:       fromNull(dims[1]),
		CareerOpportunities: fromNull(dims[2]),
		Compensation:        fromNull(dims[3]),
		Management:          fromNull(dims[4]),
	}
	return review, nil
}

func fromNull(v sql.NullInt16) *int {
	if !v.Valid {
		return nil
	}
	return domain.Rated(int(v.Int16))
}

func storeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
