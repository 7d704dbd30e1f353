package analytics

import (
	"context"
	"slices"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
)

// --- Mock ReviewStore ---

type mockReviewStore struct {
	fetchFn func(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error)
	calls   int
}

func (m *mockReviewStore) FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, orgID, from, to)
	}
	return nil, nil
}

// memoryStore honors the ReviewStore contract over a fixed slice.
type memoryStore struct {
	reviews []domain.Review
}

func (s *memoryStore) FetchReviews(_ context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Review, error) {
	var out []domain.Review
	for _, r := range s.reviews {
		if r.OrganizationID == orgID && !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Review) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *memoryStore) add(r domain.Review) {
	s.reviews = append(s.reviews, r)
}

// --- Fixtures ---

var (
	testOrg  = uuid.MustParse("8f0c8e02-52f5-4a8e-9d35-0d3f8e2b1c11")
	otherOrg = uuid.MustParse("1d7b4c6a-0a63-4f0e-8d8f-3c2b9a5e7f20")
	testAsOf = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
)

// uniform builds ratings with every dimension set to v.
func uniform(v int) domain.Ratings {
	return domain.Ratings{
		WorkLifeBalance:     domain.Rated(v),
		CultureValues:       domain.Rated(v),
		CareerOpportunities: domain.Rated(v),
		Compensation:        domain.Rated(v),
		Management:          domain.Rated(v),
	}
}

func review(orgID uuid.UUID, createdAt time.Time, ratings domain.Ratings) domain.Review {
	return domain.Review{
		ID:             uuid.New(),
		OrganizationID: orgID,
		CreatedAt:      createdAt,
		Ratings:        ratings,
	}
}
