package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Ratings holds the five structured rating dimensions of a review.
// A nil dimension has not been rated; there is no sentinel value.
type Ratings struct {
	WorkLifeBalance     *int `json:"workLifeBalance,omitempty"`
	CultureValues       *int `json:"cultureValues,omitempty"`
	CareerOpportunities *int `json:"careerOpportunities,omitempty"`
	Compensation        *int `json:"compensation,omitempty"`
	Management          *int `json:"management,omitempty"`
}

// Dimensions returns all five dimensions in a fixed order, absent ones as nil.
func (r Ratings) Dimensions() [5]*int {
	return [5]*int{r.WorkLifeBalance, r.CultureValues, r.CareerOpportunities, r.Compensation, r.Management}
}

// Rated returns a pointer to v, for building Ratings literals.
func Rated(v int) *int {
	return &v
}

// Review is an organization review as read from the review store. The engine never mutates it.
type Review struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
	Ratings        Ratings   `json:"ratings"`
}

// RatingLabel is the derived sentiment of a review.
type RatingLabel int

const (
	LabelExcluded    RatingLabel = iota // no present rating dimension, carries no signal
	LabelNonNegative                    // mean of present dimensions above the negative threshold
	LabelNegative                       // mean at or below the negative threshold
)

func (l RatingLabel) String() string {
	switch l {
	case LabelExcluded:
		return "excluded"
	case LabelNonNegative:
		return "non_negative"
	case LabelNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// ReviewStore is the read contract of the external review store.
// FetchReviews returns the organization's reviews with from <= CreatedAt < to,
// ordered by CreatedAt ascending.
type ReviewStore interface {
	FetchReviews(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]Review, error)
}
