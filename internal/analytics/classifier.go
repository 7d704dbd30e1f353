package analytics

import "github.com/architgupta225/Anonn-app-sub003/internal/domain"

// Classifier labels reviews by the mean of their present rating dimensions.
//
// A dimension outside [domain.MinRating, domain.MaxRating] is treated as absent.
// Range validation belongs to ingestion; the classifier only keeps a malformed
// value from moving the mean.
type Classifier struct {
	negativeMeanThreshold float64
}

// NewClassifier returns a classifier labelling a review negative when its mean is <= negativeMeanThreshold.
func NewClassifier(negativeMeanThreshold float64) Classifier {
	return Classifier{negativeMeanThreshold: negativeMeanThreshold}
}

// DefaultClassifier uses the 2.0 on a 1-5 scale rule.
func DefaultClassifier() Classifier {
	return NewClassifier(domain.DefaultNegativeMeanThreshold)
}

func (c Classifier) Classify(review domain.Review) domain.RatingLabel {
	sum, present := 0, 0
	for _, v := range review.Ratings.Dimensions() {
		if v == nil || *v < domain.MinRating || *v > domain.MaxRating {
			continue
		}
		sum += *v
		present++
	}

	if present == 0 {
		return domain.LabelExcluded
	}

	mean := float64(sum) / float64(present)
	if mean <= c.negativeMeanThreshold {
		return domain.LabelNegative
	}
	return domain.LabelNonNegative
}
