package rank

import (
	"fmt"
	"math"
)

// weightSumTolerance absorbs float rounding when validating the weight vector.
const weightSumTolerance = 1e-6

// Weights is the single authoritative reranking weight vector.
// All factor values are normalized to [0,1] before weighting and the
// weights must sum to 1.0.
type Weights struct {
	Similarity      float64 `yaml:"similarity"`
	Rating          float64 `yaml:"rating"`
	Recency         float64 `yaml:"recency"`
	Popularity      float64 `yaml:"popularity"`
	Sentiment       float64 `yaml:"sentiment"`
	Personalization float64 `yaml:"personalization"`
	Diversity       float64 `yaml:"diversity"`
}

// Default returns the similarity-dominant weight vector.
func Default() Weights {
	return Weights{
		Similarity:      0.40,
		Rating:          0.15,
		Recency:         0.15,
		Popularity:      0.10,
		Sentiment:       0.05,
		Personalization: 0.10,
		Diversity:       0.05,
	}
}

// Validate checks that every weight is non-negative and that the vector sums to 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"similarity":      w.Similarity,
		"rating":          w.Rating,
		"recency":         w.Recency,
		"popularity":      w.Popularity,
		"sentiment":       w.Sentiment,
		"personalization": w.Personalization,
		"diversity":       w.Diversity,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	sum := w.Similarity + w.Rating + w.Recency + w.Popularity +
		w.Sentiment + w.Personalization + w.Diversity
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// IsZero reports whether no weight is set (unconfigured).
func (w Weights) IsZero() bool {
	return w.Similarity == 0 && w.Rating == 0 && w.Recency == 0 &&
		w.Popularity == 0 && w.Sentiment == 0 && w.Personalization == 0 &&
		w.Diversity == 0
}
