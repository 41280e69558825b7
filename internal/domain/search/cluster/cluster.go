package cluster

import "github.com/digital-hub-ai/hubsearch/internal/domain/search/result"

// Kind distinguishes how a cluster was derived.
type Kind string

// Cluster kinds.
const (
	KindCategory Kind = "category"
	KindTopRated Kind = "top_rated"
	KindFeature  Kind = "feature"
	KindRecent   Kind = "recent"
)

// Cluster is a named group of results sharing a category or feature.
type Cluster struct {
	Name     string
	Kind     Kind
	Category string
	Results  []*result.Result
	Stats    Stats
}

// Stats holds aggregate statistics for one cluster.
type Stats struct {
	Count            int
	AverageRating    float64
	MinSimilarity    float64
	MaxSimilarity    float64
	DominantFeatures []string
}

// Quality returns the cluster ranking score: rating-weighted size.
func (c *Cluster) Quality() float64 {
	return 0.7*c.Stats.AverageRating + 0.3*float64(c.Stats.Count)
}

// ComputeStats fills aggregate statistics from the cluster's results.
func (c *Cluster) ComputeStats(dominantFeatures []string) {
	s := Stats{Count: len(c.Results), DominantFeatures: dominantFeatures}
	if len(c.Results) == 0 {
		c.Stats = s
		return
	}

	s.MinSimilarity = c.Results[0].Similarity()
	s.MaxSimilarity = c.Results[0].Similarity()
	var ratingSum float64
	var rated int
	for _, r := range c.Results {
		sim := r.Similarity()
		if sim < s.MinSimilarity {
			s.MinSimilarity = sim
		}
		if sim > s.MaxSimilarity {
			s.MaxSimilarity = sim
		}
		if rating, ok := r.Doc().Rating(); ok {
			ratingSum += rating
			rated++
		}
	}
	if rated > 0 {
		s.AverageRating = ratingSum / float64(rated)
	}
	c.Stats = s
}
