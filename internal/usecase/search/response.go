package search

import (
	"math"
	"time"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/cluster"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
)

// Response is the full search payload returned to transports and stored
// in the result cache.
type Response struct {
	Success      bool            `json:"success"`
	Query        string          `json:"query"`
	Count        int             `json:"count"`
	Results      []ResultItem    `json:"results"`
	Clusters     []ClusterItem   `json:"clusters,omitempty"`
	ClusterStats *ClusterStats   `json:"clusterStats,omitempty"`
	Facets       document.Facets `json:"facets"`
}

// ResultItem is one search hit: the document's public fields plus the
// rounded score and snippet.
type ResultItem struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	URL         string             `json:"url,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	Category    string             `json:"category,omitempty"`
	Subcategory string             `json:"subcategory,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Features    []string           `json:"features,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	ReviewCount int                `json:"reviewCount,omitempty"`
	Views       int                `json:"views,omitempty"`
	Pricing     string             `json:"pricing,omitempty"`
	PublishedAt string             `json:"publishedAt,omitempty"`
	UpdatedAt   string             `json:"updatedAt,omitempty"`
	Score       float64            `json:"score"`
	Snippet     string             `json:"snippet,omitempty"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
}

// ClusterItem references flat-list results by ID rather than repeating them.
type ClusterItem struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	Category         string   `json:"category,omitempty"`
	ResultIDs        []string `json:"resultIds"`
	Count            int      `json:"count"`
	AverageRating    float64  `json:"averageRating"`
	MinSimilarity    float64  `json:"minSimilarity"`
	MaxSimilarity    float64  `json:"maxSimilarity"`
	DominantFeatures []string `json:"dominantFeatures,omitempty"`
}

// ClusterStats summarizes the clustering pass.
type ClusterStats struct {
	TotalClusters      int     `json:"totalClusters"`
	ClusteredResults   int     `json:"clusteredResults"`
	AverageClusterSize float64 `json:"averageClusterSize"`
}

func buildResultItem(r *result.Result) ResultItem {
	doc := r.Doc()
	item := ResultItem{
		ID:          doc.ID(),
		Type:        string(doc.Kind()),
		Title:       doc.Title(),
		URL:         doc.URL(),
		Summary:     doc.Summary(),
		Category:    doc.Category(),
		Subcategory: doc.Subcategory(),
		Tags:        doc.Tags(),
		Features:    doc.Features(),
		ReviewCount: doc.ReviewCount(),
		Views:       doc.Views(),
		Pricing:     doc.Pricing().Label,
		Score:       round2(r.Similarity()),
		Snippet:     r.Snippet(),
		Breakdown:   r.Breakdown(),
	}
	if rating, ok := doc.Rating(); ok {
		item.Rating = &rating
	}
	if t := doc.PublishedAt(); !t.IsZero() {
		item.PublishedAt = t.Format(time.RFC3339)
	}
	if t := doc.UpdatedAt(); !t.IsZero() {
		item.UpdatedAt = t.Format(time.RFC3339)
	}
	return item
}

func buildClusterItems(clusters []cluster.Cluster) ([]ClusterItem, *ClusterStats) {
	if len(clusters) == 0 {
		return nil, nil
	}

	items := make([]ClusterItem, 0, len(clusters))
	clustered := make(map[string]bool)
	for _, c := range clusters {
		ids := make([]string, 0, len(c.Results))
		for _, r := range c.Results {
			ids = append(ids, r.Doc().ID())
			clustered[r.Doc().ID()] = true
		}
		items = append(items, ClusterItem{
			Name:             c.Name,
			Kind:             string(c.Kind),
			Category:         c.Category,
			ResultIDs:        ids,
			Count:            c.Stats.Count,
			AverageRating:    round2(c.Stats.AverageRating),
			MinSimilarity:    round2(c.Stats.MinSimilarity),
			MaxSimilarity:    round2(c.Stats.MaxSimilarity),
			DominantFeatures: c.Stats.DominantFeatures,
		})
	}

	var sizeSum int
	for _, item := range items {
		sizeSum += item.Count
	}
	stats := &ClusterStats{
		TotalClusters:      len(items),
		ClusteredResults:   len(clustered),
		AverageClusterSize: round2(float64(sizeSum) / float64(len(items))),
	}
	return items, stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
