// Package clusterize groups final results into labeled buckets for
// presentation. Grouping is metadata alongside the flat list; every
// result stays reachable through at least one returned cluster.
package clusterize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/cluster"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

// Categories larger than splitThreshold are split into a top-rated
// cluster (the top topRatedShare of the category, at most topRatedCap)
// plus the remainder.
const (
	splitThreshold = 6
	topRatedShare  = 0.3
	topRatedCap    = 5

	// recentWindow bounds the "recently updated" sub-cluster in
	// advanced mode.
	recentWindow = 30 * 24 * time.Hour

	uncategorizedName = "other"
)

// Config holds the clustering limits.
type Config struct {
	// MaxClusters caps the returned cluster count in advanced mode;
	// overflow is truncated by quality.
	MaxClusters int
	// FeatureSubclusters caps feature-derived sub-clusters per category.
	FeatureSubclusters int
}

type Service struct {
	cfg Config
	now func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Cluster groups results per category. Advanced mode adds feature and
// recency sub-clusters. maxClusters tightens the configured cap for one
// request; 0 keeps the default. The cap always passes through the
// coverage-preserving truncation, never a plain slice.
func (s *Service) Cluster(ctx context.Context, results []*result.Result, advanced bool, maxClusters int) []cluster.Cluster {
	if len(results) == 0 {
		return nil
	}

	limit := 0
	if advanced {
		limit = s.cfg.MaxClusters
	}
	if maxClusters > 0 && (limit == 0 || maxClusters < limit) {
		limit = maxClusters
	}

	clusters := s.categoryClusters(results)
	if advanced {
		clusters = append(clusters, s.featureClusters(results)...)
		if recent := s.recentCluster(results); recent != nil {
			clusters = append(clusters, *recent)
		}
	}
	if limit > 0 {
		clusters = s.truncateByQuality(clusters, results, limit)
	}

	logger.FromContext(ctx).Debug("results clustered",
		zap.Int("results", len(results)),
		zap.Int("clusters", len(clusters)),
		zap.Bool("advanced", advanced))
	return clusters
}

// categoryClusters gives every result a primary cluster. Big categories
// split into a top-rated head plus the remainder.
func (s *Service) categoryClusters(results []*result.Result) []cluster.Cluster {
	groups := make(map[string][]*result.Result)
	var order []string
	for _, r := range results {
		name := strings.ToLower(r.Doc().Category())
		if name == "" {
			name = uncategorizedName
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], r)
	}

	var clusters []cluster.Cluster
	for _, name := range order {
		members := groups[name]
		if len(members) <= splitThreshold {
			clusters = append(clusters, newCluster(name, cluster.KindCategory, name, members))
			continue
		}

		byRating := make([]*result.Result, len(members))
		copy(byRating, members)
		sort.SliceStable(byRating, func(i, j int) bool {
			ri, _ := byRating[i].Doc().Rating()
			rj, _ := byRating[j].Doc().Rating()
			return ri > rj
		})

		topN := int(float64(len(members)) * topRatedShare)
		if topN > topRatedCap {
			topN = topRatedCap
		}
		if topN < 1 {
			topN = 1
		}

		topSet := make(map[string]bool, topN)
		for _, r := range byRating[:topN] {
			topSet[r.Doc().ID()] = true
		}

		var top, remaining []*result.Result
		for _, r := range members {
			if topSet[r.Doc().ID()] {
				top = append(top, r)
			} else {
				remaining = append(remaining, r)
			}
		}

		clusters = append(clusters,
			newCluster(name+": top rated", cluster.KindTopRated, name, top),
			newCluster(name, cluster.KindCategory, name, remaining))
	}
	return clusters
}

// featureClusters derives up to the configured number of sub-clusters
// per category from the most frequent features.
func (s *Service) featureClusters(results []*result.Result) []cluster.Cluster {
	type catFeature struct{ category, feature string }
	groups := make(map[catFeature][]*result.Result)
	counts := make(map[catFeature]int)

	for _, r := range results {
		category := strings.ToLower(r.Doc().Category())
		if category == "" {
			category = uncategorizedName
		}
		for _, f := range r.Doc().Features() {
			key := catFeature{category, strings.ToLower(f)}
			groups[key] = append(groups[key], r)
			counts[key]++
		}
	}

	perCategory := make(map[string][]catFeature)
	for key := range groups {
		// A feature shared by a single result is not a cluster.
		if counts[key] >= 2 {
			perCategory[key.category] = append(perCategory[key.category], key)
		}
	}

	var clusters []cluster.Cluster
	var categories []string
	for category := range perCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		keys := perCategory[category]
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] > counts[keys[j]]
			}
			return keys[i].feature < keys[j].feature
		})
		if len(keys) > s.cfg.FeatureSubclusters {
			keys = keys[:s.cfg.FeatureSubclusters]
		}
		for _, key := range keys {
			c := newCluster(fmt.Sprintf("%s: %s", category, key.feature), cluster.KindFeature, category, groups[key])
			c.Stats.DominantFeatures = []string{key.feature}
			clusters = append(clusters, c)
		}
	}
	return clusters
}

// recentCluster collects results updated inside the recency window.
func (s *Service) recentCluster(results []*result.Result) *cluster.Cluster {
	cutoff := s.now().Add(-recentWindow)

	var members []*result.Result
	for _, r := range results {
		updated := r.Doc().UpdatedAt()
		if updated.IsZero() {
			updated = r.Doc().PublishedAt()
		}
		if !updated.IsZero() && updated.After(cutoff) {
			members = append(members, r)
		}
	}
	if len(members) == 0 {
		return nil
	}

	c := newCluster("recently updated", cluster.KindRecent, "", members)
	return &c
}

// truncateByQuality enforces the cap, dropping the lowest-quality
// clusters first. A cluster that is some result's only home is kept even
// past the cap; coverage wins over the limit.
func (s *Service) truncateByQuality(clusters []cluster.Cluster, results []*result.Result, limit int) []cluster.Cluster {
	if len(clusters) <= limit {
		return clusters
	}

	ranked := make([]int, len(clusters))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return clusters[ranked[a]].Quality() > clusters[ranked[b]].Quality()
	})

	covered := make(map[string]bool, len(results))
	kept := make(map[int]bool, limit)
	for _, idx := range ranked {
		hasUncovered := false
		for _, r := range clusters[idx].Results {
			if !covered[r.Doc().ID()] {
				hasUncovered = true
				break
			}
		}
		if len(kept) >= limit && !hasUncovered {
			continue
		}
		kept[idx] = true
		for _, r := range clusters[idx].Results {
			covered[r.Doc().ID()] = true
		}
	}

	out := make([]cluster.Cluster, 0, len(kept))
	for i, c := range clusters {
		if kept[i] {
			out = append(out, c)
		}
	}
	return out
}

func newCluster(name string, kind cluster.Kind, category string, members []*result.Result) cluster.Cluster {
	c := cluster.Cluster{Name: name, Kind: kind, Category: category, Results: members}
	c.ComputeStats(dominantFeatures(members))
	return c
}

// dominantFeatures lists the up-to-three most frequent features among
// the members.
func dominantFeatures(members []*result.Result) []string {
	counts := make(map[string]int)
	for _, r := range members {
		for _, f := range r.Doc().Features() {
			counts[strings.ToLower(f)]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	features := make([]string, 0, len(counts))
	for f := range counts {
		features = append(features, f)
	}
	sort.Slice(features, func(i, j int) bool {
		if counts[features[i]] != counts[features[j]] {
			return counts[features[i]] > counts[features[j]]
		}
		return features[i] < features[j]
	})
	if len(features) > 3 {
		features = features[:3]
	}
	return features
}
