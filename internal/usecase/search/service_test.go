package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/rank"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	"github.com/digital-hub-ai/hubsearch/internal/repository/profilestore"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/clusterize"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/personalize"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/rerank"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/scoring"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/understand"
)

type stubCollection struct {
	docs      []document.Document
	facets    document.Facets
	err       error
	snapshots int
}

func (c *stubCollection) Snapshot(context.Context) ([]document.Document, error) {
	c.snapshots++
	if c.err != nil {
		return nil, c.err
	}
	return c.docs, nil
}

func (c *stubCollection) Facets(context.Context) (document.Facets, error) {
	return c.facets, nil
}

type stubCache struct {
	entries map[string][]byte
}

func newStubCache() *stubCache { return &stubCache{entries: map[string][]byte{}} }

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool) {
	payload, ok := c.entries[key]
	return payload, ok
}

func (c *stubCache) Set(_ context.Context, key string, payload []byte) {
	c.entries[key] = payload
}

type stubAnalytics struct {
	queries []string
}

func (a *stubAnalytics) RecordSearch(_ context.Context, q string) {
	a.queries = append(a.queries, q)
}

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vectors[text]}, nil
}

func (s *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		res, err := s.Embed(ctx, t)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		out.Embeddings[i] = res.Embedding
	}
	return out, nil
}

func newPipeline(t *testing.T, emb scoring.Embedder, coll *stubCollection, cache *stubCache, an *stubAnalytics) *Service {
	t.Helper()
	score, err := scoring.NewService(emb, scoring.Config{
		MinSimilarity:    0.1,
		MinEmbedQueryLen: 3,
		FuzzyBlend:       0.3,
		ChunkSize:        4,
		Workers:          2,
	})
	require.NoError(t, err)
	t.Cleanup(score.Release)

	return NewService(
		understand.NewService(),
		score,
		personalize.NewService(personalize.Config{DiversityCeiling: 0.8}),
		rerank.NewService(rank.Default()),
		clusterize.NewService(clusterize.Config{MaxClusters: 10, FeatureSubclusters: 3}),
		coll,
		profilestore.New(),
		cache,
		an,
	)
}

func fixtureDoc(t *testing.T, id, title, summary, category string) document.Document {
	t.Helper()
	doc, err := document.New(id, document.KindTool, title, "long form description of "+title, document.Fields{
		Summary:  summary,
		Category: category,
	})
	require.NoError(t, err)
	return doc
}

func mustRequest(t *testing.T, q string, opts request.Options) request.Request {
	t.Helper()
	req, err := request.New(q, opts)
	require.NoError(t, err)
	return req
}

func TestSearchRanksSemanticResults(t *testing.T) {
	docA := fixtureDoc(t, "a", "Image Studio", "generates images from prompts", "design")
	docB := fixtureDoc(t, "b", "Ledger Pro", "tracks invoices", "finance")
	docC := fixtureDoc(t, "c", "Photo Lab", "edits photos", "design")
	coll := &stubCollection{docs: []document.Document{docA, docB, docC}}

	emb := &stubEmbedder{vectors: map[string][]float32{
		"image generator": {1, 0},
		docA.SearchText(): {1, 0},
		docB.SearchText(): {0, 1},
		docC.SearchText(): {0.8, 0.6},
	}}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "image generator", request.Options{})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "image generator", resp.Query)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "a", resp.Results[0].ID)
	assert.Equal(t, "c", resp.Results[1].ID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestSearchAppliesOptionFilters(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Studio", "generates images", "design"),
		fixtureDoc(t, "b", "Image Archive", "stores images", "storage"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{vectors: map[string][]float32{
		"image tools":        {1, 0},
		docs[0].SearchText(): {1, 0},
		docs[1].SearchText(): {1, 0},
	}}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "image tools", request.Options{Category: "design"})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "a", resp.Results[0].ID)
}

func TestSearchDegradesToLexicalOnEmbedFailure(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Editor", "edit images online", "design"),
		fixtureDoc(t, "b", "Tax Helper", "files tax returns", "finance"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "image editor", request.Options{})
	resp, err := svc.Search(context.Background(), req)

	// The caller still gets a full ranked response.
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "a", resp.Results[0].ID)
}

func TestSearchServesIdenticalRequestFromCache(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Studio", "generates images", "design"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{vectors: map[string][]float32{
		"image studio":       {1, 0},
		docs[0].SearchText(): {1, 0},
	}}
	an := &stubAnalytics{}
	svc := newPipeline(t, emb, coll, newStubCache(), an)

	req := mustRequest(t, "image studio", request.Options{})
	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, first.Results, second.Results)
	// The cached path skips the pipeline entirely.
	assert.Equal(t, 1, coll.snapshots)
	assert.Len(t, an.queries, 1)
}

func TestSearchAppliesIntentDefaultLimit(t *testing.T) {
	var docs []document.Document
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		docs = append(docs, fixtureDoc(t, id, "Image Editor "+id, "edit images in the browser", "design"))
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	// Navigational queries default to five results.
	req := mustRequest(t, "download image editor", request.Options{})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 5, resp.Count)
}

func TestSearchExplicitLimitWins(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Editor", "edit images", "design"),
		fixtureDoc(t, "b", "Image Viewer", "view images", "design"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "image editor", request.Options{Limit: 1})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
}

func TestSearchClustersWhenRequested(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Studio", "generates images", "design"),
		fixtureDoc(t, "b", "Photo Lab", "edits photos and images", "design"),
		fixtureDoc(t, "c", "Ledger Pro", "tracks invoices and images of receipts", "finance"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "images", request.Options{Cluster: true})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	require.NotEmpty(t, resp.Clusters)
	require.NotNil(t, resp.ClusterStats)
	names := make([]string, 0, len(resp.Clusters))
	for _, c := range resp.Clusters {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "design")
	assert.Contains(t, names, "finance")
	assert.Equal(t, len(resp.Clusters), resp.ClusterStats.TotalClusters)
}

func TestSearchSurfacesCollectionError(t *testing.T) {
	coll := &stubCollection{err: domain.ErrCollectionUnavailable}
	emb := &stubEmbedder{}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "anything", request.Options{})
	_, err := svc.Search(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
}

func TestSearchIncludesFacets(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Studio", "generates images", "design"),
	}
	coll := &stubCollection{
		docs: docs,
		facets: document.Facets{
			Categories: []document.Facet{{Value: "design", Count: 1}},
			Types:      []document.Facet{{Value: "tool", Count: 1}},
		},
	}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "image studio", request.Options{})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, coll.facets, resp.Facets)
}

func TestSearchKeepsPersonalizedResponsesOutOfSharedCache(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Photo Lab", "edits photos", "design"),
		fixtureDoc(t, "b", "Photo Vault", "stores photos", "storage"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{vectors: map[string][]float32{
		"photo tools":        {1, 0},
		docs[0].SearchText(): {0.95, 0.3122499},
		docs[1].SearchText(): {0.9, 0.4358899},
	}}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	require.NoError(t, svc.Track(context.Background(), "u1", "b", EventFeedback, 5))

	personalized, err := svc.Search(context.Background(), mustRequest(t, "photo tools", request.Options{UserID: "u1"}))
	require.NoError(t, err)
	require.Equal(t, 2, personalized.Count)
	assert.Equal(t, "b", personalized.Results[0].ID, "positive feedback lifts b for its own user")

	anon, err := svc.Search(context.Background(), mustRequest(t, "photo tools", request.Options{}))
	require.NoError(t, err)
	require.Equal(t, 2, anon.Count)
	assert.Equal(t, "a", anon.Results[0].ID, "anonymous callers must not inherit another user's boosts")
}

func TestSearchConcurrentProfileUse(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Editor", "edit images online", "design"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	const searches = 8
	reqs := make([]request.Request, searches)
	for i := range reqs {
		reqs[i] = mustRequest(t, fmt.Sprintf("image editor %d", i), request.Options{UserID: "u1"})
	}

	var wg sync.WaitGroup
	for i := 0; i < searches; i++ {
		wg.Add(2)
		go func(req request.Request) {
			defer wg.Done()
			_, err := svc.Search(context.Background(), req)
			assert.NoError(t, err)
		}(reqs[i])
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Track(context.Background(), "u1", "a", EventClick, 0))
		}()
	}
	wg.Wait()

	store := svc.profiles.(*profilestore.Store)
	p, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, p.RecentQueries, searches)
	assert.True(t, p.HasClicked("a"))
}

func TestSearchClusterCountKeepsCoverage(t *testing.T) {
	docs := []document.Document{
		fixtureDoc(t, "a", "Image Studio", "generates images", "design"),
		fixtureDoc(t, "b", "Ledger Pro", "tracks invoices and images of receipts", "finance"),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "images", request.Options{Cluster: true, ClusterCount: 1})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	require.NotEmpty(t, resp.Clusters)

	covered := map[string]bool{}
	for _, c := range resp.Clusters {
		for _, id := range c.ResultIDs {
			covered[id] = true
		}
	}
	for _, r := range resp.Results {
		assert.True(t, covered[r.ID], "result %s must stay reachable through a cluster", r.ID)
	}
}

func TestSearchFilterExpressionWithRatingFloor(t *testing.T) {
	rated := func(id, title, category string, rating float64, free bool) document.Document {
		t.Helper()
		pricing := document.Pricing{Label: "Paid", HasPaid: true}
		var tags []string
		if free {
			pricing = document.Pricing{Label: "Free", HasFree: true}
			tags = []string{"free"}
		}
		doc, err := document.New(id, document.KindTool, title, "long form description of "+title, document.Fields{
			Summary:  "generates images from text prompts",
			Category: category,
			Rating:   &rating,
			Tags:     tags,
			Pricing:  pricing,
		})
		require.NoError(t, err)
		return doc
	}

	docs := []document.Document{
		rated("a", "Image Forge", "image generation", 4.5, true),
		rated("b", "Image Sketcher", "image generation", 3.6, true),
		rated("c", "Cut Studio", "video editing", 4.9, true),
		rated("d", "Image Painter", "image generation", 4.7, false),
		rated("e", "Image Muse", "image generation", 4.2, true),
	}
	coll := &stubCollection{docs: docs}
	emb := &stubEmbedder{err: errors.New("provider unavailable")}
	svc := newPipeline(t, emb, coll, newStubCache(), &stubAnalytics{})

	req := mustRequest(t, "free image generator", request.Options{
		FilterExpr: "category:image_generation",
		MinRating:  4,
	})
	resp, err := svc.Search(context.Background(), req)

	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	ids := []string{resp.Results[0].ID, resp.Results[1].ID}
	assert.ElementsMatch(t, []string{"a", "e"}, ids)
}
