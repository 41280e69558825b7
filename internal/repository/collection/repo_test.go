package collection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
)

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoaderReadsObjectsAndArrays(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "single.json",
		`{"id":"img-gen","type":"tool","title":"Image Generator","content":"Generates images","category":"Design","rating":4.5}`)
	writeFixture(t, dir, "bundle.json",
		`[{"id":"blog-1","type":"blog","title":"Post","content":"Body","publishedAt":"2025-06-01"},
		  {"id":"news-1","type":"news","title":"Launch","content":"Body","publishedAt":"2025-07-15T10:00:00Z"}]`)

	docs, err := NewLoader(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	ids := make(map[string]bool)
	for i := range docs {
		ids[docs[i].ID()] = true
	}
	assert.True(t, ids["img-gen"] && ids["blog-1"] && ids["news-1"])
}

func TestLoaderSkipsInvalidItems(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mixed.json",
		`[{"id":"good","type":"tool","title":"Good","content":"ok"},
		  {"id":"bad rating","type":"tool","title":"Bad","content":"ok"},
		  {"id":"no-title","type":"tool","content":"ok"},
		  {"id":"also-good","type":"blog","title":"Also","content":"ok"}]`)
	writeFixture(t, dir, "broken.json", `{not json`)

	docs, err := NewLoader(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "good", docs[0].ID())
	assert.Equal(t, "also-good", docs[1].ID())
}

func TestLoaderSkipsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.json", `{"id":"dup","type":"tool","title":"First","content":"ok"}`)
	writeFixture(t, dir, "b.json", `{"id":"dup","type":"tool","title":"Second","content":"ok"}`)

	docs, err := NewLoader(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

type fakeSource struct {
	docs  []document.Document
	err   error
	calls int
}

func (s *fakeSource) Load(context.Context) ([]document.Document, error) {
	s.calls++
	return s.docs, s.err
}

func mustDoc(t *testing.T, id, category string, kind document.Kind) document.Document {
	t.Helper()
	doc, err := document.New(id, kind, "Title "+id, "content", document.Fields{Category: category})
	require.NoError(t, err)
	return doc
}

func TestRepoCachesSnapshotUntilStale(t *testing.T) {
	src := &fakeSource{docs: []document.Document{mustDoc(t, "a", "Design", document.KindTool)}}

	now := time.Now()
	repo := NewRepo(src, time.Minute).WithClock(func() time.Time { return now })

	_, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	_, err = repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRepoServesStaleOnRefreshFailure(t *testing.T) {
	src := &fakeSource{docs: []document.Document{mustDoc(t, "a", "Design", document.KindTool)}}

	now := time.Now()
	repo := NewRepo(src, time.Minute).WithClock(func() time.Time { return now })

	docs, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	src.err = errors.New("disk gone")
	src.docs = nil
	now = now.Add(2 * time.Minute)

	docs, err = repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1, "stale snapshot should still be served")
}

func TestRepoUnavailableWhenNothingLoaded(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	repo := NewRepo(src, time.Minute)

	_, err := repo.Snapshot(context.Background())
	require.ErrorIs(t, err, domain.ErrCollectionUnavailable)

	src.err = nil // empty result is also unavailable
	_, err = repo.Snapshot(context.Background())
	require.ErrorIs(t, err, domain.ErrCollectionUnavailable)
}

func TestRepoFacets(t *testing.T) {
	src := &fakeSource{docs: []document.Document{
		mustDoc(t, "a", "Design", document.KindTool),
		mustDoc(t, "b", "design", document.KindTool),
		mustDoc(t, "c", "Writing", document.KindBlog),
	}}
	repo := NewRepo(src, time.Minute)

	facets, err := repo.Facets(context.Background())
	require.NoError(t, err)

	require.Len(t, facets.Categories, 2)
	assert.Equal(t, document.Facet{Value: "design", Count: 2}, facets.Categories[0])
	assert.Equal(t, document.Facet{Value: "writing", Count: 1}, facets.Categories[1])

	require.Len(t, facets.Types, 2)
	assert.Equal(t, document.Facet{Value: "tool", Count: 2}, facets.Types[0])
}
