package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-ai/symptom-core/corpus"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

type stubStore struct {
	scored []corpus.ScoredEntry
	err    error
	// filter seen on the last Search call
	gotFilter *corpus.EntryFilter
}

func (s *stubStore) Search(ctx context.Context, vector []float32, limit int, filter *corpus.EntryFilter) ([]corpus.ScoredEntry, error) {
	s.gotFilter = filter
	return s.scored, s.err
}

func (s *stubStore) Close() error { return nil }

func entry(id, category string, score float32) corpus.ScoredEntry {
	return corpus.ScoredEntry{
		Entry: corpus.KnowledgeEntry{ID: id, Category: category, Content: "content " + id, Citation: "cite " + id},
		Score: score,
	}
}

func TestRanker_RetrieveOrdersAndTruncates(t *testing.T) {
	store := &stubStore{scored: []corpus.ScoredEntry{
		entry("e1", "cardiac", 0.72),
		entry("e2", "cardiac", 0.95),
		entry("e3", "cardiac", 0.88),
		entry("e4", "cardiac", 0.80),
	}}
	ranker := NewRanker(&stubEmbedder{vector: []float32{1, 0}}, store, 3, 0.7)

	result := ranker.Retrieve(context.Background(), "chest pain", nil)
	require.False(t, result.Degraded)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "e2", result.Entries[0].Entry.ID)
	assert.Equal(t, "e3", result.Entries[1].Entry.ID)
	assert.Equal(t, "e4", result.Entries[2].Entry.ID)
}

func TestRanker_RetrieveDropsBelowThreshold(t *testing.T) {
	store := &stubStore{scored: []corpus.ScoredEntry{
		entry("e1", "cardiac", 0.69),
		entry("e2", "cardiac", 0.71),
	}}
	ranker := NewRanker(&stubEmbedder{vector: []float32{1, 0}}, store, 5, 0.7)

	result := ranker.Retrieve(context.Background(), "mild ache", nil)
	require.False(t, result.Degraded)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "e2", result.Entries[0].Entry.ID)
}

func TestRanker_RetrieveReappliesFilter(t *testing.T) {
	// Store ignores the filter and returns a superset; the ranker must
	// still produce only matching entries.
	store := &stubStore{scored: []corpus.ScoredEntry{
		entry("e1", "cardiac", 0.9),
		entry("e2", "neurological", 0.95),
	}}
	ranker := NewRanker(&stubEmbedder{vector: []float32{1, 0}}, store, 5, 0.7)

	filter := &corpus.EntryFilter{Category: "cardiac"}
	result := ranker.Retrieve(context.Background(), "headache", filter)
	require.False(t, result.Degraded)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "e1", result.Entries[0].Entry.ID)
	assert.Equal(t, filter, store.gotFilter)
}

func TestRanker_RetrieveTieBreaksByID(t *testing.T) {
	store := &stubStore{scored: []corpus.ScoredEntry{
		entry("b", "cardiac", 0.9),
		entry("a", "cardiac", 0.9),
	}}
	ranker := NewRanker(&stubEmbedder{vector: []float32{1, 0}}, store, 5, 0.7)

	result := ranker.Retrieve(context.Background(), "chest pain", nil)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "a", result.Entries[0].Entry.ID)
	assert.Equal(t, "b", result.Entries[1].Entry.ID)
}

func TestRanker_RetrieveDegradesOnEmbedderFailure(t *testing.T) {
	ranker := NewRanker(&stubEmbedder{err: errors.New("jina unreachable")}, &stubStore{}, 5, 0.7)

	result := ranker.Retrieve(context.Background(), "chest pain", nil)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Entries)
}

func TestRanker_RetrieveDegradesOnStoreFailure(t *testing.T) {
	store := &stubStore{err: corpus.ErrCorpusUnavailable}
	ranker := NewRanker(&stubEmbedder{vector: []float32{1, 0}}, store, 5, 0.7)

	result := ranker.Retrieve(context.Background(), "chest pain", nil)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Entries)
}

func TestNewRanker_Defaults(t *testing.T) {
	ranker := NewRanker(&stubEmbedder{}, &stubStore{}, 0, 0)
	assert.Equal(t, DefaultTopK, ranker.topK)
	assert.Equal(t, float32(DefaultSimilarityThreshold), ranker.threshold)
}
