package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// MemoryStore holds the whole corpus in memory and scans it with cosine
// similarity. It serves deployments without a qdrant instance and tests.
// The entry set is immutable after construction.
type MemoryStore struct {
	entries []KnowledgeEntry
}

func NewMemoryStore(entries []KnowledgeEntry) *MemoryStore {
	copied := make([]KnowledgeEntry, len(entries))
	copy(copied, entries)
	return &MemoryStore{entries: copied}
}

// LoadMemoryStore reads a pre-built knowledge file produced by the
// ingestion pipeline: a JSON document with an "entries" array of
// KnowledgeEntry objects, embeddings included.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var file struct {
		Entries []KnowledgeEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file: %w", err)
	}

	for _, e := range file.Entries {
		if e.ID == "" {
			return nil, fmt.Errorf("knowledge entry without id in %s", path)
		}
	}

	return NewMemoryStore(file.Entries), nil
}

func (s *MemoryStore) Len() int {
	return len(s.entries)
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, limit int, filter *EntryFilter) ([]ScoredEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	scored := make([]ScoredEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Matches(e) {
			continue
		}
		scored = append(scored, ScoredEntry{Entry: e, Score: CosineSimilarity(vector, e.Embedding)})
	}

	// Descending score, ties broken by entry id for determinism.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
