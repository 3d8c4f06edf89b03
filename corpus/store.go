// Package corpus provides read-only access to the medical knowledge base.
// The corpus is built by a separate ingestion pipeline; this package only
// queries it.
package corpus

import (
	"context"
	"errors"
)

// ErrCorpusUnavailable reports that the backing vector store cannot be
// reached. Callers degrade retrieval rather than failing the pipeline.
var ErrCorpusUnavailable = errors.New("knowledge corpus unavailable")

// KnowledgeEntry is one retrievable unit: a condition, guideline or
// research excerpt. Embeddings are precomputed at ingestion time.
type KnowledgeEntry struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Citation    string    `json:"citation"`
	Category    string    `json:"category"`
	BodySystems []string  `json:"body_systems,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// ScoredEntry pairs an entry with its cosine similarity to a query.
type ScoredEntry struct {
	Entry KnowledgeEntry `json:"entry"`
	Score float32        `json:"score"`
}

// EntryFilter restricts a search by entry metadata. A nil filter matches
// everything.
type EntryFilter struct {
	Category   string
	BodySystem string
}

// Matches reports whether the entry satisfies the filter.
func (f *EntryFilter) Matches(e KnowledgeEntry) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.BodySystem != "" {
		found := false
		for _, s := range e.BodySystems {
			if s == f.BodySystem {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store is the read-only accessor over the vector similarity index.
// Implementations may apply the filter natively or ignore it; the
// retrieval ranker re-applies it either way, so results are identical
// regardless of where filtering happens.
type Store interface {
	Search(ctx context.Context, vector []float32, limit int, filter *EntryFilter) ([]ScoredEntry, error)
	Close() error
}
