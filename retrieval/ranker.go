package retrieval

import (
	"context"
	"sort"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"github.com/carebridge-ai/symptom-core/corpus"
	"github.com/carebridge-ai/symptom-core/embedding"
)

const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.7
)

// Result is what retrieval hands to generation. Degraded means the
// corpus or the embedding provider was unreachable and the assessment
// will proceed without supporting evidence.
type Result struct {
	Entries  []corpus.ScoredEntry
	Degraded bool
}

type Ranker struct {
	embedder  embedding.Client
	store     corpus.Store
	topK      int
	threshold float32
}

func NewRanker(embedder embedding.Client, store corpus.Store, topK int, threshold float32) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	return &Ranker{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the query and returns the topK corpus entries above
// the similarity threshold. Infrastructure failures degrade the result
// instead of failing the caller; a degraded Result carries no entries.
func (r *Ranker) Retrieve(ctx context.Context, query string, filter *corpus.EntryFilter) Result {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Error("query embedding failed, degrading retrieval", zap.Error(err))
		return Result{Degraded: true}
	}

	// Ask for more than topK so the post-filter pass still has enough
	// candidates when the store applied the filter loosely or not at all.
	scored, err := r.store.Search(ctx, vector, r.topK*4, filter)
	if err != nil {
		logger.Error("corpus search failed, degrading retrieval", zap.Error(err))
		return Result{Degraded: true}
	}

	return Result{Entries: r.rank(scored, filter)}
}

// rank re-applies the filter and ordering locally so results are the
// same whether the store filtered natively or returned a superset.
func (r *Ranker) rank(scored []corpus.ScoredEntry, filter *corpus.EntryFilter) []corpus.ScoredEntry {
	kept := make([]corpus.ScoredEntry, 0, len(scored))
	for _, s := range scored {
		if s.Score < r.threshold {
			continue
		}
		if !filter.Matches(s.Entry) {
			continue
		}
		kept = append(kept, s)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Entry.ID < kept[j].Entry.ID
	})

	if len(kept) > r.topK {
		kept = kept[:r.topK]
	}
	return kept
}
