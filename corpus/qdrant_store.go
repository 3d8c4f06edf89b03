package corpus

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore reads the knowledge collection from a qdrant instance.
// The collection is created and populated by the ingestion pipeline with
// cosine distance and one point per KnowledgeEntry.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantStore(host string, port int, collection string) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, filter *EntryFilter) ([]ScoredEntry, error) {
	qLimit := uint64(limit)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &qLimit,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	entries := make([]ScoredEntry, 0, len(points))
	for _, hit := range points {
		entry := pointToEntry(hit)
		if entry == nil {
			continue
		}
		entries = append(entries, ScoredEntry{Entry: *entry, Score: hit.GetScore()})
	}

	return entries, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func buildFilter(filter *EntryFilter) *qdrant.Filter {
	if filter == nil {
		return nil
	}

	var conditions []*qdrant.Condition
	if filter.Category != "" {
		conditions = append(conditions, qdrant.NewMatch("category", filter.Category))
	}
	if filter.BodySystem != "" {
		conditions = append(conditions, qdrant.NewMatch("body_systems", filter.BodySystem))
	}
	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{Must: conditions}
}

func pointToEntry(hit *qdrant.ScoredPoint) *KnowledgeEntry {
	payload := hit.GetPayload()
	if payload == nil {
		return nil
	}

	entry := &KnowledgeEntry{}
	if val, ok := payload["entry_id"]; ok {
		entry.ID = val.GetStringValue()
	}
	if val, ok := payload["content"]; ok {
		entry.Content = val.GetStringValue()
	}
	if val, ok := payload["citation"]; ok {
		entry.Citation = val.GetStringValue()
	}
	if val, ok := payload["category"]; ok {
		entry.Category = val.GetStringValue()
	}
	if val, ok := payload["body_systems"]; ok {
		if list := val.GetListValue(); list != nil {
			for _, v := range list.GetValues() {
				if s := v.GetStringValue(); s != "" {
					entry.BodySystems = append(entry.BodySystems, s)
				}
			}
		}
	}

	if entry.ID == "" {
		return nil
	}
	return entry
}
