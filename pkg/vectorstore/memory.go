package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force cosine similarity store. It backs the service
// when Elasticsearch is unreachable at startup and serves as the test
// double for the Store contract.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]Record
}

// NewMemory creates an empty in-memory store for vectors of the given
// dimension.
func NewMemory(dimension int) *Memory {
	return &Memory{
		dimension: dimension,
		records:   make(map[string]Record),
	}
}

// Upsert stores all records keyed by id.
func (m *Memory) Upsert(ctx context.Context, records []Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return len(records), nil
}

// Query scores every stored record against the query vector and returns
// the topK matches passing the filter, best first.
func (m *Memory) Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.records))
	for _, r := range m.records {
		if !matchesFilter(r, filter) {
			continue
		}
		matches = append(matches, Match{Record: r, Score: cosineSimilarity(vector, r.Vector)})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	// Vectors are not part of query results.
	for i := range matches {
		matches[i].Record.Vector = nil
	}
	return matches, nil
}

// Delete removes one record by id. Deleting a missing id is not an error.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// Stats reports the stored record count.
func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Count: int64(len(m.records)), Dimension: m.dimension, StoreType: "memory"}, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
