// Package vectorstore defines the vector index contract and its
// Elasticsearch and in-memory implementations.
package vectorstore

import "context"

// Record is the stored unit of the vector index: one embedded document
// chunk plus the access-control metadata that retrieval filters on.
// Records are immutable after creation and removed only by Delete.
type Record struct {
	ID          string    `json:"record_id"`
	Vector      []float32 `json:"vector,omitempty"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	PatientID   string    `json:"patient_id,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
	SourceFile  string    `json:"source_file"`
	ChunkIndex  int       `json:"chunk_index"`
	UploadedAt  string    `json:"uploaded_at"`
}

// Match is a record returned by a similarity query with its cosine score.
type Match struct {
	Record Record
	Score  float64
}

// Filter restricts a query to hospital-public records, one patient's
// records, or both. A nil filter matches everything.
type Filter struct {
	PatientID     string
	IncludePublic bool
}

// Stats summarizes the index.
type Stats struct {
	Count     int64  `json:"total_vector_count"`
	Dimension int    `json:"dimension"`
	StoreType string `json:"store_type"`
}

// Store is the narrow vector index contract the core depends on.
type Store interface {
	// Upsert writes records in sub-batches, continuing past a failed
	// sub-batch, and returns how many records were stored.
	Upsert(ctx context.Context, records []Record) (int, error)
	// Query returns the topK most similar records matching the filter,
	// ordered by descending score.
	Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// maxUpsertBatch is the per-call vector ceiling of the backing index.
const maxUpsertBatch = 100

// matchesFilter applies the access filter to a record. Used by the
// in-memory store; the Elasticsearch store expresses the same logic as a
// bool query.
func matchesFilter(r Record, f *Filter) bool {
	if f == nil {
		return true
	}
	if f.IncludePublic && r.ContentType == "hospital_public" {
		return true
	}
	if f.PatientID != "" && r.PatientID == f.PatientID {
		return true
	}
	return false
}
