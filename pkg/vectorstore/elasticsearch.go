package vectorstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"medichat-go/internal/config"
	"medichat-go/pkg/log"
)

// Elasticsearch implements Store on a dense_vector cosine index.
type Elasticsearch struct {
	client    *elasticsearch.Client
	indexName string
	dimension int
}

// NewElasticsearch connects to the cluster and creates the index with the
// expected mapping when it does not exist yet.
func NewElasticsearch(cfg config.VectorStoreConfig) (*Elasticsearch, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Addresses},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	store := &Elasticsearch{client: client, indexName: cfg.IndexName, dimension: cfg.Dimension}
	if err := store.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Elasticsearch) createIndexIfNotExists() error {
	res, err := s.client.Indices.Exists([]string{s.indexName})
	if err != nil {
		return fmt.Errorf("check index existence: %w", err)
	}
	defer res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists", s.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index existence: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"record_id": { "type": "keyword" },
				"content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"content_type": { "type": "keyword" },
				"patient_id": { "type": "keyword" },
				"patient_name": { "type": "keyword" },
				"source_file": { "type": "keyword" },
				"chunk_index": { "type": "integer" },
				"uploaded_at": { "type": "date" }
			}
		}
	}`, s.dimension)

	createRes, err := s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index '%s': %w", s.indexName, err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("elasticsearch returned an error creating index '%s': %s", s.indexName, createRes.String())
	}

	log.Infof("index '%s' created successfully", s.indexName)
	return nil
}

// Upsert bulk-indexes records in sub-batches of at most maxUpsertBatch
// vectors, continuing with the remaining sub-batches after a failure and
// returning the count of records actually stored.
func (s *Elasticsearch) Upsert(ctx context.Context, records []Record) (int, error) {
	stored := 0
	for start := 0; start < len(records); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		count, err := s.bulkIndex(ctx, batch)
		if err != nil {
			log.Errorf("[VectorStore] bulk upsert of records %d-%d failed, continuing: %v", start, end, err)
			continue
		}
		stored += count
	}
	if stored == 0 && len(records) > 0 {
		return 0, errors.New("no records could be stored")
	}
	return stored, nil
}

func (s *Elasticsearch) bulkIndex(ctx context.Context, batch []Record) (int, error) {
	var buf bytes.Buffer
	for _, r := range batch {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.indexName, "_id": r.ID},
		}
		actionBytes, err := json.Marshal(action)
		if err != nil {
			return 0, fmt.Errorf("marshal bulk action: %w", err)
		}
		docBytes, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshal record %s: %w", r.ID, err)
		}
		buf.Write(actionBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk request returned an error: %s", res.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	if !bulkResp.Errors {
		return len(batch), nil
	}
	stored := 0
	for _, item := range bulkResp.Items {
		for _, result := range item {
			if result.Status >= 200 && result.Status < 300 {
				stored++
			}
		}
	}
	return stored, nil
}

// Query runs a knn search with the access filter expressed as a bool
// query of should terms.
func (s *Elasticsearch) Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error) {
	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   vector,
		"k":              topK,
		"num_candidates": topK * 10,
	}
	if accessFilter := buildAccessFilter(filter); accessFilter != nil {
		knn["filter"] = accessFilter
	}

	esQuery := map[string]interface{}{
		"knn":     knn,
		"size":    topK,
		"_source": map[string]interface{}{"excludes": []string{"vector"}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("encode es query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source Record  `json:"_source"`
				Score  float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode es response: %w", err)
	}

	matches := make([]Match, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		matches = append(matches, Match{Record: hit.Source, Score: hit.Score})
	}
	return matches, nil
}

// buildAccessFilter translates a Filter into the bool query the knn
// search filters on. Mirrors matchesFilter.
func buildAccessFilter(filter *Filter) map[string]interface{} {
	if filter == nil {
		return nil
	}
	should := make([]map[string]interface{}, 0, 2)
	if filter.IncludePublic {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"content_type": "hospital_public"},
		})
	}
	if filter.PatientID != "" {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"patient_id": filter.PatientID},
		})
	}
	if len(should) == 0 {
		// Nothing may match; exclude everything.
		return map[string]interface{}{
			"bool": map[string]interface{}{"must_not": map[string]interface{}{"match_all": map[string]interface{}{}}},
		}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

// Delete removes one record by id.
func (s *Elasticsearch) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      s.indexName,
		DocumentID: id,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch returned an error deleting %s: %s", id, res.String())
	}
	return nil
}

// Stats reports the index document count and configured dimension.
func (s *Elasticsearch) Stats(ctx context.Context) (Stats, error) {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.indexName),
	)
	if err != nil {
		return Stats{}, fmt.Errorf("count index documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Stats{}, fmt.Errorf("elasticsearch returned an error counting documents: %s", res.String())
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return Stats{}, fmt.Errorf("decode count response: %w", err)
	}

	return Stats{Count: countResp.Count, Dimension: s.dimension, StoreType: "elasticsearch"}, nil
}
