// Package embedding provides a client for OpenAI-compatible embedding APIs.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"medichat-go/internal/config"
	"medichat-go/pkg/log"
)

// maxBatchInputs is the provider's per-request input ceiling.
const maxBatchInputs = 2000

// Client defines the interface for an embedding provider.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// CreateEmbeddingsBatch returns one vector per input text, same order
	// and same length as the input. A failed sub-batch is replaced by
	// zero-vectors of the configured dimension rather than aborting the
	// whole batch.
	CreateEmbeddingsBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates an embedding client from the configuration.
func NewClient(cfg config.EmbeddingConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Dimension returns the configured vector dimension.
func (c *openAICompatibleClient) Dimension() int {
	return c.cfg.Dimensions
}

// CreateEmbedding returns the vector for a single text.
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("received empty embedding from api")
	}
	return vectors[0], nil
}

// CreateEmbeddingsBatch embeds texts in sub-batches of at most
// maxBatchInputs inputs, substituting zero-vectors for a failed sub-batch
// to preserve order and count.
func (c *openAICompatibleClient) CreateEmbeddingsBatch(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchInputs {
		end := start + maxBatchInputs
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := c.request(ctx, batch)
		if err != nil || len(vectors) != len(batch) {
			log.Errorf("[EmbeddingClient] sub-batch %d-%d failed, substituting zero-vectors: %v", start, end, err)
			for range batch {
				all = append(all, make([]float32, c.cfg.Dimensions))
			}
			continue
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (c *openAICompatibleClient) request(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = strings.ReplaceAll(t, "\n", " ")
	}

	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      cleaned,
		Dimensions: c.cfg.Dimensions,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding api returned non-200 status: %s", resp.Status)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	vectors := make([][]float32, len(embeddingResp.Data))
	for i, d := range embeddingResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
