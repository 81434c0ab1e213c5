// Package service contains the business logic layer.
package service

import (
	"context"

	"medichat-go/internal/model"
	"medichat-go/pkg/log"
	"medichat-go/pkg/vectorstore"
)

// RetrievalService runs the access-controlled similarity search.
type RetrievalService interface {
	// Search returns the topK records matching the filter policy, most
	// similar first. A vector store failure degrades to an empty result
	// so the chat turn can continue without context.
	Search(ctx context.Context, queryVector []float32, policy model.FilterPolicy) []model.PatientRecord
}

type retrievalService struct {
	store vectorstore.Store
	topK  int
}

// NewRetrievalService creates a RetrievalService over the given store.
func NewRetrievalService(store vectorstore.Store, topK int) RetrievalService {
	return &retrievalService{store: store, topK: topK}
}

func (s *retrievalService) Search(ctx context.Context, queryVector []float32, policy model.FilterPolicy) []model.PatientRecord {
	filter := &vectorstore.Filter{
		PatientID:     policy.EffectivePatientID,
		IncludePublic: policy.IncludePublic,
	}

	matches, err := s.store.Query(ctx, queryVector, s.topK, filter)
	if err != nil {
		log.Errorf("[Retrieval] vector search failed, continuing without context: %v", err)
		return nil
	}

	records := make([]model.PatientRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, model.PatientRecord{
			RecordID:    m.Record.ID,
			PatientID:   m.Record.PatientID,
			PatientName: m.Record.PatientName,
			Content:     m.Record.Content,
			ContentType: m.Record.ContentType,
			SourceFile:  m.Record.SourceFile,
			ChunkIndex:  m.Record.ChunkIndex,
			Score:       m.Score,
		})
	}
	return records
}
