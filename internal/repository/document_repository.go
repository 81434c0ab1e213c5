// Package repository implements the data access layer over MySQL and Redis.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"medichat-go/internal/model"
)

// DocumentRepository persists the relational audit trail of uploaded
// documents and their chunks. The vector index holds the embeddings; these
// tables hold what was ingested, when, and with what outcome.
type DocumentRepository interface {
	CreateUploadRecord(record *model.DocumentUpload) error
	UpdateUploadOutcome(uploadID uint, status int, textLength, chunkCount, recordsStored int) error
	ListUploads(limit int) ([]model.DocumentUpload, error)

	CreateChunkRecords(chunks []model.DocumentChunk) error
	FindChunkByRecordID(recordID string) (*model.DocumentChunk, error)
	DeleteChunkByRecordID(recordID string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a DocumentRepository backed by GORM.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// CreateUploadRecord inserts one upload row in processing state.
func (r *documentRepository) CreateUploadRecord(record *model.DocumentUpload) error {
	return r.db.Create(record).Error
}

// UpdateUploadOutcome records the final status and pipeline counters of an
// upload.
func (r *documentRepository) UpdateUploadOutcome(uploadID uint, status int, textLength, chunkCount, recordsStored int) error {
	return r.db.Model(&model.DocumentUpload{}).
		Where("id = ?", uploadID).
		Updates(map[string]interface{}{
			"status":         status,
			"text_length":    textLength,
			"chunk_count":    chunkCount,
			"records_stored": recordsStored,
		}).Error
}

// ListUploads returns the most recent uploads, newest first.
func (r *documentRepository) ListUploads(limit int) ([]model.DocumentUpload, error) {
	var records []model.DocumentUpload
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateChunkRecords batch-inserts chunk rows for one upload.
func (r *documentRepository) CreateChunkRecords(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error
}

// FindChunkByRecordID looks up the chunk row backing one vector record.
// Returns (nil, nil) when no row exists.
func (r *documentRepository) FindChunkByRecordID(recordID string) (*model.DocumentChunk, error) {
	var chunk model.DocumentChunk
	err := r.db.Where("record_id = ?", recordID).First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// DeleteChunkByRecordID removes the chunk row backing one vector record.
func (r *documentRepository) DeleteChunkByRecordID(recordID string) error {
	return r.db.Where("record_id = ?", recordID).Delete(&model.DocumentChunk{}).Error
}
