package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"medichat-go/internal/chunker"
	"medichat-go/internal/config"
	"medichat-go/internal/heuristics"
	"medichat-go/internal/model"
	"medichat-go/internal/repository"
	"medichat-go/pkg/embedding"
	"medichat-go/pkg/events"
	"medichat-go/pkg/log"
	"medichat-go/pkg/storage"
	"medichat-go/pkg/vectorstore"
)

// TextExtractor pulls plain text out of an uploaded document. Satisfied
// by pdf.Extractor.
type TextExtractor interface {
	ExtractText(content []byte, fileName string) (string, error)
}

// ErrInvalidUpload marks input validation failures: wrong file type,
// oversized or empty file, missing patient id for private content. The
// pipeline never starts for these.
var ErrInvalidUpload = errors.New("invalid upload")

// ErrContentRejected marks content failures discovered inside the
// pipeline: no extractable text, or failed authorization validation. The
// reason string is meant for the caller.
var ErrContentRejected = errors.New("document rejected")

// UploadService runs the ingestion pipeline: validate, extract, gate,
// chunk, embed, and store.
type UploadService interface {
	ProcessPDF(ctx context.Context, fileName string, content []byte, contentType, patientID string) (*model.UploadResponse, error)
	Stats(ctx context.Context) (vectorstore.Stats, error)
	ListDocuments() ([]model.DocumentUpload, error)
	DeleteRecord(ctx context.Context, recordID string) error
}

type uploadService struct {
	cfg             config.UploadConfig
	extractor       TextExtractor
	embeddingClient embedding.Client
	store           vectorstore.Store
	documentRepo    repository.DocumentRepository
	archive         *storage.Archive
	publisher       events.Publisher
}

// NewUploadService creates an UploadService. The archive may be nil when
// object storage is not configured; raw-file archiving is then skipped.
func NewUploadService(
	cfg config.UploadConfig,
	extractor TextExtractor,
	embeddingClient embedding.Client,
	store vectorstore.Store,
	documentRepo repository.DocumentRepository,
	archive *storage.Archive,
	publisher events.Publisher,
) UploadService {
	return &uploadService{
		cfg:             cfg,
		extractor:       extractor,
		embeddingClient: embeddingClient,
		store:           store,
		documentRepo:    documentRepo,
		archive:         archive,
		publisher:       publisher,
	}
}

// ProcessPDF ingests one PDF document. The whole extract-chunk-embed-store
// sequence runs under the configured timeout ceiling; on timeout the
// upload is reported as failed, never silently retried.
func (s *uploadService) ProcessPDF(ctx context.Context, fileName string, content []byte, contentType, patientID string) (*model.UploadResponse, error) {
	if err := s.validateInput(fileName, content, contentType); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ProcessTimeoutMs)*time.Millisecond)
	defer cancel()

	uploadRecord := &model.DocumentUpload{
		FileName:    fileName,
		ContentType: contentType,
		PatientID:   patientID,
		SizeBytes:   int64(len(content)),
		Status:      model.UploadStatusProcessing,
	}
	if err := s.documentRepo.CreateUploadRecord(uploadRecord); err != nil {
		log.Errorf("[Upload] failed to create upload record: %v", err)
	}

	resp, err := s.runPipeline(ctx, uploadRecord, fileName, content, contentType, patientID)
	if err != nil {
		s.recordOutcome(uploadRecord.ID, model.UploadStatusFailed, 0, 0, 0)
		return nil, err
	}
	s.recordOutcome(uploadRecord.ID, model.UploadStatusCompleted, resp.ExtractedTextLength, resp.ChunksCreated, resp.RecordsStored)
	return resp, nil
}

func (s *uploadService) validateInput(fileName string, content []byte, contentType string) error {
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return fmt.Errorf("%w: only PDF files are supported", ErrInvalidUpload)
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}
	if int64(len(content)) > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: file exceeds the %d byte limit", ErrInvalidUpload, s.cfg.MaxFileSize)
	}
	if contentType != model.ContentTypeHospitalPublic && contentType != model.ContentTypePatientPrivate {
		return fmt.Errorf("%w: content_type must be %s or %s", ErrInvalidUpload, model.ContentTypeHospitalPublic, model.ContentTypePatientPrivate)
	}
	return nil
}

func (s *uploadService) runPipeline(ctx context.Context, uploadRecord *model.DocumentUpload, fileName string, content []byte, contentType, patientID string) (*model.UploadResponse, error) {
	text, err := s.extractor.ExtractText(content, fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentRejected, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no extractable text in document", ErrContentRejected)
	}

	info := heuristics.ExtractPatientInfo(text)

	switch contentType {
	case model.ContentTypeHospitalPublic:
		auth := heuristics.ValidateAuthorization(text)
		if !auth.Authorized {
			log.Warnf("[Upload] authorization failed for %s: %s", fileName, auth.Reason)
			return nil, fmt.Errorf("%w: %s", ErrContentRejected, auth.Reason)
		}
		log.Infof("[Upload] authorization passed for %s: %v", fileName, auth.MatchedPatterns)
		// Public content is never scoped to a patient.
		patientID = ""
	case model.ContentTypePatientPrivate:
		if patientID == "" {
			if info.PatientID == "" {
				return nil, fmt.Errorf("%w: patient_id is required for %s content and none could be extracted", ErrInvalidUpload, model.ContentTypePatientPrivate)
			}
			patientID = info.PatientID
			log.Infof("[Upload] recovered patient id %s from document text", patientID)
		}
	}

	chunks := chunker.Chunk(text, fileName, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no usable chunks", ErrContentRejected)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embeddingClient.CreateEmbeddingsBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	now := time.Now()
	uploadedAt := now.Format(time.RFC3339)
	records := make([]vectorstore.Record, len(chunks))
	chunkRows := make([]model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:          c.ChunkID,
			Vector:      vectors[i],
			Content:     c.Content,
			ContentType: contentType,
			PatientID:   patientID,
			PatientName: info.PatientName,
			SourceFile:  c.SourceFile,
			ChunkIndex:  c.ChunkIndex,
			UploadedAt:  uploadedAt,
		}
		chunkRows[i] = model.DocumentChunk{
			RecordID:    c.ChunkID,
			FileName:    fileName,
			ChunkIndex:  c.ChunkIndex,
			TextContent: c.Content,
			ContentType: contentType,
			PatientID:   patientID,
		}
	}

	stored, err := s.store.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}

	if err := s.documentRepo.CreateChunkRecords(chunkRows); err != nil {
		log.Errorf("[Upload] failed to persist chunk rows for %s: %v", fileName, err)
	}
	s.archiveOriginal(ctx, fileName, content)

	s.publisher.Publish(ctx, events.TypeDocumentIngested, events.DocumentIngested{
		FileName:      fileName,
		ContentType:   contentType,
		PatientID:     patientID,
		ChunksCreated: len(chunks),
		RecordsStored: stored,
	})

	log.Infof("[Upload] processed %s: %d chars, %d chunks, %d records stored", fileName, len(text), len(chunks), stored)
	return &model.UploadResponse{
		Success:             true,
		Message:             fmt.Sprintf("document processed, %d of %d chunks stored", stored, len(chunks)),
		Filename:            fileName,
		ExtractedTextLength: len(text),
		ChunksCreated:       len(chunks),
		RecordsStored:       stored,
		Timestamp:           now,
	}, nil
}

// archiveOriginal keeps the raw PDF in object storage. Best effort; the
// vector records are already stored.
func (s *uploadService) archiveOriginal(ctx context.Context, fileName string, content []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Put(ctx, fileName, content, "application/pdf"); err != nil {
		log.Warnf("[Upload] failed to archive original %s: %v", fileName, err)
	}
}

func (s *uploadService) recordOutcome(uploadID uint, status, textLength, chunkCount, recordsStored int) {
	if uploadID == 0 {
		return
	}
	if err := s.documentRepo.UpdateUploadOutcome(uploadID, status, textLength, chunkCount, recordsStored); err != nil {
		log.Errorf("[Upload] failed to update upload outcome: %v", err)
	}
}

// Stats reports the vector index summary.
func (s *uploadService) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return s.store.Stats(ctx)
}

// ListDocuments returns the recent upload audit rows.
func (s *uploadService) ListDocuments() ([]model.DocumentUpload, error) {
	return s.documentRepo.ListUploads(100)
}

// DeleteRecord removes one record from the vector index and its chunk row.
func (s *uploadService) DeleteRecord(ctx context.Context, recordID string) error {
	if err := s.store.Delete(ctx, recordID); err != nil {
		return err
	}
	if err := s.documentRepo.DeleteChunkByRecordID(recordID); err != nil {
		log.Errorf("[Upload] failed to delete chunk row %s: %v", recordID, err)
	}
	return nil
}
