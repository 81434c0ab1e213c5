package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichat-go/internal/config"
	"medichat-go/internal/model"
	"medichat-go/pkg/events"
	"medichat-go/pkg/vectorstore"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText([]byte, string) (string, error) {
	return f.text, f.err
}

type fakeDocumentRepo struct {
	uploads []*model.DocumentUpload
	chunks  []model.DocumentChunk
}

func (f *fakeDocumentRepo) CreateUploadRecord(record *model.DocumentUpload) error {
	record.ID = uint(len(f.uploads) + 1)
	f.uploads = append(f.uploads, record)
	return nil
}

func (f *fakeDocumentRepo) UpdateUploadOutcome(uploadID uint, status int, textLength, chunkCount, recordsStored int) error {
	for _, u := range f.uploads {
		if u.ID == uploadID {
			u.Status = status
			u.TextLength = textLength
			u.ChunkCount = chunkCount
			u.RecordsStored = recordsStored
		}
	}
	return nil
}

func (f *fakeDocumentRepo) ListUploads(int) ([]model.DocumentUpload, error) {
	out := make([]model.DocumentUpload, len(f.uploads))
	for i, u := range f.uploads {
		out[i] = *u
	}
	return out, nil
}

func (f *fakeDocumentRepo) CreateChunkRecords(chunks []model.DocumentChunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeDocumentRepo) FindChunkByRecordID(string) (*model.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) DeleteChunkByRecordID(recordID string) error {
	for i, c := range f.chunks {
		if c.RecordID == recordID {
			f.chunks = append(f.chunks[:i], f.chunks[i+1:]...)
			return nil
		}
	}
	return nil
}

func uploadTestConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:      1024 * 1024,
		ChunkSize:        1000,
		ChunkOverlap:     200,
		ProcessTimeoutMs: 60_000,
	}
}

func newTestUploadService(text string, store vectorstore.Store, repo *fakeDocumentRepo, publisher events.Publisher) UploadService {
	return NewUploadService(
		uploadTestConfig(),
		&fakeExtractor{text: text},
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		store,
		repo,
		nil,
		publisher,
	)
}

func TestProcessPDFHospitalPublic(t *testing.T) {
	store := vectorstore.NewMemory(2)
	repo := &fakeDocumentRepo{}
	publisher := &recordingPublisher{}
	svc := newTestUploadService("Outpatient guide. KNH stamp on page one.", store, repo, publisher)

	// The supplied patient id must not leak onto public records.
	resp, err := svc.ProcessPDF(context.Background(), "guide.pdf", []byte("%PDF"), model.ContentTypeHospitalPublic, "P9")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.ChunksCreated)
	assert.Equal(t, 1, resp.RecordsStored)

	matches, err := store.Query(context.Background(), []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, model.ContentTypeHospitalPublic, matches[0].Record.ContentType)
	assert.Empty(t, matches[0].Record.PatientID)

	require.Len(t, repo.uploads, 1)
	assert.Equal(t, model.UploadStatusCompleted, repo.uploads[0].Status)
	require.Len(t, publisher.types, 1)
	assert.Equal(t, events.TypeDocumentIngested, publisher.types[0])
}

func TestProcessPDFPatientPrivateRecoversID(t *testing.T) {
	store := vectorstore.NewMemory(2)
	svc := newTestUploadService("Patient ID: 123456 Lab results attached.", store, &fakeDocumentRepo{}, events.NopPublisher{})

	resp, err := svc.ProcessPDF(context.Background(), "labs.pdf", []byte("%PDF"), model.ContentTypePatientPrivate, "")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	matches, err := store.Query(context.Background(), []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "123456", matches[0].Record.PatientID)
	assert.Equal(t, model.ContentTypePatientPrivate, matches[0].Record.ContentType)
}

func TestProcessPDFPatientPrivateMissingID(t *testing.T) {
	svc := newTestUploadService("No identifiers in this text.", vectorstore.NewMemory(2), &fakeDocumentRepo{}, events.NopPublisher{})

	_, err := svc.ProcessPDF(context.Background(), "labs.pdf", []byte("%PDF"), model.ContentTypePatientPrivate, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestProcessPDFUnauthorizedPublicDocument(t *testing.T) {
	repo := &fakeDocumentRepo{}
	svc := newTestUploadService("Just a doctor signature, nothing else.", vectorstore.NewMemory(2), repo, events.NopPublisher{})

	_, err := svc.ProcessPDF(context.Background(), "doc.pdf", []byte("%PDF"), model.ContentTypeHospitalPublic, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentRejected)
	require.Len(t, repo.uploads, 1)
	assert.Equal(t, model.UploadStatusFailed, repo.uploads[0].Status)
}

func TestProcessPDFValidation(t *testing.T) {
	svc := newTestUploadService("text", vectorstore.NewMemory(2), &fakeDocumentRepo{}, events.NopPublisher{})
	ctx := context.Background()

	_, err := svc.ProcessPDF(ctx, "notes.txt", []byte("%PDF"), model.ContentTypeHospitalPublic, "")
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = svc.ProcessPDF(ctx, "notes.pdf", nil, model.ContentTypeHospitalPublic, "")
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = svc.ProcessPDF(ctx, "notes.pdf", make([]byte, 2*1024*1024), model.ContentTypeHospitalPublic, "")
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = svc.ProcessPDF(ctx, "notes.pdf", []byte("%PDF"), "internal_memo", "")
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestProcessPDFNoExtractableText(t *testing.T) {
	svc := NewUploadService(
		uploadTestConfig(),
		&fakeExtractor{text: "  \n "},
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		vectorstore.NewMemory(2),
		&fakeDocumentRepo{},
		nil,
		events.NopPublisher{},
	)

	_, err := svc.ProcessPDF(context.Background(), "scan.pdf", []byte("%PDF"), model.ContentTypeHospitalPublic, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentRejected)
}

func TestProcessPDFExtractionError(t *testing.T) {
	svc := NewUploadService(
		uploadTestConfig(),
		&fakeExtractor{err: errors.New("malformed pdf")},
		&fakeEmbeddingClient{vector: []float32{1, 0}},
		vectorstore.NewMemory(2),
		&fakeDocumentRepo{},
		nil,
		events.NopPublisher{},
	)

	_, err := svc.ProcessPDF(context.Background(), "scan.pdf", []byte("%PDF"), model.ContentTypeHospitalPublic, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentRejected)
}

func TestDeleteRecord(t *testing.T) {
	store := vectorstore.NewMemory(2)
	_, err := store.Upsert(context.Background(), []vectorstore.Record{{ID: "r1", Vector: []float32{1, 0}}})
	require.NoError(t, err)
	repo := &fakeDocumentRepo{chunks: []model.DocumentChunk{{RecordID: "r1"}}}
	svc := newTestUploadService("", store, repo, events.NopPublisher{})

	require.NoError(t, svc.DeleteRecord(context.Background(), "r1"))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Empty(t, repo.chunks)
}
