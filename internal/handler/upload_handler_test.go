package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichat-go/internal/model"
	"medichat-go/internal/service"
	"medichat-go/pkg/vectorstore"
)

type fakeUploadService struct {
	resp  *model.UploadResponse
	err   error
	stats vectorstore.Stats
}

func (f *fakeUploadService) ProcessPDF(context.Context, string, []byte, string, string) (*model.UploadResponse, error) {
	return f.resp, f.err
}

func (f *fakeUploadService) Stats(context.Context) (vectorstore.Stats, error) {
	return f.stats, nil
}

func (f *fakeUploadService) ListDocuments() ([]model.DocumentUpload, error) { return nil, nil }

func (f *fakeUploadService) DeleteRecord(context.Context, string) error { return nil }

func newUploadRouter(svc service.UploadService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUploadHandler(svc)
	r.POST("/api/v1/upload/pdf", h.UploadPDF)
	r.GET("/api/v1/upload/stats", h.Stats)
	return r
}

func postPDF(r *gin.Engine, withFile bool) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if withFile {
		part, _ := mw.CreateFormFile("file", "report.pdf")
		part.Write([]byte("%PDF-1.4 test"))
	}
	mw.WriteField("content_type", model.ContentTypeHospitalPublic)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/pdf", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadPDFOK(t *testing.T) {
	svc := &fakeUploadService{resp: &model.UploadResponse{Success: true, ChunksCreated: 2, RecordsStored: 2}}
	r := newUploadRouter(svc)

	w := postPDF(r, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"success\":true")
}

func TestUploadPDFMissingFile(t *testing.T) {
	r := newUploadRouter(&fakeUploadService{})

	w := postPDF(r, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPDFErrorMapping(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("%w: only PDF files are supported", service.ErrInvalidUpload), http.StatusBadRequest},
		{fmt.Errorf("%w: missing institutional identifiers", service.ErrContentRejected), http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusRequestTimeout},
		{fmt.Errorf("store down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		r := newUploadRouter(&fakeUploadService{err: tt.err})
		w := postPDF(r, true)
		assert.Equal(t, tt.expected, w.Code, "error: %v", tt.err)
	}
}

func TestUploadStats(t *testing.T) {
	svc := &fakeUploadService{stats: vectorstore.Stats{Count: 42, Dimension: 1536, StoreType: "memory"}}
	r := newUploadRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upload/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"total_vector_count\":42")
}
