package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"medichat-go/internal/model"
	"medichat-go/internal/service"
	"medichat-go/pkg/log"
)

// UploadHandler serves the document ingestion endpoints.
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// UploadPDF handles POST /api/v1/upload/pdf. Multipart form fields:
// file (required), content_type (required), patient_id (optional).
func (h *UploadHandler) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "failed to open uploaded file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "failed to read uploaded file"})
		return
	}

	contentType := c.PostForm("content_type")
	patientID := c.PostForm("patient_id")

	resp, err := h.uploadService.ProcessPDF(c.Request.Context(), fileHeader.Filename, content, contentType, patientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUpload):
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrContentRejected):
			c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{Error: err.Error()})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusRequestTimeout, model.ErrorResponse{Error: "document processing timed out"})
		default:
			log.Errorf("[UploadHandler] upload failed: %v", err)
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/upload/stats.
func (h *UploadHandler) Stats(c *gin.Context) {
	stats, err := h.uploadService.Stats(c.Request.Context())
	if err != nil {
		log.Errorf("[UploadHandler] stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
