package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medichat-go/internal/model"
	"medichat-go/internal/service"
	"medichat-go/pkg/log"
)

// DocumentHandler serves the document audit endpoints.
type DocumentHandler struct {
	uploadService service.UploadService
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(uploadService service.UploadService) *DocumentHandler {
	return &DocumentHandler{uploadService: uploadService}
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	documents, err := h.uploadService.ListDocuments()
	if err != nil {
		log.Errorf("[DocumentHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents, "count": len(documents)})
}

// Delete handles DELETE /api/v1/documents/:id, where id is a vector
// record id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "record id is required"})
		return
	}

	if err := h.uploadService.DeleteRecord(c.Request.Context(), recordID); err != nil {
		log.Errorf("[DocumentHandler] delete %s failed: %v", recordID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": recordID})
}
