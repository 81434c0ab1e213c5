package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medichat-go/pkg/vectorstore"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	store vectorstore.Store
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store vectorstore.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health. The vector store check is informational;
// the endpoint reports healthy as long as the process serves requests.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if stats, err := h.store.Stats(c.Request.Context()); err == nil {
		resp["vector_store"] = stats
	} else {
		resp["vector_store"] = gin.H{"error": "unreachable"}
	}
	c.JSON(http.StatusOK, resp)
}
