// Package handler contains the HTTP controller layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"medichat-go/internal/model"
	"medichat-go/internal/service"
	"medichat-go/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler serves the chat endpoints: one-shot completion, websocket
// streaming, and history lookup.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// AIResponse handles POST /api/v1/chat/ai-response.
func (h *ChatHandler) AIResponse(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	resp, err := h.chatService.GenerateResponse(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrProviderUnavailable) {
			log.Errorf("[ChatHandler] provider unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "ai service temporarily unavailable"})
			return
		}
		log.Errorf("[ChatHandler] chat request failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History handles GET /api/v1/chat/history?patient_id=...
func (h *ChatHandler) History(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "patient_id query parameter is required"})
		return
	}

	history, err := h.chatService.GetHistory(c.Request.Context(), patientID)
	if err != nil {
		log.Errorf("[ChatHandler] failed to load history: %v", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient_id": patientID, "messages": history})
}

// Websocket handles GET /chat/ws. Each text frame is one chat request;
// the streamed answer chunks are written back as text frames, closed by a
// done marker.
func (h *ChatHandler) Websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("[ChatHandler] websocket read failed: %v", err)
			break
		}

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Query == "" {
			writeWSError(conn, "invalid request: expected {\"query\": ...}")
			continue
		}

		if err := h.chatService.StreamResponse(c.Request.Context(), &req, conn); err != nil {
			log.Errorf("[ChatHandler] streaming failed: %v", err)
			writeWSError(conn, "ai service temporarily unavailable")
		}
	}
}

func writeWSError(conn *websocket.Conn, message string) {
	payload, _ := json.Marshal(gin.H{"error": message})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warnf("[ChatHandler] failed to write websocket error: %v", err)
	}
}
