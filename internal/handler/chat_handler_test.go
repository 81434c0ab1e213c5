package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichat-go/internal/model"
	"medichat-go/internal/service"
)

type fakeChatService struct {
	resp    *model.ChatResponse
	err     error
	history []model.ChatMessage
}

func (f *fakeChatService) GenerateResponse(context.Context, *model.ChatRequest) (*model.ChatResponse, error) {
	return f.resp, f.err
}

func (f *fakeChatService) StreamResponse(context.Context, *model.ChatRequest, *websocket.Conn) error {
	return f.err
}

func (f *fakeChatService) GetHistory(context.Context, string) ([]model.ChatMessage, error) {
	return f.history, nil
}

func newChatRouter(svc service.ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(svc)
	r.POST("/api/v1/chat/ai-response", h.AIResponse)
	r.GET("/api/v1/chat/history", h.History)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAIResponseOK(t *testing.T) {
	svc := &fakeChatService{resp: &model.ChatResponse{
		Response:  "hello",
		Timestamp: time.Now(),
	}}
	r := newChatRouter(svc)

	w := postJSON(r, "/api/v1/chat/ai-response", model.ChatRequest{Query: "hi"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello", resp.Response)
}

func TestAIResponseMissingQuery(t *testing.T) {
	r := newChatRouter(&fakeChatService{})

	w := postJSON(r, "/api/v1/chat/ai-response", map[string]string{"patient_id": "P1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIResponseProviderUnavailable(t *testing.T) {
	svc := &fakeChatService{err: fmt.Errorf("%w: upstream timeout", service.ErrProviderUnavailable)}
	r := newChatRouter(svc)

	w := postJSON(r, "/api/v1/chat/ai-response", model.ChatRequest{Query: "hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	// Internal details never leak to the caller.
	assert.NotContains(t, w.Body.String(), "upstream timeout")
}

func TestHistoryRequiresPatientID(t *testing.T) {
	r := newChatRouter(&fakeChatService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryOK(t *testing.T) {
	svc := &fakeChatService{history: []model.ChatMessage{{Role: "user", Content: "hi"}}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?patient_id=P1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"patient_id\":\"P1\"")
}
