package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"medichat-go/internal/heuristics"
	"medichat-go/internal/model"
	"medichat-go/internal/repository"
	"medichat-go/pkg/embedding"
	"medichat-go/pkg/events"
	"medichat-go/pkg/llm"
	"medichat-go/pkg/log"
)

// ErrProviderUnavailable marks embedding or completion provider failures.
// These are fatal to the request, unlike a vector search failure which
// only degrades the context.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

// ChatService orchestrates one chat turn: classify, embed, retrieve,
// assemble the prompt, complete, and shape the response.
type ChatService interface {
	GenerateResponse(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
	StreamResponse(ctx context.Context, req *model.ChatRequest, ws *websocket.Conn) error
	GetHistory(ctx context.Context, patientID string) ([]model.ChatMessage, error)
}

type chatService struct {
	embeddingClient  embedding.Client
	llmClient        llm.Client
	retrieval        RetrievalService
	conversationRepo repository.ConversationRepository
	publisher        events.Publisher
}

// NewChatService creates a ChatService with its collaborators.
func NewChatService(
	embeddingClient embedding.Client,
	llmClient llm.Client,
	retrieval RetrievalService,
	conversationRepo repository.ConversationRepository,
	publisher events.Publisher,
) ChatService {
	return &chatService{
		embeddingClient:  embeddingClient,
		llmClient:        llmClient,
		retrieval:        retrieval,
		conversationRepo: conversationRepo,
		publisher:        publisher,
	}
}

// GenerateResponse runs the full pipeline for one non-streaming turn.
func (s *chatService) GenerateResponse(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	records, policy, err := s.retrieveContext(ctx, req)
	if err != nil {
		return nil, err
	}

	systemPrompt := BuildSystemPrompt(records, policy.IsPatientSpecific, req.PatientName)
	answer, err := s.llmClient.Complete(ctx, systemPrompt, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: completion failed: %v", ErrProviderUnavailable, err)
	}

	shaped := ShapeContextRecords(ctx, records, policy.EffectivePatientID, s.publisher)
	s.saveHistory(req.PatientID, req.Query, answer)

	return &model.ChatResponse{
		Response:       answer,
		PatientContext: shaped,
		Timestamp:      time.Now(),
	}, nil
}

// StreamResponse runs the same pipeline but streams completion chunks
// over the websocket connection.
func (s *chatService) StreamResponse(ctx context.Context, req *model.ChatRequest, ws *websocket.Conn) error {
	records, policy, err := s.retrieveContext(ctx, req)
	if err != nil {
		return err
	}

	systemPrompt := BuildSystemPrompt(records, policy.IsPatientSpecific, req.PatientName)
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: req.Query},
	}

	answerBuilder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{conn: ws, answer: answerBuilder}
	if err := s.llmClient.StreamChatMessages(ctx, messages, nil, interceptor); err != nil {
		return fmt.Errorf("%w: streaming completion failed: %v", ErrProviderUnavailable, err)
	}
	sendCompletion(ws)

	if answerBuilder.Len() > 0 {
		// Background context so a closed connection does not lose the
		// generated answer.
		s.saveHistoryCtx(context.Background(), req.PatientID, req.Query, answerBuilder.String())
	}
	return nil
}

// GetHistory returns the stored conversation history for a patient.
func (s *chatService) GetHistory(ctx context.Context, patientID string) ([]model.ChatMessage, error) {
	return s.conversationRepo.GetHistory(ctx, patientID)
}

// retrieveContext classifies the query, derives the filter policy, embeds
// the query, and retrieves matching records. An embedding failure is
// fatal; a retrieval failure has already degraded to an empty result.
func (s *chatService) retrieveContext(ctx context.Context, req *model.ChatRequest) ([]model.PatientRecord, model.FilterPolicy, error) {
	isPatientSpecific := heuristics.ClassifyQuery(req.Query)
	policy := heuristics.DeriveFilterPolicy(isPatientSpecific, req.PatientID)
	log.Infof("[Chat] query classified: patient_specific=%t effective_patient_id=%q", isPatientSpecific, policy.EffectivePatientID)

	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, req.Query)
	if err != nil {
		return nil, policy, fmt.Errorf("%w: query embedding failed: %v", ErrProviderUnavailable, err)
	}

	records := s.retrieval.Search(ctx, queryVector, policy)
	return records, policy, nil
}

func (s *chatService) saveHistory(patientID, query, answer string) {
	s.saveHistoryCtx(context.Background(), patientID, query, answer)
}

func (s *chatService) saveHistoryCtx(ctx context.Context, patientID, query, answer string) {
	if patientID == "" {
		return
	}
	now := time.Now()
	err := s.conversationRepo.AppendMessages(ctx, patientID,
		model.ChatMessage{Role: "user", Content: query, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if err != nil {
		// History is best effort; the answer was already delivered.
		log.Errorf("[Chat] failed to save conversation history: %v", err)
	}
}

// wsWriterInterceptor forwards streamed chunks to the websocket while
// accumulating the full answer for history.
type wsWriterInterceptor struct {
	conn   *websocket.Conn
	answer *strings.Builder
}

func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	w.answer.Write(data)
	return w.conn.WriteMessage(messageType, data)
}

func sendCompletion(ws *websocket.Conn) {
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"done":true}`)); err != nil {
		log.Errorf("[Chat] failed to send completion marker: %v", err)
	}
}
