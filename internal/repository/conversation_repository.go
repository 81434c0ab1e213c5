package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"medichat-go/internal/model"
)

const conversationTTL = 7 * 24 * time.Hour

// ConversationRepository stores per-patient chat history in Redis.
type ConversationRepository interface {
	GetHistory(ctx context.Context, patientID string) ([]model.ChatMessage, error)
	AppendMessages(ctx context.Context, patientID string, messages ...model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient  *redis.Client
	historyLimit int
}

// NewConversationRepository creates a ConversationRepository keeping at
// most historyLimit messages per patient.
func NewConversationRepository(redisClient *redis.Client, historyLimit int) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient, historyLimit: historyLimit}
}

func conversationKey(patientID string) string {
	return fmt.Sprintf("conversation:%s", patientID)
}

// GetHistory returns the stored history for a patient, oldest first. A
// patient with no history gets an empty slice, not an error.
func (r *redisConversationRepository) GetHistory(ctx context.Context, patientID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(patientID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendMessages appends messages to a patient's history, trimming to the
// configured limit and refreshing the TTL.
func (r *redisConversationRepository) AppendMessages(ctx context.Context, patientID string, messages ...model.ChatMessage) error {
	history, err := r.GetHistory(ctx, patientID)
	if err != nil {
		return err
	}
	history = append(history, messages...)
	if r.historyLimit > 0 && len(history) > r.historyLimit {
		history = history[len(history)-r.historyLimit:]
	}
	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(patientID), jsonData, conversationTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
