// Package events publishes ingestion and access-audit events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"medichat-go/internal/config"
	"medichat-go/pkg/log"
)

// Event types carried on the topic.
const (
	TypeDocumentIngested = "document.ingested"
	TypeAccessDenied     = "access.denied"
)

// DocumentIngested announces a completed ingestion.
type DocumentIngested struct {
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	PatientID     string `json:"patient_id,omitempty"`
	ChunksCreated int    `json:"chunks_created"`
	RecordsStored int    `json:"records_stored"`
}

// AccessDenied records a retrieved record that was withheld from a caller
// by the privacy filter. The record content is never included.
type AccessDenied struct {
	RecordID           string `json:"record_id"`
	RecordPatientID    string `json:"record_patient_id,omitempty"`
	EffectivePatientID string `json:"effective_patient_id,omitempty"`
	ContentType        string `json:"content_type"`
}

type envelope struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher is the narrow event sink the services depend on. The no-op
// implementation is used when Kafka is disabled and in tests.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// KafkaPublisher writes events to a single Kafka topic. Publishing is
// fire-and-forget: a broker failure is logged, never surfaced to the
// request that produced the event.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a publisher for the configured brokers/topic.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish marshals and writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	b, err := json.Marshal(envelope{Type: eventType, Timestamp: time.Now().UTC(), Payload: payload})
	if err != nil {
		log.Errorf("marshal %s event failed: %v", eventType, err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
		log.Warnf("publish %s event failed: %v", eventType, err)
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, interface{}) {}
