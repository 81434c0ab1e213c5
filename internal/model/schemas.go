// Package model defines the domain types and API request/response shapes.
package model

import "time"

// Document content types carried in vector record metadata. Every stored
// record has exactly one of these; anything unrecognized is treated as
// patient-private when responses are shaped.
const (
	ContentTypeHospitalPublic = "hospital_public"
	ContentTypePatientPrivate = "patient_private"
	ContentTypeUnknown        = "unknown"
)

// Access levels tagged onto records echoed back to the caller.
const (
	AccessLevelPublic  = "public"
	AccessLevelPrivate = "private"
)

// TextChunk is one bounded segment of an extracted document, produced by
// the chunker and discarded once its embedding is stored.
type TextChunk struct {
	ChunkID    string
	Content    string
	ChunkIndex int
	SourceFile string
}

// PatientInfo is the best-effort identification pulled out of document
// text. Either field may be empty.
type PatientInfo struct {
	PatientID   string
	PatientName string
}

// AuthorizationResult reports whether document text carries valid
// institutional authorization markers.
type AuthorizationResult struct {
	Authorized      bool     `json:"authorized"`
	Reason          string   `json:"reason"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// FilterPolicy is the effective access filter derived from a query
// classification and the caller-supplied patient id.
type FilterPolicy struct {
	IsPatientSpecific  bool
	EffectivePatientID string
	IncludePublic      bool
}

// PatientRecord is a stored document record returned by a similarity
// search, alive only for the duration of one chat request.
type PatientRecord struct {
	RecordID    string
	PatientID   string
	PatientName string
	Content     string
	ContentType string
	SourceFile  string
	ChunkIndex  int
	Score       float64
}

// ChatRequest is the chat entry point payload.
type ChatRequest struct {
	Query       string `json:"query" binding:"required"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
}

// ContextRecordMeta is the metadata echoed with a display record.
type ContextRecordMeta struct {
	PatientID string `json:"patient_id,omitempty"`
	Source    string `json:"source"`
}

// ContextRecord is one access-filtered record disclosed to the caller.
// Content is truncated to the display limit, not the prompt limit.
type ContextRecord struct {
	RecordID    string            `json:"record_id"`
	Content     string            `json:"content"`
	Score       float64           `json:"score"`
	AccessLevel string            `json:"access_level"`
	Metadata    ContextRecordMeta `json:"metadata"`
}

// ChatResponse is the chat entry point result.
type ChatResponse struct {
	Response       string          `json:"response"`
	PatientContext []ContextRecord `json:"patient_context,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// UploadResponse is the PDF upload result summary.
type UploadResponse struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	Filename            string    `json:"filename,omitempty"`
	ExtractedTextLength int       `json:"extracted_text_length,omitempty"`
	ChunksCreated       int       `json:"chunks_created,omitempty"`
	RecordsStored       int       `json:"records_stored,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error body returned by handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}
