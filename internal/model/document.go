package model

import "time"

// Upload processing states recorded on document_uploads rows.
const (
	UploadStatusProcessing = 0
	UploadStatusCompleted  = 1
	UploadStatusFailed     = 2
)

// DocumentUpload is the ORM model for the document_uploads table. One row
// per ingested file, tracking pipeline outcome.
type DocumentUpload struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ContentType   string    `gorm:"type:varchar(32);not null" json:"contentType"`
	PatientID     string    `gorm:"type:varchar(64);index" json:"patientId,omitempty"`
	SizeBytes     int64     `gorm:"not null" json:"sizeBytes"`
	TextLength    int       `json:"textLength"`
	ChunkCount    int       `json:"chunkCount"`
	RecordsStored int       `json:"recordsStored"`
	Status        int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName maps DocumentUpload to its table.
func (DocumentUpload) TableName() string {
	return "document_uploads"
}

// DocumentChunk is the ORM model for the document_chunks table. It keeps
// the chunk text alongside its vector record id so stored content can be
// audited and re-embedded without re-extracting the source file.
type DocumentChunk struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID    string `gorm:"type:varchar(64);not null;uniqueIndex" json:"recordId"`
	FileName    string `gorm:"type:varchar(255);not null;index" json:"fileName"`
	ChunkIndex  int    `gorm:"not null" json:"chunkIndex"`
	TextContent string `gorm:"type:text" json:"textContent"`
	ContentType string `gorm:"type:varchar(32);not null" json:"contentType"`
	PatientID   string `gorm:"type:varchar(64)" json:"patientId,omitempty"`
}

// TableName maps DocumentChunk to its table.
func (DocumentChunk) TableName() string {
	return "document_chunks"
}
