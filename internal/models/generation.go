package models

import (
	"time"
)

// JobState enumerates the lifecycle of a generation job. Transitions are
// monotonic: PENDING -> PROCESSING -> SUCCESS|FAILURE, never backwards.
type JobState string

const (
	JobPending    JobState = "PENDING"
	JobProcessing JobState = "PROCESSING"
	JobSuccess    JobState = "SUCCESS"
	JobFailure    JobState = "FAILURE"
)

// RecordStatus is the terminal outcome persisted on a GenerationRecord.
// "partial" means some requested document types succeeded and some failed.
type RecordStatus string

const (
	RecordPending RecordStatus = "pending"
	RecordSuccess RecordStatus = "success"
	RecordPartial RecordStatus = "partial"
	RecordFailure RecordStatus = "failure"
)

// GenerationRecord is the append-only audit row for one generation request.
// Links and Errors carry the per-document outcome as JSON arrays.
type GenerationRecord struct {
	ID           string       `gorm:"primaryKey" json:"id"`
	ClientID     *string      `gorm:"index" json:"client_id,omitempty"`
	ClientName   string       `json:"client_name"`
	TemplateName string       `json:"template_name"`
	Status       RecordStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Links        string       `gorm:"type:json" json:"links"`  // JSON array of generated document links
	Errors       string       `gorm:"type:json" json:"errors"` // JSON array of per-document errors
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// GenerationJob tracks the async task driving a GenerationRecord. The ID is
// the task id handed back to the enqueueing request and polled by clients.
type GenerationJob struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	RecordID     string    `gorm:"index" json:"record_id"`
	State        JobState  `gorm:"type:varchar(20);default:'PENDING'" json:"state"`
	Progress     int       `gorm:"default:0" json:"progress"`
	Attempts     int       `gorm:"default:0" json:"attempts"`
	Message      string    `json:"message"`
	ResultJSON   string    `gorm:"type:json" json:"result,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobResult is the payload serialized into GenerationJob.ResultJSON.
type JobResult struct {
	Links  []GeneratedLink `json:"links"`
	Errors []DocumentError `json:"errors"`
}

// GeneratedLink describes one successfully generated document.
type GeneratedLink struct {
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
	Link         string `json:"link"`
}

// DocumentError describes one failed document type inside a job.
type DocumentError struct {
	DocumentType string `json:"document_type"`
	Error        string `json:"error"`
}
