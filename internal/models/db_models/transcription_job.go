package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusProcessing           JobStatus = "processing"
	JobStatusPendingTranscription JobStatus = "pending_transcription"
	JobStatusPendingReview        JobStatus = "pending_review"
	JobStatusComplete             JobStatus = "complete"
	JobStatusFailed               JobStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

type JobMode string

const (
	ModeAI     JobMode = "ai"
	ModeHybrid JobMode = "hybrid"
	ModeHuman  JobMode = "human"
)

type TranscriptionJob struct {
	BaseModel
	AccountID uuid.UUID `gorm:"index"`

	Status JobStatus `gorm:"type:job_status;index"`
	Mode   JobMode   `gorm:"type:job_mode"`

	FileName  string
	FileSize  int64
	Language  string `gorm:"size:8"`
	AudioPath string

	// EstimatedMinutes is the pre-transcription estimate used for the
	// reservation; ActualMinutes is filled from the vendor result.
	EstimatedMinutes int64
	ActualMinutes    int64

	// What settlement actually charged.
	MinutesFromSubscription int64
	CreditsUsed             int64
	WalletChargedMinor      int64

	VendorJobID   string `gorm:"index"`
	RetryCount    int
	FailureReason string

	// Transcript segments are stored inline for small results; larger
	// payloads go to the blob store and only the key is kept here.
	Transcript        datatypes.JSON `gorm:"type:jsonb"`
	TranscriptBlobKey string

	StartedAt   *int64
	CompletedAt *int64

	Account Account `gorm:"foreignKey:AccountID"`
}
