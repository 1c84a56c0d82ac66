package response_models

type JobResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Mode             string `json:"mode"`
	FileName         string `json:"file_name"`
	Language         string `json:"language,omitempty"`
	EstimatedMinutes int64  `json:"estimated_minutes"`
	ActualMinutes    int64  `json:"actual_minutes,omitempty"`
	CreditsUsed      int64  `json:"credits_used,omitempty"`
	WalletCharged    int64  `json:"wallet_charged_minor,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
	RetryCount       int    `json:"retry_count,omitempty"`
	CreatedAt        string `json:"created_at"`
	CompletedAt      string `json:"completed_at,omitempty"`
}

type SegmentResponse struct {
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type TranscriptResponse struct {
	JobID           string            `json:"job_id"`
	Language        string            `json:"language,omitempty"`
	DurationMinutes int64             `json:"duration_minutes"`
	Segments        []SegmentResponse `json:"segments"`
}
