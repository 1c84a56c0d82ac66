package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

type VendorStatus string

const (
	VendorStatusRunning  VendorStatus = "running"
	VendorStatusDone     VendorStatus = "done"
	VendorStatusRejected VendorStatus = "rejected"
)

// Segment is one normalized transcript span, vendor-independent.
type Segment struct {
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type TranscriptResult struct {
	Language        string
	DurationSeconds float64
	Segments        []Segment
}

// DurationMinutes rounds the audio length up to whole billable minutes.
// Anything non-zero bills at least one minute.
func (r *TranscriptResult) DurationMinutes() int64 {
	return CeilMinutes(r.DurationSeconds)
}

func CeilMinutes(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	m := int64(seconds) / 60
	if int64(seconds)%60 != 0 || seconds > float64(int64(seconds)) {
		m++
	}
	if m == 0 {
		m = 1
	}
	return m
}

type SubmitRequest struct {
	AudioPath string
	Language  string
	Prompt    string
}

// Transcriber is the contract with the speech vendor: submit a file, poll
// until done or rejected, then fetch the normalized segment list.
type Transcriber interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	Poll(ctx context.Context, vendorJobID string) (VendorStatus, error)
	Fetch(ctx context.Context, vendorJobID string) (*TranscriptResult, error)
}

type vendorJob struct {
	mu     sync.Mutex
	status VendorStatus
	result *TranscriptResult
	err    error
}

// openAITranscriber runs the synchronous whisper call in a tracked goroutine
// so callers get the submit/poll/fetch shape the orchestrator expects.
type openAITranscriber struct {
	client *openai.Client
	jobs   sync.Map // vendor job id -> *vendorJob
}

func NewOpenAITranscriber(apiKey string) Transcriber {
	return &openAITranscriber{client: openai.NewClient(apiKey)}
}

func (t *openAITranscriber) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", fmt.Errorf("audio path is required")
	}

	id := "whisper:" + uuid.New().String()
	job := &vendorJob{status: VendorStatusRunning}
	t.jobs.Store(id, job)

	go func() {
		resp, err := t.client.CreateTranscription(context.Background(), openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: req.AudioPath,
			Language: req.Language,
			Prompt:   req.Prompt,
			Format:   openai.AudioResponseFormatVerboseJSON,
		})

		job.mu.Lock()
		defer job.mu.Unlock()
		if err != nil {
			job.status = VendorStatusRejected
			job.err = err
			return
		}
		job.status = VendorStatusDone
		job.result = normalizeAudioResponse(resp)
	}()

	return id, nil
}

func (t *openAITranscriber) Poll(ctx context.Context, vendorJobID string) (VendorStatus, error) {
	v, ok := t.jobs.Load(vendorJobID)
	if !ok {
		return "", fmt.Errorf("unknown vendor job %s", vendorJobID)
	}
	job := v.(*vendorJob)
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.status == VendorStatusRejected {
		return job.status, job.err
	}
	return job.status, nil
}

func (t *openAITranscriber) Fetch(ctx context.Context, vendorJobID string) (*TranscriptResult, error) {
	v, ok := t.jobs.Load(vendorJobID)
	if !ok {
		return nil, fmt.Errorf("unknown vendor job %s", vendorJobID)
	}
	job := v.(*vendorJob)
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.status != VendorStatusDone || job.result == nil {
		return nil, fmt.Errorf("vendor job %s not done", vendorJobID)
	}
	// Completed results are read once by the orchestrator; drop them so the
	// map doesn't grow for the life of the process.
	t.jobs.Delete(vendorJobID)
	return job.result, nil
}

func normalizeAudioResponse(resp openai.AudioResponse) *TranscriptResult {
	result := &TranscriptResult{
		Language:        resp.Language,
		DurationSeconds: resp.Duration,
	}
	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			StartMs:    int64(s.Start * 1000),
			EndMs:      int64(s.End * 1000),
			Text:       strings.TrimSpace(s.Text),
			Confidence: 1 - s.NoSpeechProb,
		})
	}
	if len(result.Segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		result.Segments = append(result.Segments, Segment{
			EndMs: int64(resp.Duration * 1000),
			Text:  strings.TrimSpace(resp.Text),
		})
	}
	return result
}
