package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"scribly/internal/infra"
	"scribly/internal/models/db_models"
	"scribly/internal/models/request_models"
	"scribly/internal/models/response_models"
	"scribly/internal/repositories"
	"scribly/pkg/utils"
)

const (
	// Pre-transcription estimate when the client supplies no duration hint:
	// roughly one minute of compressed speech per MiB.
	bytesPerEstimatedMinute = 1 << 20

	// Transcripts above this many bytes of JSON go to the blob store
	// instead of the inline jsonb column.
	inlineTranscriptLimit = 256 * 1024

	maxSubmitRetries = 3
	pollInterval     = 5 * time.Second
	maxPollAttempts  = 360
)

type JobServiceInterface interface {
	CreateJob(ctx context.Context, accountID string, req request_models.CreateJobRequest) (*response_models.JobResponse, error)
	GetJob(ctx context.Context, accountID, jobID string) (*response_models.JobResponse, error)
	ListJobs(ctx context.Context, accountID string, req request_models.ListJobsRequest) ([]response_models.JobResponse, error)
	GetTranscript(ctx context.Context, accountID, jobID string) (*response_models.TranscriptResponse, error)
	RefreshStatus(ctx context.Context, accountID, jobID string) (*response_models.JobResponse, error)
	CompleteReview(ctx context.Context, jobID string, segments []Segment) error
}

type JobService struct {
	jobRepo     repositories.JobRepository
	accountRepo repositories.AccountRepository
	billing     BillingService
	transcriber Transcriber
	blobs       infra.BlobStore
	mail        IMailService
}

func NewJobService(
	jobRepo repositories.JobRepository,
	accountRepo repositories.AccountRepository,
	billing BillingService,
	transcriber Transcriber,
	blobs infra.BlobStore,
	mail IMailService,
) JobServiceInterface {
	return &JobService{
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		billing:     billing,
		transcriber: transcriber,
		blobs:       blobs,
		mail:        mail,
	}
}

// EstimateMinutes derives the reservation size before the file is parsed.
// A client duration hint wins; otherwise the file size heuristic applies.
func EstimateMinutes(fileSize, durationHintSeconds int64) int64 {
	if durationHintSeconds > 0 {
		return CeilMinutes(float64(durationHintSeconds))
	}
	est := (fileSize + bytesPerEstimatedMinute - 1) / bytesPerEstimatedMinute
	if est < 1 {
		est = 1
	}
	return est
}

func (j *JobService) CreateJob(ctx context.Context, accountID string, req request_models.CreateJobRequest) (*response_models.JobResponse, error) {
	account, err := j.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	estimate := EstimateMinutes(req.FileSize, req.DurationHint)
	mode := db_models.JobMode(req.Mode)

	// The reservation is taken before the job row exists: if it fails the
	// job was never started and nothing needs rolling back.
	if _, err := j.billing.Reserve(ctx, account.ID, estimate, mode); err != nil {
		return nil, err
	}

	now := utils.NowUnixSeconds()
	job := &db_models.TranscriptionJob{
		AccountID:        account.ID,
		Status:           db_models.JobStatusProcessing,
		Mode:             mode,
		FileName:         req.FileName,
		FileSize:         req.FileSize,
		Language:         req.Language,
		AudioPath:        req.AudioPath,
		EstimatedMinutes: estimate,
		StartedAt:        &now,
	}
	if err := j.jobRepo.Insert(ctx, job); err != nil {
		// The hold must not outlive a job that never existed.
		if relErr := j.billing.Release(context.Background(), account.ID, estimate); relErr != nil {
			log.Printf("release after failed insert: %v", relErr)
		}
		return nil, utils.ErrDatabaseError
	}

	go j.process(job, account.Email)

	return jobToResponse(job), nil
}

// process drives one job through the vendor. Each transition is persisted
// before the next step so a crash leaves a visible, resumable state.
func (j *JobService) process(job *db_models.TranscriptionJob, email string) {
	ctx := context.Background()

	vendorID, err := j.submitWithRetry(ctx, job)
	if err != nil {
		j.fail(ctx, job, fmt.Sprintf("vendor submit: %v", err))
		return
	}

	if err := j.jobRepo.UpdateStatus(ctx, job.ID.String(), db_models.JobStatusPendingTranscription,
		map[string]interface{}{"vendor_job_id": vendorID}); err != nil {
		log.Printf("job %s: persist vendor id: %v", job.ID, err)
	}
	job.VendorJobID = vendorID

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		time.Sleep(pollInterval)

		status, pollErr := j.transcriber.Poll(ctx, vendorID)
		switch status {
		case VendorStatusDone:
			result, fetchErr := j.transcriber.Fetch(ctx, vendorID)
			if fetchErr != nil {
				j.fail(ctx, job, fmt.Sprintf("vendor fetch: %v", fetchErr))
				return
			}
			if err := j.complete(ctx, job, result, email); err != nil {
				log.Printf("job %s: completion: %v", job.ID, err)
			}
			return
		case VendorStatusRejected:
			j.fail(ctx, job, fmt.Sprintf("vendor rejected: %v", pollErr))
			return
		}
	}

	j.fail(ctx, job, "vendor poll budget exhausted")
}

func (j *JobService) submitWithRetry(ctx context.Context, job *db_models.TranscriptionJob) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxSubmitRetries; attempt++ {
		vendorID, err := j.transcriber.Submit(ctx, SubmitRequest{
			AudioPath: job.AudioPath,
			Language:  job.Language,
		})
		if err == nil {
			return vendorID, nil
		}
		lastErr = err
		if upErr := j.jobRepo.UpdateStatus(ctx, job.ID.String(), db_models.JobStatusProcessing,
			map[string]interface{}{"retry_count": attempt + 1}); upErr != nil {
			log.Printf("job %s: persist retry count: %v", job.ID, upErr)
		}
	}
	return "", lastErr
}

// complete settles billing with the actual duration, stores the transcript
// and moves the job to its terminal (or review) state.
func (j *JobService) complete(ctx context.Context, job *db_models.TranscriptionJob, result *TranscriptResult, email string) error {
	actual := result.DurationMinutes()

	if _, err := j.billing.Settle(ctx, job, actual); err != nil {
		if errors.Is(err, utils.ErrAlreadySettled) {
			// A concurrent completion already charged and finished this
			// job; the replay must not fail it or touch the reservation.
			return nil
		}
		// Settlement failure must not leak the hold.
		j.fail(ctx, job, fmt.Sprintf("settlement: %v", err))
		return err
	}

	fields := map[string]interface{}{
		"actual_minutes": actual,
		"completed_at":   utils.NowUnixSeconds(),
	}
	if result.Language != "" {
		fields["language"] = result.Language
	}

	payload, err := json.Marshal(result.Segments)
	if err != nil {
		return err
	}
	if len(payload) > inlineTranscriptLimit {
		key := fmt.Sprintf("transcript-%s.json", job.ID)
		if err := j.blobs.Put(key, payload); err != nil {
			return err
		}
		fields["transcript_blob_key"] = key
	} else {
		fields["transcript"] = datatypes.JSON(payload)
	}

	status := db_models.JobStatusComplete
	if job.Mode != db_models.ModeAI {
		// Hybrid/human tiers get a human pass before delivery.
		status = db_models.JobStatusPendingReview
		delete(fields, "completed_at")
	}
	if err := j.jobRepo.UpdateStatus(ctx, job.ID.String(), status, fields); err != nil {
		return err
	}

	if status == db_models.JobStatusComplete && email != "" {
		if err := j.mail.SendTranscriptReady(email, job.FileName); err != nil {
			log.Printf("job %s: notify mail: %v", job.ID, err)
		}
	}
	return nil
}

// fail rolls the reservation back in full and records the reason. No usage
// record is written: a failed job costs nothing.
func (j *JobService) fail(ctx context.Context, job *db_models.TranscriptionJob, reason string) {
	// A job that already reached a terminal state keeps it. Its hold was
	// either consumed at settlement or released by the earlier failure, so
	// releasing again would free minutes reserved by other jobs.
	if fresh, err := j.jobRepo.FindById(ctx, job.ID.String()); err == nil && fresh != nil && fresh.Status.Terminal() {
		return
	}
	if err := j.billing.Release(ctx, job.AccountID, job.EstimatedMinutes); err != nil {
		log.Printf("job %s: release reservation: %v", job.ID, err)
	}
	if err := j.jobRepo.UpdateStatus(ctx, job.ID.String(), db_models.JobStatusFailed,
		map[string]interface{}{
			"failure_reason": reason,
			"completed_at":   utils.NowUnixSeconds(),
		}); err != nil {
		log.Printf("job %s: persist failure: %v", job.ID, err)
	}
}

func (j *JobService) GetJob(ctx context.Context, accountID, jobID string) (*response_models.JobResponse, error) {
	job, err := j.ownedJob(ctx, accountID, jobID)
	if err != nil {
		return nil, err
	}
	return jobToResponse(job), nil
}

func (j *JobService) ListJobs(ctx context.Context, accountID string, req request_models.ListJobsRequest) ([]response_models.JobResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	jobs, err := j.jobRepo.ListByAccount(ctx, accountID, db_models.JobStatus(req.Status), page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]response_models.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, *jobToResponse(&jobs[i]))
	}
	return out, nil
}

func (j *JobService) GetTranscript(ctx context.Context, accountID, jobID string) (*response_models.TranscriptResponse, error) {
	job, err := j.ownedJob(ctx, accountID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != db_models.JobStatusComplete {
		return nil, utils.ErrTranscriptMissing
	}

	var raw []byte
	switch {
	case job.TranscriptBlobKey != "":
		raw, err = j.blobs.Get(job.TranscriptBlobKey)
		if err != nil {
			return nil, utils.ErrTranscriptMissing
		}
	case len(job.Transcript) > 0:
		raw = job.Transcript
	default:
		return nil, utils.ErrTranscriptMissing
	}

	var segments []Segment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, utils.ErrTranscriptMissing
	}

	resp := &response_models.TranscriptResponse{
		JobID:           job.ID.String(),
		Language:        job.Language,
		DurationMinutes: job.ActualMinutes,
		Segments:        make([]response_models.SegmentResponse, 0, len(segments)),
	}
	for _, s := range segments {
		resp.Segments = append(resp.Segments, response_models.SegmentResponse{
			StartMs:    s.StartMs,
			EndMs:      s.EndMs,
			Text:       s.Text,
			Speaker:    s.Speaker,
			Confidence: s.Confidence,
		})
	}
	return resp, nil
}

// RefreshStatus is the manual "force retrieve" for a job stuck waiting on
// the vendor: it re-polls once, synchronously, and completes or fails the
// job if the vendor has an answer.
func (j *JobService) RefreshStatus(ctx context.Context, accountID, jobID string) (*response_models.JobResponse, error) {
	job, err := j.ownedJob(ctx, accountID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return jobToResponse(job), nil
	}
	if job.VendorJobID == "" {
		return nil, utils.ErrJobNotRefreshable
	}

	account, err := j.accountRepo.FindById(ctx, job.AccountID.String())
	if err != nil || account == nil {
		return nil, utils.ErrDatabaseError
	}

	status, pollErr := j.transcriber.Poll(ctx, job.VendorJobID)
	switch status {
	case VendorStatusDone:
		result, fetchErr := j.transcriber.Fetch(ctx, job.VendorJobID)
		if fetchErr != nil {
			return nil, utils.ErrVendorError
		}
		if err := j.complete(ctx, job, result, account.Email); err != nil {
			return nil, err
		}
	case VendorStatusRejected:
		j.fail(ctx, job, fmt.Sprintf("vendor rejected: %v", pollErr))
	}

	fresh, err := j.jobRepo.FindById(ctx, jobID)
	if err != nil || fresh == nil {
		return nil, utils.ErrDatabaseError
	}
	return jobToResponse(fresh), nil
}

// CompleteReview finishes a hybrid/human job with the reviewed segments.
// Billing settled at the AI pass; review replaces content only.
func (j *JobService) CompleteReview(ctx context.Context, jobID string, segments []Segment) error {
	job, err := j.jobRepo.FindById(ctx, jobID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if job == nil {
		return utils.ErrJobNotFound
	}
	if job.Status != db_models.JobStatusPendingReview {
		return utils.ErrJobNotReviewable
	}

	payload, err := json.Marshal(segments)
	if err != nil {
		return utils.ErrInvalidInput
	}

	fields := map[string]interface{}{
		"completed_at": utils.NowUnixSeconds(),
	}
	if len(payload) > inlineTranscriptLimit {
		key := fmt.Sprintf("transcript-%s.json", job.ID)
		if err := j.blobs.Put(key, payload); err != nil {
			return err
		}
		fields["transcript_blob_key"] = key
		fields["transcript"] = nil
	} else {
		fields["transcript"] = datatypes.JSON(payload)
	}

	if err := j.jobRepo.UpdateStatus(ctx, jobID, db_models.JobStatusComplete, fields); err != nil {
		return utils.ErrDatabaseError
	}

	if account, err := j.accountRepo.FindById(ctx, job.AccountID.String()); err == nil && account != nil {
		if err := j.mail.SendTranscriptReady(account.Email, job.FileName); err != nil {
			log.Printf("job %s: notify mail: %v", job.ID, err)
		}
	}
	return nil
}

func (j *JobService) ownedJob(ctx context.Context, accountID, jobID string) (*db_models.TranscriptionJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, utils.ErrInvalidInput
	}
	job, err := j.jobRepo.FindById(ctx, jobID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if job == nil {
		return nil, utils.ErrJobNotFound
	}
	if job.AccountID.String() != accountID {
		return nil, utils.ErrNotJobOwner
	}
	return job, nil
}

func jobToResponse(job *db_models.TranscriptionJob) *response_models.JobResponse {
	return &response_models.JobResponse{
		ID:               job.ID.String(),
		Status:           string(job.Status),
		Mode:             string(job.Mode),
		FileName:         job.FileName,
		Language:         job.Language,
		EstimatedMinutes: job.EstimatedMinutes,
		ActualMinutes:    job.ActualMinutes,
		CreditsUsed:      job.CreditsUsed,
		WalletCharged:    job.WalletChargedMinor,
		FailureReason:    job.FailureReason,
		RetryCount:       job.RetryCount,
		CreatedAt:        utils.FormatRFC3339(job.CreatedAt),
		CompletedAt:      utils.FormatRFC3339Ptr(job.CompletedAt),
	}
}
