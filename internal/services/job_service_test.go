package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"scribly/internal/models/db_models"
	"scribly/internal/models/request_models"
	"scribly/pkg/utils"
)

type statusUpdate struct {
	id     string
	status db_models.JobStatus
	fields map[string]interface{}
}

type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      map[string]*db_models.TranscriptionJob
	insertErr error
	updates   []statusUpdate
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*db_models.TranscriptionJob)}
}

func (f *fakeJobRepo) Insert(ctx context.Context, job *db_models.TranscriptionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	f.jobs[job.ID.String()] = job
	return nil
}

func (f *fakeJobRepo) FindById(ctx context.Context, id string) (*db_models.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) ListByAccount(ctx context.Context, accountID string, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) ListByStatus(ctx context.Context, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) ListStuck(ctx context.Context, olderThanUnix int64) ([]db_models.TranscriptionJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, id string, status db_models.JobStatus, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirrors the real repository: terminal rows never transition again.
	if job, ok := f.jobs[id]; ok && job.Status.Terminal() {
		return nil
	}
	f.updates = append(f.updates, statusUpdate{id: id, status: status, fields: fields})
	if job, ok := f.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (f *fakeJobRepo) lastUpdate() (statusUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return statusUpdate{}, false
	}
	return f.updates[len(f.updates)-1], true
}

func (f *fakeJobRepo) updatesTo(status db_models.JobStatus) []statusUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []statusUpdate
	for _, u := range f.updates {
		if u.status == status {
			out = append(out, u)
		}
	}
	return out
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*db_models.Account
}

func newFakeAccountRepo(accounts ...*db_models.Account) *fakeAccountRepo {
	f := &fakeAccountRepo{accounts: make(map[string]*db_models.Account)}
	for _, a := range accounts {
		f.accounts[a.ID.String()] = a
	}
	return f
}

func (f *fakeAccountRepo) Insert(ctx context.Context, account *db_models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID.String()] = account
	return nil
}

func (f *fakeAccountRepo) FindById(ctx context.Context, id string) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id], nil
}

func (f *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	return nil
}

func (f *fakeAccountRepo) ListAll(ctx context.Context, page, pageSize int) ([]db_models.Account, error) {
	return nil, nil
}

type releaseCall struct {
	accountID uuid.UUID
	minutes   int64
}

type fakeBilling struct {
	mu         sync.Mutex
	reserveErr error
	settleErr  error

	reserved    []releaseCall
	settled     []int64 // actual minutes per Settle call
	released    []releaseCall
	settledJobs map[uuid.UUID]bool
}

func (f *fakeBilling) Reserve(ctx context.Context, accountID uuid.UUID, estimateMinutes int64, mode db_models.JobMode) (*ConsumptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	f.reserved = append(f.reserved, releaseCall{accountID: accountID, minutes: estimateMinutes})
	return &ConsumptionPlan{RequestedMinutes: estimateMinutes, FromSubscription: estimateMinutes}, nil
}

func (f *fakeBilling) Settle(ctx context.Context, job *db_models.TranscriptionJob, actualMinutes int64) (*db_models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	// One usage record per job, like the unique index enforces.
	if f.settledJobs == nil {
		f.settledJobs = make(map[uuid.UUID]bool)
	}
	if f.settledJobs[job.ID] {
		return nil, utils.ErrAlreadySettled
	}
	f.settledJobs[job.ID] = true
	f.settled = append(f.settled, actualMinutes)
	return &db_models.UsageRecord{JobID: job.ID, MinutesUsed: actualMinutes}, nil
}

func (f *fakeBilling) Release(ctx context.Context, accountID uuid.UUID, estimateMinutes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, releaseCall{accountID: accountID, minutes: estimateMinutes})
	return nil
}

func (f *fakeBilling) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

type fakeTranscriber struct {
	submitErr error
	status    VendorStatus
	result    *TranscriptResult
}

func (f *fakeTranscriber) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "vendor-1", nil
}

func (f *fakeTranscriber) Poll(ctx context.Context, vendorJobID string) (VendorStatus, error) {
	return f.status, nil
}

func (f *fakeTranscriber) Fetch(ctx context.Context, vendorJobID string) (*TranscriptResult, error) {
	if f.result == nil {
		return nil, errors.New("no result")
	}
	return f.result, nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

type fakeMail struct {
	mu            sync.Mutex
	transcriptsTo []string
	receiptsTo    []string
	resetTokensTo []string
}

func (f *fakeMail) SendTranscriptReady(to, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptsTo = append(f.transcriptsTo, to)
	return nil
}

func (f *fakeMail) SendMailToResetPassword(to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetTokensTo = append(f.resetTokensTo, to)
	return nil
}

func (f *fakeMail) SendPaymentReceipt(to string, amountMinor int64, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptsTo = append(f.receiptsTo, to)
	return nil
}

type jobServiceFixture struct {
	svc      *JobService
	jobs     *fakeJobRepo
	accounts *fakeAccountRepo
	billing  *fakeBilling
	vendor   *fakeTranscriber
	blobs    *fakeBlobStore
	mail     *fakeMail
	account  *db_models.Account
}

func newJobServiceFixture() *jobServiceFixture {
	account := &db_models.Account{
		BaseModel: db_models.BaseModel{ID: uuid.New()},
		Email:     "owner@example.com",
	}
	f := &jobServiceFixture{
		jobs:     newFakeJobRepo(),
		accounts: newFakeAccountRepo(account),
		billing:  &fakeBilling{},
		vendor:   &fakeTranscriber{status: VendorStatusRunning},
		blobs:    newFakeBlobStore(),
		mail:     &fakeMail{},
		account:  account,
	}
	f.svc = NewJobService(f.jobs, f.accounts, f.billing, f.vendor, f.blobs, f.mail).(*JobService)
	return f
}

func (f *jobServiceFixture) seedJob(status db_models.JobStatus, mode db_models.JobMode) *db_models.TranscriptionJob {
	job := &db_models.TranscriptionJob{
		BaseModel:        db_models.BaseModel{ID: uuid.New()},
		AccountID:        f.account.ID,
		Status:           status,
		Mode:             mode,
		FileName:         "meeting.mp3",
		EstimatedMinutes: 10,
	}
	f.jobs.jobs[job.ID.String()] = job
	return job
}

func TestEstimateMinutes(t *testing.T) {
	cases := []struct {
		name     string
		fileSize int64
		hint     int64
		want     int64
	}{
		{"hint wins over size", 500 << 20, 90, 2},
		{"hint rounds up", 0, 61, 2},
		{"exact minute hint", 0, 120, 2},
		{"size heuristic", 10 << 20, 0, 10},
		{"size rounds up", (10 << 20) + 1, 0, 11},
		{"tiny file still one minute", 100, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EstimateMinutes(tc.fileSize, tc.hint))
		})
	}
}

func TestCreateJob_InsufficientFunds(t *testing.T) {
	f := newJobServiceFixture()
	f.billing.reserveErr = &utils.InsufficientFundsError{ShortfallMinutes: 5, ShortfallMinor: 50, Currency: "USD"}

	_, err := f.svc.CreateJob(context.Background(), f.account.ID.String(), request_models.CreateJobRequest{
		FileName:  "meeting.mp3",
		FileSize:  5 << 20,
		AudioPath: "/uploads/meeting.mp3",
		Mode:      "ai",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInsufficientFunds))
	assert.Empty(t, f.jobs.jobs, "no job row may exist when the reservation failed")
	assert.Zero(t, f.billing.releaseCount())
}

func TestCreateJob_InsertFailureReleasesHold(t *testing.T) {
	f := newJobServiceFixture()
	f.jobs.insertErr = errors.New("connection reset")

	_, err := f.svc.CreateJob(context.Background(), f.account.ID.String(), request_models.CreateJobRequest{
		FileName:     "meeting.mp3",
		FileSize:     1 << 20,
		AudioPath:    "/uploads/meeting.mp3",
		Mode:         "ai",
		DurationHint: 600,
	})

	require.ErrorIs(t, err, utils.ErrDatabaseError)
	require.Equal(t, 1, f.billing.releaseCount())
	assert.Equal(t, releaseCall{accountID: f.account.ID, minutes: 10}, f.billing.released[0])
}

func TestCreateJob_VendorRejectionReleasesHold(t *testing.T) {
	f := newJobServiceFixture()
	f.vendor.submitErr = errors.New("file format not supported")

	resp, err := f.svc.CreateJob(context.Background(), f.account.ID.String(), request_models.CreateJobRequest{
		FileName:     "meeting.mp3",
		FileSize:     1 << 20,
		AudioPath:    "/uploads/meeting.mp3",
		Mode:         "ai",
		DurationHint: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, string(db_models.JobStatusProcessing), resp.Status)

	// The background worker retries the submit, then fails the job and
	// rolls the reservation back.
	require.Eventually(t, func() bool {
		return len(f.jobs.updatesTo(db_models.JobStatusFailed)) == 1
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, f.billing.releaseCount())
	failed := f.jobs.updatesTo(db_models.JobStatusFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].fields["failure_reason"], "file format not supported")
	assert.Equal(t, releaseCall{accountID: f.account.ID, minutes: 5}, f.billing.released[0])

	retries := f.jobs.updatesTo(db_models.JobStatusProcessing)
	require.Len(t, retries, maxSubmitRetries)
	assert.Equal(t, maxSubmitRetries, retries[len(retries)-1].fields["retry_count"])
}

func TestComplete_SettlesAndStoresInline(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeAI)

	result := &TranscriptResult{
		Language:        "en",
		DurationSeconds: 8*60 + 30,
		Segments: []Segment{
			{StartMs: 0, EndMs: 4000, Text: "hello there"},
			{StartMs: 4000, EndMs: 9000, Text: "general remarks"},
		},
	}

	err := f.svc.complete(context.Background(), job, result, f.account.Email)
	require.NoError(t, err)

	require.Equal(t, []int64{9}, f.billing.settled, "8m30s bills as 9 minutes")

	last, ok := f.jobs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, db_models.JobStatusComplete, last.status)
	assert.Equal(t, int64(9), last.fields["actual_minutes"])
	assert.Equal(t, "en", last.fields["language"])
	assert.NotNil(t, last.fields["completed_at"])
	assert.NotContains(t, last.fields, "transcript_blob_key")

	var stored []Segment
	require.NoError(t, json.Unmarshal(last.fields["transcript"].(datatypes.JSON), &stored))
	assert.Len(t, stored, 2)

	assert.Equal(t, []string{f.account.Email}, f.mail.transcriptsTo)
}

func TestComplete_HybridWaitsForReview(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeHybrid)

	err := f.svc.complete(context.Background(), job, &TranscriptResult{
		DurationSeconds: 60,
		Segments:        []Segment{{EndMs: 60000, Text: "draft"}},
	}, f.account.Email)
	require.NoError(t, err)

	// Billing settles at the automatic pass even though delivery waits.
	assert.Equal(t, []int64{1}, f.billing.settled)

	last, _ := f.jobs.lastUpdate()
	assert.Equal(t, db_models.JobStatusPendingReview, last.status)
	assert.NotContains(t, last.fields, "completed_at")
	assert.Empty(t, f.mail.transcriptsTo, "no delivery mail before review")
}

func TestComplete_LargeTranscriptGoesToBlobStore(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeAI)

	big := strings.Repeat("a", 4096)
	segments := make([]Segment, 0, 100)
	for i := 0; i < 100; i++ {
		segments = append(segments, Segment{StartMs: int64(i) * 1000, EndMs: int64(i+1) * 1000, Text: big})
	}

	err := f.svc.complete(context.Background(), job, &TranscriptResult{
		DurationSeconds: 600,
		Segments:        segments,
	}, f.account.Email)
	require.NoError(t, err)

	last, _ := f.jobs.lastUpdate()
	key, ok := last.fields["transcript_blob_key"].(string)
	require.True(t, ok, "oversized transcript must go to the blob store")
	assert.Equal(t, fmt.Sprintf("transcript-%s.json", job.ID), key)
	assert.NotContains(t, last.fields, "transcript")

	data, err := f.blobs.Get(key)
	require.NoError(t, err)
	assert.Greater(t, len(data), inlineTranscriptLimit)
}

func TestComplete_SettlementFailureFailsJob(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeAI)
	f.billing.settleErr = errors.New("deadlock detected")

	err := f.svc.complete(context.Background(), job, &TranscriptResult{
		DurationSeconds: 60,
		Segments:        []Segment{{Text: "x"}},
	}, f.account.Email)
	require.Error(t, err)

	assert.Equal(t, 1, f.billing.releaseCount())
	last, _ := f.jobs.lastUpdate()
	assert.Equal(t, db_models.JobStatusFailed, last.status)
}

func TestComplete_ReplayedCompletionKeepsJobComplete(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeAI)
	result := &TranscriptResult{
		DurationSeconds: 5 * 60,
		Segments:        []Segment{{EndMs: 300000, Text: "minutes of the meeting"}},
	}

	require.NoError(t, f.svc.complete(context.Background(), job, result, f.account.Email))
	require.Equal(t, db_models.JobStatusComplete, f.jobs.jobs[job.ID.String()].Status)

	// A manual refresh racing the poller replays the completion. The
	// duplicate settlement must not flip the job to failed and must not
	// release a hold that was already consumed.
	require.NoError(t, f.svc.complete(context.Background(), job, result, f.account.Email))

	assert.Equal(t, db_models.JobStatusComplete, f.jobs.jobs[job.ID.String()].Status)
	assert.Empty(t, f.jobs.updatesTo(db_models.JobStatusFailed))
	assert.Equal(t, []int64{5}, f.billing.settled, "exactly one settlement")
	assert.Zero(t, f.billing.releaseCount(), "a charged job must not free anyone's reservation")
	assert.Equal(t, []string{f.account.Email}, f.mail.transcriptsTo, "one delivery mail")
}

func TestFail_LateFailureKeepsCompletedJob(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusComplete, db_models.ModeAI)

	f.svc.fail(context.Background(), job, "vendor rejected: stale poll")

	assert.Zero(t, f.billing.releaseCount())
	assert.Empty(t, f.jobs.updatesTo(db_models.JobStatusFailed))
	assert.Equal(t, db_models.JobStatusComplete, f.jobs.jobs[job.ID.String()].Status)
}

func TestFail_ReleasesReservationAndRecordsReason(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusProcessing, db_models.ModeAI)

	f.svc.fail(context.Background(), job, "vendor poll budget exhausted")

	require.Equal(t, 1, f.billing.releaseCount())
	assert.Equal(t, releaseCall{accountID: f.account.ID, minutes: 10}, f.billing.released[0])
	assert.Empty(t, f.billing.settled, "a failed job must not settle")

	last, _ := f.jobs.lastUpdate()
	assert.Equal(t, db_models.JobStatusFailed, last.status)
	assert.Equal(t, "vendor poll budget exhausted", last.fields["failure_reason"])
}

func TestGetTranscript_ReadsBlobStore(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusComplete, db_models.ModeAI)
	job.ActualMinutes = 3
	job.TranscriptBlobKey = "transcript-" + job.ID.String() + ".json"

	payload, _ := json.Marshal([]Segment{{StartMs: 0, EndMs: 1500, Text: "stored remotely"}})
	require.NoError(t, f.blobs.Put(job.TranscriptBlobKey, payload))

	resp, err := f.svc.GetTranscript(context.Background(), f.account.ID.String(), job.ID.String())
	require.NoError(t, err)
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, "stored remotely", resp.Segments[0].Text)
	assert.Equal(t, int64(3), resp.DurationMinutes)
}

func TestGetTranscript_NotCompleteYet(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingReview, db_models.ModeHybrid)

	_, err := f.svc.GetTranscript(context.Background(), f.account.ID.String(), job.ID.String())
	assert.ErrorIs(t, err, utils.ErrTranscriptMissing)
}

func TestGetJob_OwnershipEnforced(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusComplete, db_models.ModeAI)

	_, err := f.svc.GetJob(context.Background(), uuid.New().String(), job.ID.String())
	assert.ErrorIs(t, err, utils.ErrNotJobOwner)

	_, err = f.svc.GetJob(context.Background(), f.account.ID.String(), "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.svc.GetJob(context.Background(), f.account.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, utils.ErrJobNotFound)
}

func TestCompleteReview(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingReview, db_models.ModeHuman)

	err := f.svc.CompleteReview(context.Background(), job.ID.String(), []Segment{
		{StartMs: 0, EndMs: 2000, Text: "reviewed text", Speaker: "S1"},
	})
	require.NoError(t, err)

	last, _ := f.jobs.lastUpdate()
	assert.Equal(t, db_models.JobStatusComplete, last.status)
	assert.NotNil(t, last.fields["completed_at"])
	assert.Empty(t, f.billing.settled, "review must not settle a second time")
	assert.Equal(t, []string{f.account.Email}, f.mail.transcriptsTo)
}

func TestCompleteReview_WrongState(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusComplete, db_models.ModeHuman)

	err := f.svc.CompleteReview(context.Background(), job.ID.String(), nil)
	assert.ErrorIs(t, err, utils.ErrJobNotReviewable)
}

func TestRefreshStatus_RequiresVendorID(t *testing.T) {
	f := newJobServiceFixture()
	f.seedJob(db_models.JobStatusProcessing, db_models.ModeAI)

	job := f.jobs.jobs[firstKey(f.jobs.jobs)]
	_, err := f.svc.RefreshStatus(context.Background(), f.account.ID.String(), job.ID.String())
	assert.ErrorIs(t, err, utils.ErrJobNotRefreshable)
}

func TestRefreshStatus_CompletesWhenVendorDone(t *testing.T) {
	f := newJobServiceFixture()
	job := f.seedJob(db_models.JobStatusPendingTranscription, db_models.ModeAI)
	job.VendorJobID = "vendor-1"
	f.vendor.status = VendorStatusDone
	f.vendor.result = &TranscriptResult{
		DurationSeconds: 120,
		Segments:        []Segment{{EndMs: 120000, Text: "late arrival"}},
	}

	resp, err := f.svc.RefreshStatus(context.Background(), f.account.ID.String(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(db_models.JobStatusComplete), resp.Status)
	assert.Equal(t, []int64{2}, f.billing.settled)
}

func firstKey(m map[string]*db_models.TranscriptionJob) string {
	for k := range m {
		return k
	}
	return ""
}
