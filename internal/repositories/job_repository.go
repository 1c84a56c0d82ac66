package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scribly/internal/models/db_models"
)

type JobRepository interface {
	Insert(ctx context.Context, job *db_models.TranscriptionJob) error
	FindById(ctx context.Context, id string) (*db_models.TranscriptionJob, error)
	ListByAccount(ctx context.Context, accountID string, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error)
	ListByStatus(ctx context.Context, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error)
	ListStuck(ctx context.Context, olderThanUnix int64) ([]db_models.TranscriptionJob, error)
	UpdateStatus(ctx context.Context, id string, status db_models.JobStatus, fields map[string]interface{}) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Insert(ctx context.Context, job *db_models.TranscriptionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) FindById(ctx context.Context, id string) (*db_models.TranscriptionJob, error) {
	var job db_models.TranscriptionJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListByAccount(ctx context.Context, accountID string, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var jobs []db_models.TranscriptionJob
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) ListByStatus(ctx context.Context, status db_models.JobStatus, page, pageSize int) ([]db_models.TranscriptionJob, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var jobs []db_models.TranscriptionJob
	err := q.Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, err
}

// ListStuck returns non-terminal jobs whose last update predates the cutoff.
// The process keeps no durable queue, so this is how operators find work
// orphaned by a crash.
func (r *jobRepository) ListStuck(ctx context.Context, olderThanUnix int64) ([]db_models.TranscriptionJob, error) {
	var jobs []db_models.TranscriptionJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []db_models.JobStatus{
			db_models.JobStatusProcessing,
			db_models.JobStatusPendingTranscription,
		}).
		Where("updated_at < ?", olderThanUnix).
		Order("updated_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// UpdateStatus persists a transition plus any accompanying fields in one
// write, so every orchestration step leaves a durable trace. Terminal rows
// are immutable here: once a job is complete or failed, a late transition
// from a racing worker is silently dropped.
func (r *jobRepository) UpdateStatus(ctx context.Context, id string, status db_models.JobStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&db_models.TranscriptionJob{}).
		Where("id = ?", id).
		Where("status NOT IN ?", []db_models.JobStatus{
			db_models.JobStatusComplete,
			db_models.JobStatusFailed,
		}).
		Updates(updates).Error
}
