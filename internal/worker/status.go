package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petidocs/internal/apperr"
	"petidocs/internal/models"
)

// JobStore persists GenerationJob state. Transitions are guarded so a job
// only ever moves PENDING -> PROCESSING -> SUCCESS|FAILURE; a write that
// would regress is silently dropped.
type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// CreateJob inserts the PENDING row before the task is enqueued.
func (s *JobStore) CreateJob(recordID string) (*models.GenerationJob, error) {
	job := &models.GenerationJob{
		ID:       uuid.New().String(),
		RecordID: recordID,
		State:    models.JobPending,
		Progress: 0,
		Message:  "Aguardando processamento",
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// MarkProcessing moves the job into PROCESSING with an in-flight progress
// estimate. Safe to call again on a retry attempt: a job already PROCESSING
// just refreshes its message.
func (s *JobStore) MarkProcessing(jobID, message string, progress int) error {
	return s.transition(jobID, []models.JobState{models.JobPending, models.JobProcessing}, map[string]interface{}{
		"state":    models.JobProcessing,
		"progress": progress,
		"message":  message,
	})
}

// RecordAttempt bumps the per-job attempt counter and returns the new
// total. The counter decides when a throttled job stops retrying and turns
// terminal.
func (s *JobStore) RecordAttempt(jobID string) (int, error) {
	if err := s.db.Model(&models.GenerationJob{}).
		Where("id = ?", jobID).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error; err != nil {
		return 0, fmt.Errorf("failed to record attempt for job %s: %w", jobID, err)
	}
	var job models.GenerationJob
	if err := s.db.Select("attempts").First(&job, "id = ?", jobID).Error; err != nil {
		return 0, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return job.Attempts, nil
}

// MarkSuccess finalizes the job with its result payload at progress 100.
func (s *JobStore) MarkSuccess(jobID string, result models.JobResult, message string) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	return s.transition(jobID, []models.JobState{models.JobPending, models.JobProcessing}, map[string]interface{}{
		"state":       models.JobSuccess,
		"progress":    100,
		"message":     message,
		"result_json": string(resultJSON),
	})
}

// MarkFailure finalizes the job as FAILURE. Progress drops to 0 so pollers
// render the terminal error state.
func (s *JobStore) MarkFailure(jobID, errorMessage string) error {
	return s.transition(jobID, []models.JobState{models.JobPending, models.JobProcessing}, map[string]interface{}{
		"state":         models.JobFailure,
		"progress":      0,
		"message":       "Falha na geração de documentos",
		"error_message": errorMessage,
	})
}

func (s *JobStore) transition(jobID string, from []models.JobState, updates map[string]interface{}) error {
	result := s.db.Model(&models.GenerationJob{}).
		Where("id = ? AND state IN ?", jobID, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, result.Error)
	}
	return nil
}

func (s *JobStore) GetJob(jobID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return &job, nil
}
