package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// TypeGeneratePetition is scheduled for each accepted form submission.
	TypeGeneratePetition = "petition:generate"
)

// GeneratePayload is serialized into the task so the worker knows which
// record to fill and with what data. DocumentTypes name the templates to
// generate; FormData is the validated key -> value substitution map.
type GeneratePayload struct {
	JobID         string            `json:"job_id"`
	RecordID      string            `json:"record_id"`
	ClientID      *string           `json:"client_id,omitempty"`
	ClientName    string            `json:"client_name"`
	DocumentTypes []string          `json:"document_types"`
	FormData      map[string]string `json:"form_data"`
}

// EnqueueGenerate hands a generation job to the worker pool. The task id is
// fixed to the job id so status polling and the queue agree on identity.
func EnqueueGenerate(ctx context.Context, client *asynq.Client, payload GeneratePayload, maxRetry int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeGeneratePetition, data)
	if _, err := client.EnqueueContext(ctx, task,
		asynq.TaskID(payload.JobID),
		asynq.MaxRetry(maxRetry),
	); err != nil {
		return fmt.Errorf("enqueue generate task: %w", err)
	}
	return nil
}
