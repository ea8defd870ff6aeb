package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"petidocs/internal/config"
	"petidocs/internal/docparse"
	"petidocs/internal/queue"
	"petidocs/internal/services"
	"petidocs/internal/worker"
)

// FormHandler renders dynamic form schemas and accepts submissions.
// Accepted submissions are enqueued, never generated inline: the endpoint
// replies 202 with a task id and pollers watch /task-status.
type FormHandler struct {
	templates   *services.TemplateService
	records     *services.RecordService
	jobs        *worker.JobStore
	asynqClient *asynq.Client
	workerCfg   config.WorkerConfig
}

func NewFormHandler(
	templates *services.TemplateService,
	records *services.RecordService,
	jobs *worker.JobStore,
	asynqClient *asynq.Client,
	workerCfg config.WorkerConfig,
) *FormHandler {
	return &FormHandler{
		templates:   templates,
		records:     records,
		jobs:        jobs,
		asynqClient: asynqClient,
		workerCfg:   workerCfg,
	}
}

type submitFormRequest struct {
	ClientID      *string           `json:"client_id,omitempty"`
	ClientName    string            `json:"client_name" binding:"required"`
	DocumentTypes []string          `json:"document_types"`
	Data          map[string]string `json:"data" binding:"required"`
}

// GetForm returns the form schema for a slug: the field descriptors a
// generic front-end renderer turns into inputs.
func (h *FormHandler) GetForm(c *gin.Context) {
	form, err := h.templates.GetFormBySlug(c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	schema, err := h.templates.BuildFormSchema(form.TemplateID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"form":   form,
		"schema": schema,
	})
}

// SubmitForm validates the submission and enqueues the generation job.
// Validation failures reject the request before anything reaches the async
// pipeline.
func (h *FormHandler) SubmitForm(c *gin.Context) {
	form, err := h.templates.GetFormBySlug(c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}

	var req submitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON"})
		return
	}

	schema, err := h.templates.BuildFormSchema(form.TemplateID)
	if err != nil {
		fail(c, err)
		return
	}

	if fieldErrors := docparse.ValidateSubmission(*schema, req.Data); len(fieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": fieldErrors})
		return
	}

	documentTypes := req.DocumentTypes
	if len(documentTypes) == 0 {
		documentTypes = []string{form.Template.Name}
	}

	record, err := h.records.CreateRecord(req.ClientID, req.ClientName, form.Template.Name)
	if err != nil {
		fail(c, err)
		return
	}

	job, err := h.jobs.CreateJob(record.ID)
	if err != nil {
		fail(c, err)
		return
	}

	payload := queue.GeneratePayload{
		JobID:         job.ID,
		RecordID:      record.ID,
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		DocumentTypes: documentTypes,
		FormData:      req.Data,
	}
	if err := queue.EnqueueGenerate(c.Request.Context(), h.asynqClient, payload, h.workerCfg.MaxRetries); err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusAccepted, gin.H{"task_id": job.ID, "record_id": record.ID})
}
