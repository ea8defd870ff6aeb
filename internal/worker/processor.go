package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"petidocs/internal/apperr"
	"petidocs/internal/config"
	"petidocs/internal/gdocs"
	"petidocs/internal/logger"
	"petidocs/internal/models"
	"petidocs/internal/queue"
	"petidocs/internal/services"
	"petidocs/internal/storage"
)

// Processor is plugged into the asynq worker loop. One handler invocation
// drives one generation job end to end: folder resolution, per-document
// generation with bounded parallelism, result aggregation and status
// persistence.
type Processor struct {
	db        *gorm.DB
	jobs      *JobStore
	templates *services.TemplateService
	generator *services.GeneratorService
	records   *services.RecordService
	provider  gdocs.Provider
	archive   *storage.ArchiveStore // nil when archiving is disabled
	cfg       config.WorkerConfig
	log       *logger.Logger
}

func NewProcessor(
	db *gorm.DB,
	jobs *JobStore,
	templates *services.TemplateService,
	generator *services.GeneratorService,
	records *services.RecordService,
	provider gdocs.Provider,
	archive *storage.ArchiveStore,
	cfg config.WorkerConfig,
	log *logger.Logger,
) *Processor {
	return &Processor{
		db:        db,
		jobs:      jobs,
		templates: templates,
		generator: generator,
		records:   records,
		provider:  provider,
		archive:   archive,
		cfg:       cfg,
		log:       log,
	}
}

// Handler registers the generation job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeGeneratePetition, p.handleGenerate)
	return mux
}

// docOutcome carries one document type's result out of the parallel phase.
type docOutcome struct {
	docType string
	link    models.GeneratedLink
	err     error
}

func (p *Processor) handleGenerate(ctx context.Context, task *asynq.Task) error {
	var payload queue.GeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Undecodable payloads can never succeed; don't let asynq retry them.
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	log := p.log.With("job_id", payload.JobID, "record_id", payload.RecordID)

	if err := p.jobs.MarkProcessing(payload.JobID, "Gerando documentos", 10); err != nil {
		log.Error("failed to mark job processing", "error", err)
	}
	attempt, err := p.jobs.RecordAttempt(payload.JobID)
	if err != nil {
		// Counting failed; assume a first attempt so the job keeps retrying
		// rather than failing early on a bookkeeping error.
		log.Error("failed to record attempt", "error", err)
		attempt = 1
	}

	// Folder resolution happens once, before any generation; every document
	// of the job lands in the same client folder. Find-or-create is
	// idempotent so concurrent jobs for the same client converge.
	folderID, err := p.generator.FindOrCreateClientFolder(ctx, payload.ClientName)
	if err != nil {
		return p.finishOrRetry(payload, attempt, nil, nil, fmt.Errorf("resolve client folder: %w", err))
	}

	if err := p.jobs.MarkProcessing(payload.JobID, "Pasta do cliente resolvida", 25); err != nil {
		log.Error("failed to update job progress", "error", err)
	}

	outcomes := make([]docOutcome, len(payload.DocumentTypes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.GenerateConcurrency)
	for i, docType := range payload.DocumentTypes {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, p.cfg.GenerateTimeout)
			defer cancel()

			outcome := p.generateOne(callCtx, payload, docType, folderID)
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			// Per-document failures are aggregated, never group-fatal.
			return nil
		})
	}
	_ = g.Wait()

	var links []models.GeneratedLink
	var docErrors []models.DocumentError
	rateLimited := 0
	for _, o := range outcomes {
		if o.err != nil {
			docErrors = append(docErrors, models.DocumentError{DocumentType: o.docType, Error: o.err.Error()})
			if errors.Is(o.err, apperr.ErrRateLimited) {
				rateLimited++
			}
			continue
		}
		links = append(links, o.link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].DocumentType < links[j].DocumentType })
	sort.Slice(docErrors, func(i, j int) bool { return docErrors[i].DocumentType < docErrors[j].DocumentType })

	// Nothing succeeded and every failure was provider throttling: hand the
	// task back to asynq for a backoff retry. Unique-name resolution keeps
	// the retry from duplicating documents.
	if len(links) == 0 && len(docErrors) > 0 && rateLimited == len(docErrors) {
		return p.finishOrRetry(payload, attempt, links, docErrors, fmt.Errorf("all generations throttled: %w", apperr.ErrRateLimited))
	}

	p.archiveLinks(ctx, payload.RecordID, links, log)
	return p.finish(payload, links, docErrors)
}

// generateOne produces a single document type. It resolves the template by
// name, fills a copy and reports the link or the per-document error.
func (p *Processor) generateOne(ctx context.Context, payload queue.GeneratePayload, docType, folderID string) docOutcome {
	var template models.Template
	err := p.db.Where("name = ? AND active = ?", docType, true).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return docOutcome{docType: docType, err: fmt.Errorf("no active template named %q: %w", docType, apperr.ErrNotFound)}
		}
		return docOutcome{docType: docType, err: fmt.Errorf("lookup template %q: %w", docType, err)}
	}

	name := docType
	if payload.ClientName != "" {
		name = fmt.Sprintf("%s - %s", docType, payload.ClientName)
	}

	destFolder := folderID
	if destFolder == "" {
		destFolder = template.DestinationFolderID
	}

	documentID, link, err := p.generator.DuplicateAndFill(ctx, template.SourceDocumentID, name, destFolder, payload.FormData)
	if err != nil {
		if ctx.Err() != nil {
			// A per-call timeout is an error for this document type, not a
			// failure of the whole job.
			return docOutcome{docType: docType, err: fmt.Errorf("generation timed out for %q", docType)}
		}
		return docOutcome{docType: docType, err: err}
	}

	return docOutcome{docType: docType, link: models.GeneratedLink{
		DocumentType: docType,
		DocumentID:   documentID,
		Link:         link,
	}}
}

// finishOrRetry decides between asynq's retry path and terminal failure.
// Rate-limit errors bubble up so the queue reschedules the task with
// backoff, until the attempt budget runs out; everything else is terminal
// immediately. The terminal path always lands the job in FAILURE so pollers
// never wait on a task the queue has already given up on.
func (p *Processor) finishOrRetry(payload queue.GeneratePayload, attempt int, links []models.GeneratedLink, docErrors []models.DocumentError, err error) error {
	if errors.Is(err, apperr.ErrRateLimited) {
		if attempt <= p.cfg.MaxRetries {
			p.log.Warn("job throttled, leaving to retry",
				"job_id", payload.JobID, "attempt", attempt, "max_retries", p.cfg.MaxRetries, "error", err)
			return err
		}
		p.log.Error("job throttled and retries exhausted",
			"job_id", payload.JobID, "attempt", attempt, "error", err)
		err = fmt.Errorf("retries exhausted: %v", err)
	}

	p.log.Error("job failed", "job_id", payload.JobID, "record_id", payload.RecordID, "error", err)
	if markErr := p.jobs.MarkFailure(payload.JobID, err.Error()); markErr != nil {
		p.log.Error("failed to mark job failure", "job_id", payload.JobID, "error", markErr)
	}
	if recErr := p.records.FinishRecord(payload.RecordID, models.RecordFailure, links, docErrors); recErr != nil {
		p.log.Error("failed to finish record", "record_id", payload.RecordID, "error", recErr)
	}
	return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
}

// finish persists the terminal aggregate. Mixed outcomes land in the
// distinct "partial" status; only an all-error run counts as failure.
func (p *Processor) finish(payload queue.GeneratePayload, links []models.GeneratedLink, docErrors []models.DocumentError) error {
	result := models.JobResult{Links: links, Errors: docErrors}

	var status models.RecordStatus
	switch {
	case len(docErrors) == 0:
		status = models.RecordSuccess
	case len(links) == 0:
		status = models.RecordFailure
	default:
		status = models.RecordPartial
	}

	if err := p.records.FinishRecord(payload.RecordID, status, links, docErrors); err != nil {
		p.log.Error("failed to finish record", "record_id", payload.RecordID, "error", err)
	}

	if status == models.RecordFailure {
		detail, _ := json.Marshal(docErrors)
		if err := p.jobs.MarkFailure(payload.JobID, string(detail)); err != nil {
			p.log.Error("failed to mark job failure", "job_id", payload.JobID, "error", err)
		}
		return nil
	}

	message := fmt.Sprintf("%d documento(s) gerado(s)", len(links))
	if status == models.RecordPartial {
		message = fmt.Sprintf("%d documento(s) gerado(s), %d com erro", len(links), len(docErrors))
	}
	if err := p.jobs.MarkSuccess(payload.JobID, result, message); err != nil {
		p.log.Error("failed to mark job success", "job_id", payload.JobID, "error", err)
	}

	p.log.Info("job finished", "job_id", payload.JobID,
		"status", status, "links", len(links), "errors", len(docErrors))
	return nil
}

// archiveLinks stores PDF snapshots of the generated documents. Archiving is
// best-effort: a failed export or upload is logged and never fails the job.
func (p *Processor) archiveLinks(ctx context.Context, recordID string, links []models.GeneratedLink, log *logger.Logger) {
	if p.archive == nil {
		return
	}
	for _, link := range links {
		data, err := p.provider.ExportPDF(ctx, link.DocumentID)
		if err != nil {
			log.Warn("failed to export pdf for archive", "document_id", link.DocumentID, "error", err)
			continue
		}
		objectName := storage.ObjectName(recordID, link.DocumentID)
		if _, err := p.archive.Upload(ctx, objectName, data, "application/pdf"); err != nil {
			log.Warn("failed to upload archive copy", "object", objectName, "error", err)
		}
	}
}
