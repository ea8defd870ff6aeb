package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"petidocs/internal/models"
	"petidocs/internal/worker"
)

func newStatusRouter(t *testing.T) (*gin.Engine, *worker.JobStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.GenerationJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	jobs := worker.NewJobStore(db)
	r := gin.New()
	r.GET("/api/v1/task-status/:taskId", NewStatusHandler(jobs).TaskStatus)
	return r, jobs
}

func TestTaskStatusPending(t *testing.T) {
	r, jobs := newStatusRouter(t)
	job, err := jobs.CreateJob("record-1")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/task-status/"+job.ID, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		State    models.JobState `json:"state"`
		Progress int             `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != models.JobPending || resp.Progress != 0 {
		t.Fatalf("got %+v, want PENDING/0", resp)
	}
}

func TestTaskStatusFailureIsNormalPayload(t *testing.T) {
	r, jobs := newStatusRouter(t)
	job, _ := jobs.CreateJob("record-1")
	if err := jobs.MarkFailure(job.ID, "detran indisponível"); err != nil {
		t.Fatalf("mark failure: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/task-status/"+job.ID, nil)
	r.ServeHTTP(w, req)

	// A failed job is a successful status lookup.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		State models.JobState `json:"state"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != models.JobFailure || resp.Error == "" {
		t.Fatalf("got %+v, want FAILURE with error detail", resp)
	}
}

func TestTaskStatusUnknownID(t *testing.T) {
	r, _ := newStatusRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/task-status/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTaskStatusSuccessCarriesResult(t *testing.T) {
	r, jobs := newStatusRouter(t)
	job, _ := jobs.CreateJob("record-1")
	result := models.JobResult{Links: []models.GeneratedLink{
		{DocumentType: "Recurso", DocumentID: "d1", Link: "https://docs.google.com/document/d/d1/edit"},
	}}
	if err := jobs.MarkProcessing(job.ID, "gerando", 50); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := jobs.MarkSuccess(job.ID, result, "1 documento(s) gerado(s)"); err != nil {
		t.Fatalf("mark success: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/task-status/"+job.ID, nil)
	r.ServeHTTP(w, req)

	var resp struct {
		State  models.JobState   `json:"state"`
		Result *models.JobResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != models.JobSuccess || resp.Result == nil || len(resp.Result.Links) != 1 {
		t.Fatalf("got %+v, want SUCCESS with one link", resp)
	}
}
