package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"petidocs/internal/apperr"
	"petidocs/internal/logger"
	"petidocs/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Template{},
		&models.Placeholder{},
		&models.GeneratedForm{},
		&models.GenerationRecord{},
		&models.GenerationJob{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTemplateService(t *testing.T, provider *fakeProvider) (*TemplateService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewTemplateService(db, provider, logger.NewNop()), db
}

func TestCreateAndGetTemplate(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())

	created, err := svc.CreateTemplate("Recurso de Multa", "doc-1", "folder-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Active {
		t.Fatalf("new template must start active")
	}

	got, err := svc.GetTemplate(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Recurso de Multa" || got.SourceDocumentID != "doc-1" {
		t.Fatalf("got %+v", got)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())
	if _, err := svc.CreateTemplate("", "doc-1", ""); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())
	if _, err := svc.GetTemplate("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSyncPlaceholders(t *testing.T) {
	provider := newFakeProvider()
	provider.documents["doc-1"] = docWithText(
		"Eu, {{nome}}, CPF {{cpf}}, autor {{autor_1_nome}} e {{autor_2_nome}}, processo {{processo_numero}}.")
	svc, _ := newTemplateService(t, provider)

	template, err := svc.CreateTemplate("Recurso", "doc-1", "folder-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.SyncPlaceholders(context.Background(), template.ID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 5 || result.Updated != 0 || result.Removed != 0 {
		t.Fatalf("result = %+v, want 5 created", result)
	}

	placeholders, err := svc.GetPlaceholders(template.ID)
	if err != nil {
		t.Fatalf("get placeholders: %v", err)
	}
	if len(placeholders) != 5 {
		t.Fatalf("got %d placeholders, want 5", len(placeholders))
	}
	// Rows come back in document order.
	if placeholders[0].Key != "nome" || placeholders[4].Key != "processo_numero" {
		t.Fatalf("wrong order: %s ... %s", placeholders[0].Key, placeholders[4].Key)
	}
	if placeholders[4].Category != models.CategoryProcesso {
		t.Fatalf("processo_numero category = %q", placeholders[4].Category)
	}

	synced, _ := svc.GetTemplate(template.ID)
	if synced.PlaceholderCount != 5 {
		t.Fatalf("placeholder count = %d, want 5", synced.PlaceholderCount)
	}
	if synced.PersonaCount != 2 {
		t.Fatalf("persona count = %d, want 2", synced.PersonaCount)
	}
	if synced.LastSyncTime == nil {
		t.Fatalf("last sync time not set")
	}
}

func TestSyncPlaceholdersDiff(t *testing.T) {
	provider := newFakeProvider()
	provider.documents["doc-1"] = docWithText("{{nome}} {{cpf}} {{telefone}}")
	svc, db := newTemplateService(t, provider)

	template, _ := svc.CreateTemplate("Recurso", "doc-1", "")
	if _, err := svc.SyncPlaceholders(context.Background(), template.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Mark a surviving row required by hand; the second sync must keep it.
	if err := db.Model(&models.Placeholder{}).
		Where("template_id = ? AND key = ?", template.ID, "cpf").
		Update("required", true).Error; err != nil {
		t.Fatalf("mark required: %v", err)
	}

	// Document changes: telefone dropped, email added, nome/cpf survive.
	provider.documents["doc-1"] = docWithText("{{nome}} {{cpf}} {{email}}")
	result, err := svc.SyncPlaceholders(context.Background(), template.ID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Created != 1 || result.Updated != 2 || result.Removed != 1 {
		t.Fatalf("result = %+v, want 1/2/1", result)
	}

	placeholders, _ := svc.GetPlaceholders(template.ID)
	byKey := make(map[string]models.Placeholder)
	for _, p := range placeholders {
		byKey[p.Key] = p
	}
	if _, ok := byKey["telefone"]; ok {
		t.Fatalf("telefone should be removed")
	}
	if !byKey["cpf"].Required {
		t.Fatalf("manual required flag lost on sync")
	}
}

func TestSyncPlaceholdersExtractionFailureKeepsRows(t *testing.T) {
	provider := newFakeProvider()
	provider.documents["doc-1"] = docWithText("{{nome}} {{cpf}}")
	svc, _ := newTemplateService(t, provider)

	template, _ := svc.CreateTemplate("Recurso", "doc-1", "")
	if _, err := svc.SyncPlaceholders(context.Background(), template.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	provider.getDocumentErr = fmt.Errorf("api down")
	if _, err := svc.SyncPlaceholders(context.Background(), template.ID); !errors.Is(err, apperr.ErrExtraction) {
		t.Fatalf("got %v, want ErrExtraction", err)
	}

	// The stored set survives the failed sync untouched.
	placeholders, err := svc.GetPlaceholders(template.ID)
	if err != nil {
		t.Fatalf("get placeholders: %v", err)
	}
	if len(placeholders) != 2 {
		t.Fatalf("got %d placeholders after failed sync, want 2", len(placeholders))
	}
}

func TestCreateFormAndLookup(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())
	template, _ := svc.CreateTemplate("Recurso de Multa", "doc-1", "")

	form, err := svc.CreateForm(template.ID, "Recurso de Multa 2026")
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	if form.Slug == "" {
		t.Fatalf("empty slug")
	}

	loaded, err := svc.GetFormBySlug(form.Slug)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if loaded.Template.ID != template.ID {
		t.Fatalf("template not preloaded: %+v", loaded)
	}
}

func TestCreateFormSlugsAreUnique(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())
	template, _ := svc.CreateTemplate("Recurso", "doc-1", "")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		form, err := svc.CreateForm(template.ID, "Mesmo Nome")
		if err != nil {
			t.Fatalf("create form %d: %v", i, err)
		}
		if seen[form.Slug] {
			t.Fatalf("duplicate slug %q", form.Slug)
		}
		seen[form.Slug] = true
	}
}

func TestGetFormBySlugNotFound(t *testing.T) {
	svc, _ := newTemplateService(t, newFakeProvider())
	if _, err := svc.GetFormBySlug("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Recurso de Multa 2026", "recurso-de-multa-2026"},
		{"  Ação!!  Anulatória  ", "a-o-anulat-ria"},
		{"", "form"},
		{"---", "form"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildFormSchemaFromStore(t *testing.T) {
	provider := newFakeProvider()
	provider.documents["doc-1"] = docWithText("{{nome}} {{autor_1_nome}} {{comarca}}")
	svc, _ := newTemplateService(t, provider)

	template, _ := svc.CreateTemplate("Recurso", "doc-1", "")
	if _, err := svc.SyncPlaceholders(context.Background(), template.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	schema, err := svc.BuildFormSchema(template.ID)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(schema.Categories) != 2 {
		t.Fatalf("got %d category groups, want 2 (cliente, processo)", len(schema.Categories))
	}
	if len(schema.Personas) != 1 {
		t.Fatalf("got %d persona groups, want 1", len(schema.Personas))
	}
}
