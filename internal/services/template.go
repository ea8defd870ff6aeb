package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petidocs/internal/apperr"
	"petidocs/internal/docparse"
	"petidocs/internal/gdocs"
	"petidocs/internal/logger"
	"petidocs/internal/models"
)

// TemplateService is the template registry: CRUD plus synchronization of a
// template's placeholder set against its live document.
type TemplateService struct {
	db       *gorm.DB
	provider gdocs.Provider
	log      *logger.Logger
}

func NewTemplateService(db *gorm.DB, provider gdocs.Provider, log *logger.Logger) *TemplateService {
	return &TemplateService{db: db, provider: provider, log: log}
}

// SyncResult reports what one sync invocation changed.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

func (s *TemplateService) CreateTemplate(name, sourceDocumentID, destinationFolderID string) (*models.Template, error) {
	if name == "" || sourceDocumentID == "" {
		return nil, fmt.Errorf("%w: name and source document id are required", apperr.ErrInvalidArgument)
	}
	template := &models.Template{
		ID:                  uuid.New().String(),
		Name:                name,
		SourceDocumentID:    sourceDocumentID,
		DestinationFolderID: destinationFolderID,
		Active:              true,
	}
	if err := s.db.Create(template).Error; err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	return template, nil
}

func (s *TemplateService) GetTemplate(templateID string) (*models.Template, error) {
	var template models.Template
	if err := s.db.First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

func (s *TemplateService) ListTemplates() ([]models.Template, error) {
	var templates []models.Template
	if err := s.db.Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// GetPlaceholders returns the stored placeholder rows in form order.
func (s *TemplateService) GetPlaceholders(templateID string) ([]models.Placeholder, error) {
	if _, err := s.GetTemplate(templateID); err != nil {
		return nil, err
	}
	var placeholders []models.Placeholder
	if err := s.db.Where("template_id = ?", templateID).
		Order("field_order ASC").Find(&placeholders).Error; err != nil {
		return nil, fmt.Errorf("failed to load placeholders: %w", err)
	}
	return placeholders, nil
}

// SyncPlaceholders re-reads the live document, diffs the extracted keys
// against the stored rows and applies additions, removals and order
// refreshes in one transaction. An extraction failure aborts before any
// mutation, so a broken fetch never wipes an existing placeholder set.
func (s *TemplateService) SyncPlaceholders(ctx context.Context, templateID string) (*SyncResult, error) {
	template, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}

	doc, err := s.provider.GetDocument(ctx, template.SourceDocumentID)
	if err != nil {
		s.log.Error("placeholder extraction failed",
			"template_id", templateID, "document_id", template.SourceDocumentID, "error", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}

	keys := docparse.ExtractFromDocument(doc)
	personas := docparse.DetectPersonas(keys)

	result := &SyncResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Placeholder
		if err := tx.Where("template_id = ?", templateID).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load placeholders: %w", err)
		}
		byKey := make(map[string]models.Placeholder, len(existing))
		for _, p := range existing {
			byKey[p.Key] = p
		}

		liveKeys := make(map[string]bool, len(keys))
		for order, key := range keys {
			liveKeys[key] = true
			if current, ok := byKey[key]; ok {
				// Key survives: refresh order and category, keep manual
				// edits (required flag, label) intact.
				updates := map[string]interface{}{
					"field_order": order,
					"category":    docparse.Classify(key),
				}
				if err := tx.Model(&models.Placeholder{}).
					Where("id = ?", current.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update placeholder %s: %w", key, err)
				}
				result.Updated++
				continue
			}

			placeholder := models.Placeholder{
				ID:         uuid.New().String(),
				TemplateID: templateID,
				Key:        key,
				Category:   docparse.Classify(key),
				FieldType:  docparse.InferFieldType(key),
				Label:      docparse.Humanize(key),
				Order:      order,
			}
			if opts := optionsJSON(key); opts != "" {
				placeholder.Options = opts
			}
			if err := tx.Create(&placeholder).Error; err != nil {
				return fmt.Errorf("failed to insert placeholder %s: %w", key, err)
			}
			result.Created++
		}

		for key, p := range byKey {
			if !liveKeys[key] {
				if err := tx.Delete(&models.Placeholder{}, "id = ?", p.ID).Error; err != nil {
					return fmt.Errorf("failed to delete placeholder %s: %w", key, err)
				}
				result.Removed++
			}
		}

		now := time.Now()
		return tx.Model(&models.Template{}).Where("id = ?", templateID).Updates(map[string]interface{}{
			"placeholder_count": len(keys),
			"persona_count":     personas.TotalPersonas,
			"last_sync_time":    &now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("placeholders synced", "template_id", templateID,
		"created", result.Created, "updated", result.Updated, "removed", result.Removed)
	return result, nil
}

// CreateForm creates a named, shareable form for a template. The slug is
// derived from the name plus a short random suffix and re-rolled on
// collision; once stored it never changes.
func (s *TemplateService) CreateForm(templateID, name string) (*models.GeneratedForm, error) {
	template, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: form name is required", apperr.ErrInvalidArgument)
	}

	base := Slugify(name)
	for attempt := 0; attempt < 10; attempt++ {
		slug := fmt.Sprintf("%s-%s", base, uuid.New().String()[:6])
		form := &models.GeneratedForm{
			ID:         uuid.New().String(),
			TemplateID: template.ID,
			Name:       name,
			Slug:       slug,
		}
		err := s.db.Create(form).Error
		if err == nil {
			return form, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to save form: %w", err)
		}
		// Suffix collided, roll a new one.
	}
	return nil, fmt.Errorf("failed to allocate a unique slug for %q", name)
}

// GetFormBySlug loads a form with its template.
func (s *TemplateService) GetFormBySlug(slug string) (*models.GeneratedForm, error) {
	var form models.GeneratedForm
	if err := s.db.Preload("Template").First(&form, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("form %s: %w", slug, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	return &form, nil
}

// BuildFormSchema assembles the dynamic form schema for a template from its
// stored placeholder rows.
func (s *TemplateService) BuildFormSchema(templateID string) (*docparse.FormSchema, error) {
	placeholders, err := s.GetPlaceholders(templateID)
	if err != nil {
		return nil, err
	}
	schema := docparse.BuildForm(placeholders)
	return &schema, nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a form name to a URL-safe lowercase slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "form"
	}
	return slug
}

func optionsJSON(key string) string {
	if docparse.InferFieldType(key) != models.FieldSelect {
		return ""
	}
	opts := docparse.OptionsFor(key)
	if len(opts) == 0 {
		return ""
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return ""
	}
	return string(data)
}
