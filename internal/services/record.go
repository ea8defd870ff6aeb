package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petidocs/internal/apperr"
	"petidocs/internal/models"
)

// RecordService owns the append-only generation audit log.
type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// CreateRecord inserts the pending audit row for a new generation request.
func (s *RecordService) CreateRecord(clientID *string, clientName, templateName string) (*models.GenerationRecord, error) {
	record := &models.GenerationRecord{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		ClientName:   clientName,
		TemplateName: templateName,
		Status:       models.RecordPending,
		Links:        "[]",
		Errors:       "[]",
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save generation record: %w", err)
	}
	return record, nil
}

// FinishRecord stores the terminal outcome. Only the worker that owns the
// job writes here, so there are no concurrent writers per row.
func (s *RecordService) FinishRecord(recordID string, status models.RecordStatus, links []models.GeneratedLink, docErrors []models.DocumentError) error {
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}
	errorsJSON, err := json.Marshal(docErrors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	result := s.db.Model(&models.GenerationRecord{}).Where("id = ?", recordID).Updates(map[string]interface{}{
		"status": status,
		"links":  string(linksJSON),
		"errors": string(errorsJSON),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update generation record: %w", result.Error)
	}
	return nil
}

func (s *RecordService) GetRecord(recordID string) (*models.GenerationRecord, error) {
	var record models.GenerationRecord
	if err := s.db.First(&record, "id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", recordID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &record, nil
}

func (s *RecordService) ListRecords(limit, offset int) ([]models.GenerationRecord, int64, error) {
	var records []models.GenerationRecord
	var total int64

	if err := s.db.Model(&models.GenerationRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query := s.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch records: %w", err)
	}

	return records, total, nil
}
