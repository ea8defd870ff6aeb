package services

import (
	"time"

	"gorm.io/gorm"

	"petidocs/internal/logger"
	"petidocs/internal/models"
)

// RetentionService sweeps stale state on a fixed interval: request audit
// rows past their retention window are purged, and jobs stuck in a
// non-terminal state long past any plausible runtime are marked FAILURE so
// pollers see the abandonment instead of an eternal PROCESSING.
type RetentionService struct {
	db          *gorm.DB
	log         *logger.Logger
	interval    time.Duration
	logMaxAge   time.Duration
	jobMaxAge   time.Duration
	stopChannel chan struct{}
}

func NewRetentionService(db *gorm.DB, log *logger.Logger, interval, logMaxAge, jobMaxAge time.Duration) *RetentionService {
	return &RetentionService{
		db:          db,
		log:         log,
		interval:    interval,
		logMaxAge:   logMaxAge,
		jobMaxAge:   jobMaxAge,
		stopChannel: make(chan struct{}),
	}
}

func (s *RetentionService) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChannel:
				return
			}
		}
	}()
	s.log.Info("retention sweeper started",
		"interval", s.interval, "log_max_age", s.logMaxAge, "job_max_age", s.jobMaxAge)
}

func (s *RetentionService) Stop() {
	close(s.stopChannel)
}

func (s *RetentionService) sweep() {
	logCutoff := time.Now().Add(-s.logMaxAge)
	result := s.db.Unscoped().Where("created_at < ?", logCutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		s.log.Warn("failed to purge activity logs", "error", result.Error)
	} else if result.RowsAffected > 0 {
		s.log.Info("purged activity logs", "rows", result.RowsAffected)
	}

	jobCutoff := time.Now().Add(-s.jobMaxAge)
	result = s.db.Model(&models.GenerationJob{}).
		Where("state IN ? AND updated_at < ?", []models.JobState{models.JobPending, models.JobProcessing}, jobCutoff).
		Updates(map[string]interface{}{
			"state":         models.JobFailure,
			"progress":      0,
			"message":       "Falha na geração de documentos",
			"error_message": "job abandoned: no progress within retention window",
		})
	if result.Error != nil {
		s.log.Warn("failed to mark abandoned jobs", "error", result.Error)
	} else if result.RowsAffected > 0 {
		s.log.Warn("marked abandoned jobs failed", "rows", result.RowsAffected)
	}
}
