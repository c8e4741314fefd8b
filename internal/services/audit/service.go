package audit

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"docxtract-desktop/internal/models"
)

// Service keeps the local trail of what this installation submitted and how
// each submission ended. The server stays authoritative for job state; this
// exists so the user still has a record after the server prunes its jobs.
type Service struct {
	db *gorm.DB
}

// NewService creates a new Audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordUpload stores a new submission. Failures are absorbed: the audit
// trail must never block an upload.
func (s *Service) RecordUpload(jobID string, fileCount int) {
	record := &models.UploadRecord{
		JobID:       jobID,
		FileCount:   fileCount,
		Outcome:     "submitted",
		SubmittedAt: time.Now(),
	}

	if err := s.db.Create(record).Error; err != nil {
		log.Printf("WARNING: Failed to record upload for job %s: %v", jobID, err)
		return
	}
	log.Printf("Audit: recorded upload %s (job %s, %d files)", record.ID, jobID, fileCount)
}

// RecordOutcome marks the submission's terminal result. Called from the
// monitor's terminal hook.
func (s *Service) RecordOutcome(jobID string, status models.JobStatus) {
	if !status.IsTerminal() {
		return
	}

	now := time.Now()
	result := s.db.Model(&models.UploadRecord{}).
		Where("job_id = ? AND outcome = ?", jobID, "submitted").
		Updates(map[string]interface{}{
			"outcome":      string(status),
			"completed_at": &now,
		})
	if result.Error != nil {
		log.Printf("WARNING: Failed to record outcome for job %s: %v", jobID, result.Error)
	}
}

// ListRecent returns the latest submissions, newest first.
func (s *Service) ListRecent(limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []models.UploadRecord
	if err := s.db.Order("submitted_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list upload records: %w", err)
	}
	return records, nil
}
