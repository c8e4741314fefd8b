package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadRecord is the local audit trail of one batch submission.
// The server remains the source of truth for job state; this table only
// remembers what this installation submitted and how it ended.
type UploadRecord struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	JobID       string     `gorm:"index;not null;column:job_id" json:"job_id"`
	FileCount   int        `gorm:"not null" json:"file_count"`
	Outcome     string     `gorm:"not null;default:submitted" json:"outcome"` // submitted, completed, failed
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (ur *UploadRecord) BeforeCreate(tx *gorm.DB) error {
	if ur.ID == "" {
		ur.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (UploadRecord) TableName() string {
	return "upload_records"
}
