package models

import "time"

// AppSetting is a single key/value application setting. Secrets never go
// here; the API token lives in the OS keyring.
type AppSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (AppSetting) TableName() string {
	return "app_settings"
}
