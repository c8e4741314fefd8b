package models

import (
	"encoding/json"
	"strings"
	"time"
)

// JobStatus represents the server-side state of a processing job.
// The state machine is strictly forward-moving:
// pending -> uploading -> processing -> completed | failed
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusUploading  JobStatus = "uploading"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the job has reached a final state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive reports whether the job is still moving through the pipeline.
func (s JobStatus) IsActive() bool {
	return s == StatusPending || s == StatusUploading || s == StatusProcessing
}

// Timestamp wraps time.Time so JSON decoding accepts both RFC3339 and the
// naive isoformat strings (no timezone) the extractor server emits.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON parses the first layout that matches. An empty string decodes
// to the zero time rather than failing the whole record.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON always emits RFC3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// JobRecord is the server-authoritative description of one processing job.
// The client never mutates a record; snapshots are always replaced wholesale.
type JobRecord struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress"` // 0.0 - 1.0, meaningless once terminal
	CurrentFile int       `json:"current_file,omitempty"`
	TotalFiles  int       `json:"total_files"`
	Message     string    `json:"message"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}
