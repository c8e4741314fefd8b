// Package render maps job records to markup fragments. Everything here is a
// pure function of its inputs so the monitor surface and the history cards
// can never disagree about how the same record looks.
package render

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"docxtract-desktop/internal/models"
)

// Fallbacks for status values this build does not recognize; rendering must
// never fail on an unknown status.
const (
	fallbackColor = "gray"
	fallbackIcon  = "•"
)

var statusColors = map[models.JobStatus]string{
	models.StatusPending:    "gray",
	models.StatusUploading:  "blue",
	models.StatusProcessing: "blue",
	models.StatusCompleted:  "green",
	models.StatusFailed:     "red",
}

var statusIcons = map[models.JobStatus]string{
	models.StatusPending:    "…",
	models.StatusUploading:  "↑",
	models.StatusProcessing: "⚙",
	models.StatusCompleted:  "✓",
	models.StatusFailed:     "✗",
}

// StatusColor returns the display color for a status.
func StatusColor(status models.JobStatus) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return fallbackColor
}

// StatusIcon returns the display glyph for a status.
func StatusIcon(status models.JobStatus) string {
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return fallbackIcon
}

// Percent converts a 0..1 progress fraction to a rounded whole percentage.
// Rounding, not truncation: 0.999 renders as 100%.
func Percent(progress float64) int {
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 100
	}
	return int(math.Round(progress * 100))
}

// FormatTimestamp renders a creation time relative to now: "just now" under
// a minute, "N minutes ago" under an hour, otherwise an absolute local
// date-time.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		minutes := int(age.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return t.Local().Format("Jan 2, 2006 3:04 PM")
	}
}

// JobCard renders one history card. The fragment is keyed by data-job-id so
// the view layer can replace it in place.
func JobCard(job models.JobRecord, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div class="job-card job-%s" data-job-id="%s">`,
		StatusColor(job.Status), html.EscapeString(job.ID))

	fmt.Fprintf(&b, `<div class="job-head"><span class="job-icon">%s</span><span class="job-status">%s</span><span class="job-time">%s</span></div>`,
		StatusIcon(job.Status),
		html.EscapeString(string(job.Status)),
		html.EscapeString(FormatTimestamp(job.CreatedAt.Time, now)))

	fileLabel := "file"
	if job.TotalFiles != 1 {
		fileLabel = "files"
	}
	fmt.Fprintf(&b, `<div class="job-meta">%d %s</div>`, job.TotalFiles, fileLabel)

	if job.Message != "" {
		fmt.Fprintf(&b, `<div class="job-message">%s</div>`, html.EscapeString(job.Message))
	}

	// Progress bar only while the server is actually moving the job.
	if job.Status == models.StatusUploading || job.Status == models.StatusProcessing {
		pct := Percent(job.Progress)
		fmt.Fprintf(&b, `<div class="progress-track"><div class="progress-fill" style="width:%d%%"></div><span class="progress-label">%d%%</span></div>`, pct, pct)
	}

	if job.Status == models.StatusCompleted {
		fmt.Fprintf(&b, `<button class="download-btn" data-action="download" data-job-id="%s">Download CSV</button>`,
			html.EscapeString(job.ID))
	} else {
		b.WriteString(`<button class="download-btn" disabled>Download CSV</button>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}

// JobList renders the full history, sorted by creation time descending, and
// returns the card ids in display order alongside the markup.
func JobList(jobs []models.JobRecord, now time.Time) ([]string, string) {
	sorted := make([]models.JobRecord, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Time.After(sorted[j].CreatedAt.Time)
	})

	ids := make([]string, len(sorted))
	var b strings.Builder
	for i, job := range sorted {
		ids[i] = job.ID
		b.WriteString(JobCard(job, now))
	}
	return ids, b.String()
}

// SelectionList renders the chosen files with per-entry remove controls.
func SelectionList(names []string) string {
	var b strings.Builder
	for i, name := range names {
		fmt.Fprintf(&b, `<li class="selected-file"><span class="file-name">%s</span><button class="remove-btn" data-action="remove" data-index="%d">Remove</button></li>`,
			html.EscapeString(name), i)
	}
	return b.String()
}
