package upload

import (
	"fmt"
	"log"

	"docxtract-desktop/internal/api"
	"docxtract-desktop/internal/services/audit"
	"docxtract-desktop/internal/services/monitor"
	"docxtract-desktop/internal/services/selection"
	"docxtract-desktop/internal/view"
)

// Service drives the submission flow: take the current selection, push it to
// the server, and hand the returned job to the monitor. The view switches to
// processing before the request goes out and reverts on failure.
type Service struct {
	clients   api.Source
	sink      view.Sink
	selection *selection.Service
	monitor   *monitor.Service
	audit     *audit.Service
}

// NewService creates a new Upload service
func NewService(clients api.Source, sink view.Sink, sel *selection.Service, mon *monitor.Service, aud *audit.Service) *Service {
	return &Service{
		clients:   clients,
		sink:      sink,
		selection: sel,
		monitor:   mon,
		audit:     aud,
	}
}

// Submit uploads the current selection. An empty selection is a silent no-op;
// the submit control should not be reachable then, but a stale click must not
// produce a request.
func (s *Service) Submit() error {
	paths := s.selection.Paths()
	if len(paths) == 0 {
		return nil
	}

	// The selection is consumed at submission time, success or not; a failed
	// upload requires a fresh selection.
	s.selection.Clear()

	s.sink.ShowState(view.StateProcessing)
	s.sink.ShowMonitorProgress(view.MonitorProgress{
		Status:  "uploading",
		Message: fmt.Sprintf("Uploading %d file(s)...", len(paths)),
	})

	resp, err := s.clients.Client().Upload(paths)
	if err != nil {
		log.Printf("ERROR: Upload of %d file(s) failed: %v", len(paths), err)
		s.sink.Notify(view.NoticeError, fmt.Sprintf("Upload failed: %v", err))
		s.sink.ShowState(view.StateSelecting)
		return err
	}

	log.Printf("Upload accepted: job %s (%d files)", resp.JobID, resp.FileCount)
	s.audit.RecordUpload(resp.JobID, resp.FileCount)

	// The job list picks the new job up on its own cadence while the monitor
	// tracks it closely.
	s.monitor.Start(resp.JobID)
	return nil
}
