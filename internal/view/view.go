// Package view is the patching layer between the Go services and the
// rendered frontend. Services hand it pre-rendered fragments; it decides
// nothing about markup and only routes full renders, per-card patches, and
// notices to whatever surface is attached.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// View states the application toggles between. "selecting" shows the file
// picker, "processing" shows the transient monitor surface.
const (
	StateSelecting  = "selecting"
	StateProcessing = "processing"
)

// Notice levels for user-visible messages.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// ErrCardNotMounted is returned by PatchCard when the target card is not in
// the live history view. The synchronizer treats it as "view fell out of
// sync" and falls back to a full re-render.
var ErrCardNotMounted = errors.New("card not mounted")

// MonitorProgress is the transient progress payload for the job being
// actively watched. It never feeds the history cards.
type MonitorProgress struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// Sink is the surface every service renders into. Exactly one sink exists
// per application; app.go constructs it and passes it by reference.
type Sink interface {
	// ShowState switches the main view between selecting and processing.
	ShowState(state string)
	// RenderSelection replaces the selection list; count 0 hides the action
	// controls.
	RenderSelection(html string, count int)
	// ShowMonitorProgress updates the transient progress surface.
	ShowMonitorProgress(p MonitorProgress)
	// RenderHistory replaces the whole visible job list. ids are the card
	// ids now mounted, in display order.
	RenderHistory(ids []string, html string)
	// PatchCard replaces a single mounted card in place.
	PatchCard(id, html string) error
	// ShowEmptyHistory clears the list. authoritative distinguishes "server
	// says no jobs" from "could not reach the server this tick".
	ShowEmptyHistory(authoritative bool)
	// Notify surfaces a user-visible notice.
	Notify(level, message string)
}

// WailsSink emits view events to the embedded frontend and tracks which
// history cards are mounted so patch misses are detected on the Go side.
type WailsSink struct {
	ctx     context.Context
	mu      sync.Mutex
	mounted map[string]bool
}

// NewWailsSink creates a sink bound to the Wails runtime context.
func NewWailsSink(ctx context.Context) *WailsSink {
	return &WailsSink{
		ctx:     ctx,
		mounted: make(map[string]bool),
	}
}

func (s *WailsSink) ShowState(state string) {
	runtime.EventsEmit(s.ctx, "view:state", state)
}

func (s *WailsSink) RenderSelection(html string, count int) {
	runtime.EventsEmit(s.ctx, "selection:render", map[string]interface{}{
		"html":  html,
		"count": count,
	})
}

func (s *WailsSink) ShowMonitorProgress(p MonitorProgress) {
	runtime.EventsEmit(s.ctx, "monitor:progress", p)
}

func (s *WailsSink) RenderHistory(ids []string, html string) {
	s.mu.Lock()
	s.mounted = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.mounted[id] = true
	}
	s.mu.Unlock()

	runtime.EventsEmit(s.ctx, "history:render", map[string]interface{}{
		"ids":  ids,
		"html": html,
	})
}

func (s *WailsSink) PatchCard(id, html string) error {
	s.mu.Lock()
	ok := s.mounted[id]
	s.mu.Unlock()
	if !ok {
		return ErrCardNotMounted
	}

	runtime.EventsEmit(s.ctx, "history:patch", map[string]interface{}{
		"id":   id,
		"html": html,
	})
	return nil
}

func (s *WailsSink) ShowEmptyHistory(authoritative bool) {
	s.mu.Lock()
	s.mounted = make(map[string]bool)
	s.mu.Unlock()

	runtime.EventsEmit(s.ctx, "history:empty", map[string]interface{}{
		"authoritative": authoritative,
	})
}

func (s *WailsSink) Notify(level, message string) {
	runtime.EventsEmit(s.ctx, "app:notice", map[string]interface{}{
		"level":   level,
		"message": message,
	})
}
