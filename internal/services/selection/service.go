package selection

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"docxtract-desktop/internal/render"
	"docxtract-desktop/internal/view"
)

// ErrNoValidFiles signals that nothing in an Add call carried the recognized
// document extension. The selection is left untouched; the caller surfaces
// the notice.
var ErrNoValidFiles = errors.New("no valid files selected")

// validExtension is the only document type the extractor accepts.
const validExtension = ".pdf"

// Service holds the set of files chosen for the next upload. The set lives
// from user interaction until submission or clearing; the only partial
// mutation allowed is single-entry removal.
type Service struct {
	sink  view.Sink
	mu    sync.Mutex
	paths []string
}

// NewService creates a new Selection service
func NewService(sink view.Sink) *Service {
	return &Service{sink: sink}
}

// Add filters the given paths down to recognized documents and appends them.
// Returns ErrNoValidFiles (with no state change) when nothing survives the
// filter.
func (s *Service) Add(paths []string) error {
	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.HasSuffix(strings.ToLower(filepath.Base(path)), validExtension) {
			valid = append(valid, path)
		}
	}

	if len(valid) == 0 {
		return ErrNoValidFiles
	}

	s.mu.Lock()
	s.paths = append(s.paths, valid...)
	s.mu.Unlock()

	log.Printf("Selection: added %d of %d file(s)", len(valid), len(paths))
	s.rerender()
	return nil
}

// Remove deletes exactly one entry. An out-of-range index is a caller bug;
// it is reported as an error here only because the index crosses the
// frontend boundary.
func (s *Service) Remove(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.paths) {
		s.mu.Unlock()
		return fmt.Errorf("selection index out of range: %d", index)
	}
	s.paths = append(s.paths[:index], s.paths[index+1:]...)
	s.mu.Unlock()

	s.rerender()
	return nil
}

// Clear empties the selection atomically. The frontend resets its native
// file input on the resulting render so the same file can be re-selected.
func (s *Service) Clear() {
	s.mu.Lock()
	s.paths = nil
	s.mu.Unlock()

	s.rerender()
}

// Paths returns a copy of the selected file paths in selection order.
func (s *Service) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Names returns the base names of the selected files in selection order.
func (s *Service) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.paths))
	for i, path := range s.paths {
		names[i] = filepath.Base(path)
	}
	return names
}

// Count returns the number of selected files.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// rerender pushes the current selection to the view; a zero count hides the
// action controls.
func (s *Service) rerender() {
	names := s.Names()
	s.sink.RenderSelection(render.SelectionList(names), len(names))
}
