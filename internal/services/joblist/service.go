package joblist

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"docxtract-desktop/internal/api"
	"docxtract-desktop/internal/models"
	"docxtract-desktop/internal/render"
	"docxtract-desktop/internal/view"
)

const defaultRefreshInterval = 2 * time.Second

// Service keeps the visible job history in sync with the server. It runs on
// a fixed cadence from startup, independent of any in-flight upload, and is
// the only path by which a job enters the visible history.
//
// The snapshot cache is replaced wholesale on every successful fetch and
// never mutated in place; the monitor has no write access to it.
type Service struct {
	clients api.Source
	sink    view.Sink

	refreshInterval time.Duration
	now             func() time.Time

	cron    *cron.Cron
	entryID cron.EntryID

	mu    sync.Mutex
	cache map[string]models.JobRecord
}

// NewService creates a new Job List Synchronizer service
func NewService(clients api.Source, sink view.Sink) *Service {
	return &Service{
		clients:         clients,
		sink:            sink,
		refreshInterval: defaultRefreshInterval,
		now:             time.Now,
		cache:           make(map[string]models.JobRecord),
	}
}

// Start schedules the refresh cadence and runs the first tick immediately.
func (s *Service) Start() error {
	c := cron.New(cron.WithSeconds())

	spec := fmt.Sprintf("@every %s", s.refreshInterval)
	entryID, err := c.AddFunc(spec, s.Tick)
	if err != nil {
		return fmt.Errorf("failed to schedule job list refresh: %w", err)
	}

	s.cron = c
	s.entryID = entryID
	c.Start()
	log.Printf("Job list synchronizer started (every %s)", s.refreshInterval)

	// First paint without waiting out the first interval.
	go s.Tick()
	return nil
}

// Stop gracefully stops the refresh cadence (page teardown path).
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("Job list synchronizer stopped")
	}
}

// Snapshot returns a copy of the cached records, mainly for tests and
// debugging surfaces.
func (s *Service) Snapshot() map[string]models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.JobRecord, len(s.cache))
	for id, job := range s.cache {
		out[id] = job
	}
	return out
}

// Tick performs one reconciliation pass. Ticks are serialized: a slow fetch
// never interleaves with the next one mid-mutation.
func (s *Service) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.clients.Client().ListJobs()
	if err != nil {
		// The empty state unmounts every card, so the cache goes with it:
		// an unchanged snapshot on the next successful tick must still take
		// the full-render path instead of finding nothing to patch.
		log.Printf("WARNING: Job list refresh failed: %v", err)
		s.cache = make(map[string]models.JobRecord)
		s.sink.ShowEmptyHistory(false)
		return
	}

	if len(jobs) == 0 {
		s.cache = make(map[string]models.JobRecord)
		s.sink.ShowEmptyHistory(true)
		return
	}

	snapshot := make(map[string]models.JobRecord, len(jobs))
	for _, job := range jobs {
		snapshot[job.ID] = job
	}

	full, changed := s.classify(snapshot)

	// The new snapshot is always the latest truth, patching outcome aside.
	s.cache = snapshot

	now := s.now()
	if full {
		s.renderAll(jobs, now)
		return
	}

	for _, job := range changed {
		if err := s.sink.PatchCard(job.ID, render.JobCard(job, now)); err != nil {
			// View fell out of sync with the cache; repaint everything.
			log.Printf("WARNING: Card %s missing from view, falling back to full render", job.ID)
			s.renderAll(jobs, now)
			return
		}
	}
}

// classify compares the new snapshot against the cache and decides between a
// full re-render and a minimal set of per-card patches.
//
// Active jobs are considered changed when status, progress, or message moved;
// terminal jobs only when status moved. Progress and message are meaningless
// once terminal and must not trigger spurious patches.
func (s *Service) classify(snapshot map[string]models.JobRecord) (full bool, changed []models.JobRecord) {
	if len(snapshot) != len(s.cache) {
		return true, nil
	}
	for id := range snapshot {
		if _, ok := s.cache[id]; !ok {
			return true, nil
		}
	}

	for id, next := range snapshot {
		prev := s.cache[id]
		if next.Status.IsActive() {
			if next.Status != prev.Status || next.Progress != prev.Progress || next.Message != prev.Message {
				changed = append(changed, next)
			}
		} else if next.Status != prev.Status {
			changed = append(changed, next)
		}
	}

	// Deterministic patch order.
	sort.Slice(changed, func(i, j int) bool { return changed[i].ID < changed[j].ID })
	return false, changed
}

func (s *Service) renderAll(jobs []models.JobRecord, now time.Time) {
	ids, html := render.JobList(jobs, now)
	s.sink.RenderHistory(ids, html)
}
