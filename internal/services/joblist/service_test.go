package joblist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docxtract-desktop/internal/api"
	"docxtract-desktop/internal/models"
	"docxtract-desktop/internal/view"
)

// historySink mirrors the mounted-card tracking of the real sink so
// patch-miss handling is exercised the same way.
type historySink struct {
	mu          sync.Mutex
	fullRenders int
	lastIDs     []string
	patches     []string
	empties     []bool
	mounted     map[string]bool
}

func newHistorySink() *historySink {
	return &historySink{mounted: make(map[string]bool)}
}

func (h *historySink) ShowState(string)                         {}
func (h *historySink) RenderSelection(string, int)              {}
func (h *historySink) ShowMonitorProgress(view.MonitorProgress) {}
func (h *historySink) Notify(string, string)                    {}

func (h *historySink) RenderHistory(ids []string, html string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fullRenders++
	h.lastIDs = ids
	h.mounted = make(map[string]bool, len(ids))
	for _, id := range ids {
		h.mounted[id] = true
	}
}

func (h *historySink) PatchCard(id, html string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.mounted[id] {
		return view.ErrCardNotMounted
	}
	h.patches = append(h.patches, id)
	return nil
}

func (h *historySink) ShowEmptyHistory(authoritative bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.empties = append(h.empties, authoritative)
	h.mounted = make(map[string]bool)
}

func (h *historySink) unmount(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.mounted, id)
}

// jobServer serves a mutable job list over httptest.
type jobServer struct {
	mu   sync.Mutex
	jobs []models.JobRecord
	fail bool
}

func (j *jobServer) set(jobs ...models.JobRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs = jobs
	j.fail = false
}

func (j *jobServer) failNext() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fail = true
}

func (j *jobServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j.mu.Lock()
		defer j.mu.Unlock()
		if j.fail {
			j.fail = false
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"jobs": j.jobs})
	}
}

func job(id string, status models.JobStatus, progress float64, message string) models.JobRecord {
	return models.JobRecord{
		ID:        id,
		Status:    status,
		Progress:  progress,
		Message:   message,
		CreatedAt: models.Timestamp{Time: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)},
	}
}

func newTestService(t *testing.T, server *jobServer, sink *historySink) *Service {
	t.Helper()
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	svc := NewService(api.StaticSource{C: api.NewClient(ts.URL, "")}, sink)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 5, 0, 0, time.UTC) }
	return svc
}

func TestTickFullRender(t *testing.T) {
	t.Run("Should render the full list on first sight of any job", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusProcessing, 0.2, "working"))
		svc.Tick()
		assert.Equal(t, 1, sink.fullRenders)
		assert.Equal(t, []string{"a"}, sink.lastIDs)

		// A new id forces a full render even though "a" also changed.
		server.set(
			job("a", models.StatusProcessing, 0.6, "working"),
			job("b", models.StatusPending, 0, "queued"),
		)
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
		assert.Empty(t, sink.patches)
	})

	t.Run("Should render fully when a job disappears", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(
			job("a", models.StatusCompleted, 1, "done"),
			job("b", models.StatusPending, 0, "queued"),
		)
		svc.Tick()

		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
	})
}

func TestTickPatching(t *testing.T) {
	t.Run("Should patch exactly the changed active cards", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(
			job("a", models.StatusProcessing, 0.2, "working"),
			job("b", models.StatusCompleted, 1, "done"),
		)
		svc.Tick()
		require.Equal(t, 1, sink.fullRenders)

		server.set(
			job("a", models.StatusProcessing, 0.4, "working"),
			job("b", models.StatusCompleted, 1, "done"),
		)
		svc.Tick()
		assert.Equal(t, 1, sink.fullRenders, "same ids must not trigger a full render")
		assert.Equal(t, []string{"a"}, sink.patches)
	})

	t.Run("Should patch on message-only changes for active jobs", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusPending, 0, "queued"))
		svc.Tick()

		server.set(job("a", models.StatusPending, 0, "queued behind 2 jobs"))
		svc.Tick()
		assert.Equal(t, []string{"a"}, sink.patches)
	})

	t.Run("Should patch one card out of many and repaint only when an id appears", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		five := []models.JobRecord{
			job("j1", models.StatusCompleted, 1, "done"),
			job("j2", models.StatusFailed, 0, "boom"),
			job("j3", models.StatusPending, 0, "queued"),
			job("j4", models.StatusCompleted, 1, "done"),
			job("j5", models.StatusProcessing, 0.5, "working"),
		}
		server.set(five...)
		svc.Tick()
		require.Equal(t, 1, sink.fullRenders)

		changed := append([]models.JobRecord(nil), five...)
		changed[2] = job("j3", models.StatusPending, 0, "queued behind 1 job")
		server.set(changed...)
		svc.Tick()
		assert.Equal(t, 1, sink.fullRenders)
		assert.Equal(t, []string{"j3"}, sink.patches)

		server.set(append(changed, job("j6", models.StatusPending, 0, "queued"))...)
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
		assert.Equal(t, []string{"j3"}, sink.patches)
	})

	t.Run("Should ignore message and progress drift on terminal jobs", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusFailed, 0.7, "boom"))
		svc.Tick()

		server.set(job("a", models.StatusFailed, 0.9, "boom, retried"))
		svc.Tick()
		assert.Empty(t, sink.patches)
		assert.Equal(t, 1, sink.fullRenders)
	})

	t.Run("Should still patch a terminal status transition", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusProcessing, 0.9, "almost"))
		svc.Tick()

		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		assert.Equal(t, []string{"a"}, sink.patches)

		// The cache kept the terminal snapshot; nothing further to patch.
		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		assert.Equal(t, []string{"a"}, sink.patches)
	})

	t.Run("Should fall back to a full render when a patch misses", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(
			job("a", models.StatusProcessing, 0.2, "working"),
			job("b", models.StatusPending, 0, "queued"),
		)
		svc.Tick()
		sink.unmount("a")

		server.set(
			job("a", models.StatusProcessing, 0.4, "working"),
			job("b", models.StatusPending, 0, "queued"),
		)
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
		assert.Empty(t, sink.patches)
	})
}

func TestTickStatusSkips(t *testing.T) {
	t.Run("Should miss nothing when a job completes between ticks", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusPending, 0, "queued"))
		svc.Tick()

		// pending straight to completed, skipping uploading/processing.
		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		assert.Equal(t, []string{"a"}, sink.patches)

		snap := svc.Snapshot()
		assert.Equal(t, models.StatusCompleted, snap["a"].Status)
	})
}

func TestTickEmptyAndFailure(t *testing.T) {
	t.Run("Should show the authoritative empty state and reset the cache", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()

		server.set()
		svc.Tick()
		require.Len(t, sink.empties, 1)
		assert.True(t, sink.empties[0])
		assert.Empty(t, svc.Snapshot())
	})

	t.Run("Should drop the cache with the cleared view on a failed fetch", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusProcessing, 0.5, "working"))
		svc.Tick()

		server.failNext()
		svc.Tick()
		require.Len(t, sink.empties, 1)
		assert.False(t, sink.empties[0], "a failed fetch is not an authoritative empty list")
		assert.Empty(t, svc.Snapshot())

		server.set(job("a", models.StatusProcessing, 0.7, "working"))
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
	})

	t.Run("Should repaint after a failed fetch even when nothing changed", func(t *testing.T) {
		server := &jobServer{}
		sink := newHistorySink()
		svc := newTestService(t, server, sink)

		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		require.Equal(t, 1, sink.fullRenders)

		server.failNext()
		svc.Tick()

		// Identical snapshot afterwards: no job changed, but the failed tick
		// cleared the view, so the list must be rebuilt in full.
		server.set(job("a", models.StatusCompleted, 1, "done"))
		svc.Tick()
		assert.Equal(t, 2, sink.fullRenders)
		assert.Empty(t, sink.patches)
	})
}
