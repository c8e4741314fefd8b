package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docxtract-desktop/internal/view"
)

type fakeSink struct {
	mu          sync.Mutex
	renderCount int
	lastCount   int
	lastHTML    string
}

func (f *fakeSink) ShowState(string)                         {}
func (f *fakeSink) ShowMonitorProgress(view.MonitorProgress) {}
func (f *fakeSink) RenderHistory([]string, string)           {}
func (f *fakeSink) PatchCard(string, string) error           { return nil }
func (f *fakeSink) ShowEmptyHistory(bool)                    {}
func (f *fakeSink) Notify(string, string)                    {}

func (f *fakeSink) RenderSelection(html string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderCount++
	f.lastCount = count
	f.lastHTML = html
}

func TestAdd(t *testing.T) {
	t.Run("Should keep only recognized documents", func(t *testing.T) {
		sink := &fakeSink{}
		svc := NewService(sink)

		err := svc.Add([]string{
			"/tmp/report.pdf",
			"/tmp/notes.txt",
			"/tmp/SCAN.PDF",
			"/tmp/archive.zip",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"report.pdf", "SCAN.PDF"}, svc.Names())
		assert.Equal(t, 2, sink.lastCount)
	})

	t.Run("Should reject a batch with no valid files and keep state", func(t *testing.T) {
		sink := &fakeSink{}
		svc := NewService(sink)
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf"}))
		rendersBefore := sink.renderCount

		err := svc.Add([]string{"/tmp/b.txt", "/tmp/c.docx"})
		assert.ErrorIs(t, err, ErrNoValidFiles)
		assert.Equal(t, []string{"a.pdf"}, svc.Names())
		assert.Equal(t, rendersBefore, sink.renderCount, "rejected batch must not re-render")
	})

	t.Run("Should append across successive adds", func(t *testing.T) {
		svc := NewService(&fakeSink{})
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf"}))
		require.NoError(t, svc.Add([]string{"/tmp/b.pdf"}))
		assert.Equal(t, []string{"a.pdf", "b.pdf"}, svc.Names())
	})
}

func TestRemove(t *testing.T) {
	t.Run("Should remove exactly one entry by index", func(t *testing.T) {
		sink := &fakeSink{}
		svc := NewService(sink)
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf", "/tmp/b.pdf", "/tmp/c.pdf"}))

		require.NoError(t, svc.Remove(1))
		assert.Equal(t, []string{"a.pdf", "c.pdf"}, svc.Names())
		assert.Equal(t, 2, sink.lastCount)
	})

	t.Run("Should fail on an out-of-range index", func(t *testing.T) {
		svc := NewService(&fakeSink{})
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf"}))

		assert.Error(t, svc.Remove(5))
		assert.Error(t, svc.Remove(-1))
		assert.Equal(t, 1, svc.Count())
	})
}

func TestClear(t *testing.T) {
	t.Run("Should empty the selection and render a zero count", func(t *testing.T) {
		sink := &fakeSink{}
		svc := NewService(sink)
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf", "/tmp/b.pdf"}))

		svc.Clear()
		assert.Zero(t, svc.Count())
		assert.Zero(t, sink.lastCount)
		assert.Empty(t, sink.lastHTML)
	})
}

func TestPaths(t *testing.T) {
	t.Run("Should return a copy, not the backing slice", func(t *testing.T) {
		svc := NewService(&fakeSink{})
		require.NoError(t, svc.Add([]string{"/tmp/a.pdf"}))

		paths := svc.Paths()
		paths[0] = "mutated"
		assert.Equal(t, []string{"/tmp/a.pdf"}, svc.Paths())
	})
}
