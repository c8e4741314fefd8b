package monitor

import (
	"errors"
	"log"
	"sync"
	"time"

	"docxtract-desktop/internal/api"
	"docxtract-desktop/internal/models"
	"docxtract-desktop/internal/render"
	"docxtract-desktop/internal/view"
)

// Monitor states. watching polls, settling holds the terminal status on
// screen, stopped is final.
const (
	StateIdle     = "idle"
	StateWatching = "watching"
	StateSettling = "settling"
	StateStopped  = "stopped"
)

const (
	defaultPollInterval   = time.Second
	defaultSettleDelay    = 2 * time.Second
	defaultErrorThreshold = 3
)

// ErrRetriesExhausted marks a monitor teardown caused by the consecutive
// poll-error budget running out.
var ErrRetriesExhausted = errors.New("consecutive status polls exhausted")

// Service watches a single just-submitted job at high frequency until it
// reaches a terminal state or monitoring is abandoned. At most one job is
// watched at a time. The monitor drives only the transient progress surface;
// it never writes into the job-list cache.
type Service struct {
	clients api.Source
	sink    view.Sink

	pollInterval   time.Duration
	settleDelay    time.Duration
	errorThreshold int

	// onTerminal fires once when a watched job reaches completed/failed.
	onTerminal func(jobID string, status models.JobStatus)
	// onRevert fires whenever the view is reset to selecting.
	onRevert func()

	mu    sync.Mutex
	state string
	jobID string
	stop  chan struct{}
	done  chan struct{}
}

// NewService creates a new Monitor service
func NewService(clients api.Source, sink view.Sink) *Service {
	return &Service{
		clients:        clients,
		sink:           sink,
		pollInterval:   defaultPollInterval,
		settleDelay:    defaultSettleDelay,
		errorThreshold: defaultErrorThreshold,
		state:          StateIdle,
	}
}

// SetOnTerminal registers the terminal-outcome hook (used by the audit
// trail). Must be called before Start.
func (s *Service) SetOnTerminal(fn func(jobID string, status models.JobStatus)) {
	s.onTerminal = fn
}

// SetOnRevert registers the view-reset hook (used to clear the selection on
// terminal-job reset). Must be called before Start.
func (s *Service) SetOnRevert(fn func()) {
	s.onRevert = fn
}

// Start begins watching the given job. A monitor that is already running is
// torn down first; the upload flow cannot produce overlap, but a leaked
// polling goroutine must never survive a restart.
func (s *Service) Start(jobID string) {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.state = StateWatching
	s.jobID = jobID
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done
	s.mu.Unlock()

	log.Printf("Monitor: watching job %s", jobID)
	go s.run(jobID, stop, done)
}

// Stop cancels monitoring without touching the view (app teardown path).
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.state = StateStopped
	s.mu.Unlock()
}

// State returns the current monitor state.
func (s *Service) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// JobID returns the id of the job currently held by the monitor, if any.
func (s *Service) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// run is the polling loop for one watched job. It owns the 1s ticker, the
// consecutive-error counter, and the one-shot settle timer.
func (s *Service) run(jobID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	errCount := 0
	var settleCh <-chan time.Time

	finish := func(revert bool) { s.finish(jobID, stop, revert) }

	for {
		select {
		case <-stop:
			return

		case <-settleCh:
			// Settle delay elapsed: the terminal status has been visible
			// long enough; reset the view.
			finish(true)
			return

		case <-ticker.C:
			if settleCh != nil {
				// Settling: the timer keeps ticking but no further status
				// requests go out, so the job cannot re-enter watching.
				continue
			}

			record, err := s.clients.Client().JobStatus(jobID)
			switch {
			case errors.Is(err, api.ErrJobNotFound):
				// Unknown job id is unrecoverable, not transient: tear down
				// immediately, no settle delay.
				log.Printf("WARNING: Monitor: job %s not found, stopping", jobID)
				finish(true)
				return

			case err != nil:
				errCount++
				log.Printf("WARNING: Monitor: status poll %d/%d for job %s failed: %v",
					errCount, s.errorThreshold, jobID, err)
				if errCount >= s.errorThreshold {
					log.Printf("ERROR: Monitor: %v for job %s", ErrRetriesExhausted, jobID)
					s.sink.Notify(view.NoticeError,
						"Lost connection to the server while tracking your job. It may still complete; check the history list.")
					finish(true)
					return
				}
				// Below the threshold errors are absorbed silently; the
				// displayed status stays as it was.

			default:
				errCount = 0
				s.sink.ShowMonitorProgress(view.MonitorProgress{
					JobID:   record.ID,
					Status:  string(record.Status),
					Message: record.Message,
					Percent: render.Percent(record.Progress),
				})

				if record.Status.IsTerminal() {
					s.mu.Lock()
					s.state = StateSettling
					s.mu.Unlock()
					log.Printf("Monitor: job %s reached %s, settling", jobID, record.Status)
					if s.onTerminal != nil {
						s.onTerminal(jobID, record.Status)
					}
					settleCh = time.After(s.settleDelay)
				}
			}
		}
	}
}

// finish moves the monitor to stopped and, when revert is set, returns the
// view to the selecting state. The stop channel identifies the run so a
// finishing loop cannot clobber the state of a newer Start.
func (s *Service) finish(jobID string, stop <-chan struct{}, revert bool) {
	s.mu.Lock()
	if s.stop != nil && (<-chan struct{})(s.stop) != stop {
		// A newer run already took over; leave its state alone.
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	s.jobID = ""
	s.stop = nil
	s.mu.Unlock()

	if revert {
		s.sink.ShowState(view.StateSelecting)
		if s.onRevert != nil {
			s.onRevert()
		}
	}
	log.Printf("Monitor: stopped watching job %s", jobID)
}
