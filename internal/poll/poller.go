package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/scheduler"
	"jobapply-engine/internal/scrape/types"
)

// ErrBusy is returned when a pass is already in flight.
var ErrBusy = errors.New("a run is already in progress")

// Publisher receives encoded run events.
type Publisher interface {
	Publish(evt string)
}

// Poller owns the single-flight guard and the status served over HTTP.
type Poller struct {
	Runner *Runner
	Status *atomic.Value // types.ScrapeStatus
	Events Publisher     // nil disables events
	Log    *slog.Logger

	mu sync.Mutex
}

func NewPoller(r *Runner, status *atomic.Value, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	if status == nil {
		status = &atomic.Value{}
	}
	if status.Load() == nil {
		status.Store(types.ScrapeStatus{})
	}
	return &Poller{Runner: r, Status: status, Log: log}
}

// Start blocks, running a pass every interval until ctx is done.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	scheduler.Every(ctx, interval, "poll", func(ctx context.Context) error {
		sum, err := p.RunNow(ctx)
		if err != nil {
			return err
		}
		if sum.Errors > 0 {
			return fmt.Errorf("run %s finished with %d errors", sum.RunID, sum.Errors)
		}
		return nil
	}, p.Log)
}

// RunNow runs one pass synchronously unless one is already running.
func (p *Poller) RunNow(ctx context.Context) (domain.RunSummary, error) {
	if !p.mu.TryLock() {
		return domain.RunSummary{}, ErrBusy
	}
	defer p.mu.Unlock()
	return p.run(ctx), nil
}

// Kick starts a pass in the background. It reports false when one is
// already running.
func (p *Poller) Kick(ctx context.Context) bool {
	if !p.mu.TryLock() {
		return false
	}
	go func() {
		defer p.mu.Unlock()
		p.run(ctx)
	}()
	return true
}

func (p *Poller) CurrentStatus() types.ScrapeStatus {
	st, _ := p.Status.Load().(types.ScrapeStatus)
	return st
}

func (p *Poller) run(ctx context.Context) domain.RunSummary {
	// Mark running
	st := p.CurrentStatus()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.Status.Store(st)
	p.publish(events.TypeRunStarted, "", nil)

	sum := p.Runner.RunOnce(ctx)

	// Update status
	st = p.CurrentStatus()
	st.Running = false
	st.LastRunID = sum.RunID
	st.LastLeads = sum.Extracted
	st.LastEmailed = sum.EmailsSent

	switch {
	case sum.CommitError != "":
		st.LastError = sum.CommitError
	case sum.Errors > 0:
		st.LastError = fmt.Sprintf("%d errors, see automation.log", sum.Errors)
	default:
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	p.Status.Store(st)

	p.publish(events.TypeRunFinished, sum.RunID, sum)

	p.Log.Info("[poll] run finished", "run_id", sum.RunID, "leads", sum.Extracted, "emailed", sum.EmailsSent, "errors", sum.Errors)
	return sum
}

func (p *Poller) publish(typ, runID string, data any) {
	if p.Events != nil {
		p.Events.Publish(events.Encode(typ, runID, data))
	}
}
