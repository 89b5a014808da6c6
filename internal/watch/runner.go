package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/notify"
	"jobwatch-engine/internal/pipeline"
)

// ErrRunInProgress is returned when another run holds the guard, in this
// process or another one sharing the data dir.
var ErrRunInProgress = errors.New("run already in progress")

type Notifier interface {
	Send(ctx context.Context, b notify.Batch) error
}

type Status struct {
	RunID        string `json:"run_id"`
	State        string `json:"state"`
	LastRunAt    string `json:"last_run_at"`
	LastOkAt     string `json:"last_ok_at"`
	LastError    string `json:"last_error"`
	LastFiltered int    `json:"last_filtered"`
	LastNew      int    `json:"last_new"`
	FormatDrift  bool   `json:"format_drift"`
	Running      bool   `json:"running"`
}

type Deps struct {
	Orchestrator *pipeline.Orchestrator
	// Notifier is nil when no channel is enabled; new jobs then stay
	// unmarked so they are reported once a channel is configured.
	Notifier   Notifier
	Hub        *events.Hub
	Logger     *slog.Logger
	LockPath   string
	MaxAgeDays int
	DryRun     bool
}

// Runner performs one watch cycle: pipeline, dispatch, then commit.
type Runner struct {
	orch     *pipeline.Orchestrator
	notifier Notifier
	hub      *events.Hub
	log      *slog.Logger
	lock     *flock.Flock
	maxAge   int
	dryRun   bool

	running atomic.Bool
	status  atomic.Value // Status
	last    atomic.Pointer[pipeline.ScrapeResult]
}

func New(d Deps) *Runner {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{
		orch:     d.Orchestrator,
		notifier: d.Notifier,
		hub:      d.Hub,
		log:      log.With("component", "watch"),
		maxAge:   d.MaxAgeDays,
		dryRun:   d.DryRun,
	}
	if d.LockPath != "" {
		r.lock = flock.New(d.LockPath)
	}
	r.status.Store(Status{State: pipeline.Idle.String()})
	return r
}

func (r *Runner) Status() Status {
	st := r.status.Load().(Status)
	if st.Running {
		st.State = r.orch.State().String()
	}
	return st
}

// Last returns the most recent successful pipeline result, or nil.
func (r *Runner) Last() *pipeline.ScrapeResult { return r.last.Load() }

func (r *Runner) Running() bool { return r.running.Load() }

// Task adapts RunOnce to the scheduler. An overlapping tick is skipped.
func (r *Runner) Task(ctx context.Context) error {
	_, err := r.RunOnce(ctx)
	if errors.Is(err, ErrRunInProgress) {
		r.log.Warn("skipping run", "reason", "run_in_progress")
		return nil
	}
	return err
}

// RunOnce runs the pipeline and dispatches the result. New records are
// committed only after every channel delivered. A dispatch or commit error
// still returns the pipeline result.
func (r *Runner) RunOnce(ctx context.Context) (*pipeline.ScrapeResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	if r.lock != nil {
		ok, err := r.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				r.log.Warn("release run lock", "err", err)
			}
		}()
	}

	prev := r.status.Load().(Status)
	r.status.Store(Status{
		State:     pipeline.Fetching.String(),
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  prev.LastOkAt,
		Running:   true,
	})
	r.publish("", events.TypeRunStarted, nil)

	res, err := r.orch.Run(ctx)
	if err != nil {
		r.finish("", err, nil)
		return nil, err
	}
	r.last.Store(res)
	log := r.log.With("run_id", res.RunID)

	if r.dryRun {
		log.Info("dry run, not notifying", "filtered", len(res.Filtered), "new", len(res.New))
		r.finish(res.RunID, nil, res)
		return res, nil
	}

	for _, j := range res.New {
		r.publish(res.RunID, events.TypeJobNew, j)
	}

	if r.notifier == nil {
		log.Warn("no notification channel enabled, new jobs left unmarked", "new", len(res.New))
		r.finish(res.RunID, nil, res)
		return res, nil
	}

	batch := notify.Batch{
		RunID:      res.RunID,
		Filtered:   res.Filtered,
		New:        res.New,
		MaxAgeDays: r.maxAge,
	}
	if err := r.notifier.Send(ctx, batch); err != nil {
		err = fmt.Errorf("dispatch: %w", err)
		r.finish(res.RunID, err, res)
		return res, err
	}

	if err := r.orch.Commit(ctx, res.New, res.Notified); err != nil {
		err = fmt.Errorf("commit: %w", err)
		r.finish(res.RunID, err, res)
		return res, err
	}
	log.Info("run complete", "filtered", len(res.Filtered), "new", len(res.New), "notified_total", res.Notified.Len())

	r.finish(res.RunID, nil, res)
	return res, nil
}

func (r *Runner) finish(runID string, err error, res *pipeline.ScrapeResult) {
	now := time.Now().Format(time.RFC3339)
	next := r.status.Load().(Status)
	next.RunID = runID
	next.Running = false
	next.State = r.orch.State().String()
	if res != nil {
		next.LastFiltered = len(res.Filtered)
		next.LastNew = len(res.New)
		next.FormatDrift = res.FormatDrift
	}
	if err != nil {
		next.LastError = err.Error()
		r.publish(runID, events.TypeRunFailed, map[string]string{"error": err.Error()})
	} else {
		next.LastError = ""
		next.LastOkAt = now
		r.publish(runID, events.TypeRunFinished, map[string]int{
			"filtered": next.LastFiltered,
			"new":      next.LastNew,
		})
	}
	r.status.Store(next)
}

func (r *Runner) publish(runID, typ string, data any) {
	if r.hub == nil {
		return
	}
	r.hub.Emit(runID, typ, data)
}
