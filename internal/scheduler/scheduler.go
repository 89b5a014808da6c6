package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

type Options struct {
	Spec       string // standard five-field cron expression
	Location   *time.Location
	RunOnStart bool
	Logger     *slog.Logger
}

// Cron runs a task on a cron schedule. A tick that fires while the previous
// run is still going is skipped.
type Cron struct {
	opts  Options
	sched cron.Schedule
	task  Task
	log   *slog.Logger
	c     *cron.Cron
}

func New(name string, opts Options, task Task) (*Cron, error) {
	sched, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", opts.Spec, err)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler", "task", name)

	cl := cronLogger{log}
	return &Cron{
		opts:  opts,
		sched: sched,
		task:  task,
		log:   log,
		c: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Next reports when the task fires next after t.
func (s *Cron) Next(t time.Time) time.Time {
	return s.sched.Next(t.In(s.opts.Location))
}

// Run blocks until ctx is done. Scheduled runs receive ctx, so shutting down
// cancels a run in flight.
func (s *Cron) Run(ctx context.Context) {
	s.c.Schedule(s.sched, cron.FuncJob(func() { s.runTask(ctx) }))

	if s.opts.RunOnStart {
		go s.runTask(ctx)
	}

	s.c.Start()
	s.log.Info("scheduler started",
		"cron", s.opts.Spec,
		"tz", s.opts.Location.String(),
		"next", s.Next(time.Now()).Format(time.RFC3339),
	)

	<-ctx.Done()
	<-s.c.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Cron) runTask(ctx context.Context) {
	start := time.Now()
	if err := s.task(ctx); err != nil {
		s.log.Error("task failed", "err", err, "took", time.Since(start).Round(time.Millisecond))
		return
	}
	s.log.Debug("task done", "took", time.Since(start).Round(time.Millisecond))
}

// cronLogger routes robfig/cron's internal logging into slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug(msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, append(kv, "err", err)...)
}
