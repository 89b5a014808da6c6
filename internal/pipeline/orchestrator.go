package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobwatch-engine/internal/dedup"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape"
)

type Deps struct {
	Fetcher Fetcher
	Parser  *scrape.Parser
	Filter  scrape.Filter
	Store   *dedup.Store
	Logger  *slog.Logger

	// OnTransition, if set, sees every state change.
	OnTransition func(from, to State)
}

// Orchestrator runs fetch -> parse -> filter -> dedup. It never marks
// anything notified on its own; callers do that through Commit once
// delivery succeeded.
type Orchestrator struct {
	fetcher      Fetcher
	parser       *scrape.Parser
	filter       scrape.Filter
	store        *dedup.Store
	log          *slog.Logger
	onTransition func(from, to State)

	mu    sync.Mutex
	state State
}

func New(d Deps) *Orchestrator {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	parser := d.Parser
	if parser == nil {
		parser = scrape.NewParser("")
	}
	return &Orchestrator{
		fetcher:      d.Fetcher,
		parser:       parser,
		filter:       d.Filter,
		store:        d.Store,
		log:          log,
		onTransition: d.OnTransition,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) moveTo(next State) {
	o.mu.Lock()
	prev := o.state
	o.state = next
	o.mu.Unlock()

	if o.onTransition != nil {
		o.onTransition(prev, next)
	}
}

func (o *Orchestrator) fail(stage State, err error) error {
	o.moveTo(Failed)
	return &StageError{Stage: stage, Err: err}
}

// Run executes one pipeline pass. Format drift is not a failure: the run
// completes with no records and FormatDrift set.
func (o *Orchestrator) Run(ctx context.Context) (*ScrapeResult, error) {
	res := &ScrapeResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := o.log.With("run_id", res.RunID)

	o.mu.Lock()
	o.state = Idle
	o.mu.Unlock()

	o.moveTo(Fetching)
	doc, err := o.fetcher.Fetch(ctx)
	if err != nil {
		log.Error("fetch failed", "err", err)
		return nil, o.fail(Fetching, err)
	}

	o.moveTo(Parsing)
	if err := ctx.Err(); err != nil {
		return nil, o.fail(Parsing, err)
	}
	all, stats, err := o.parser.Parse(doc)
	switch {
	case errors.Is(err, scrape.ErrSectionNotFound):
		log.Warn("job table not found, source format may have changed",
			"reason", "section_not_found", "heading", o.parser.Heading)
		res.FormatDrift = true
	case err != nil:
		log.Error("parse failed", "err", err)
		return nil, o.fail(Parsing, err)
	default:
		log.Info("parsed jobs", "records", len(all), "rows", stats.Rows)
		if stats.Dropped > 0 {
			log.Debug("dropped malformed rows", "dropped", stats.Dropped)
		}
	}
	res.All = orEmpty(all)
	res.Stats = stats

	o.moveTo(Filtering)
	if err := ctx.Err(); err != nil {
		return nil, o.fail(Filtering, err)
	}
	res.Filtered = o.filter.Apply(res.All)
	log.Info("filtered jobs", "records", len(res.Filtered),
		"keyword", o.filter.RemoteKeyword, "max_age_days", o.filter.MaxAgeDays)

	o.moveTo(Deduping)
	if err := ctx.Err(); err != nil {
		return nil, o.fail(Deduping, err)
	}
	res.Notified = o.store.Load(ctx)
	res.New = dedup.DiffNew(res.Filtered, res.Notified)
	log.Info("new jobs", "records", len(res.New), "already_notified", len(res.Filtered)-len(res.New))

	res.FinishedAt = time.Now()
	o.moveTo(Done)
	return res, nil
}

// Commit marks records as notified and persists the set.
func (o *Orchestrator) Commit(ctx context.Context, records []domain.JobRecord, set *dedup.NotifiedSet) error {
	return o.store.MarkNotified(ctx, records, set)
}

func orEmpty(in []domain.JobRecord) []domain.JobRecord {
	if in == nil {
		return []domain.JobRecord{}
	}
	return in
}
