package pipeline

import (
	"context"
	"fmt"
	"time"

	"jobwatch-engine/internal/dedup"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape"
)

type State int

const (
	Idle State = iota
	Fetching
	Parsing
	Filtering
	Deduping
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Parsing:
		return "parsing"
	case Filtering:
		return "filtering"
	case Deduping:
		return "deduping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Fetcher supplies the full source document.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// ScrapeResult is everything one run produced. Notified is the set loaded
// at the start of the run; pass it to Commit after delivery.
type ScrapeResult struct {
	RunID       string
	All         []domain.JobRecord
	Filtered    []domain.JobRecord
	New         []domain.JobRecord
	Notified    *dedup.NotifiedSet
	Stats       scrape.ParseStats
	FormatDrift bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// StageError is the failure of one stage. Later stages did not run.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string { return e.Stage.String() + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }
