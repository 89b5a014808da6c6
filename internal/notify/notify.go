package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/domain"
)

// Batch is what one run hands to the channels. Filtered holds every
// qualifying job in the window, New only the ones never delivered.
type Batch struct {
	RunID      string
	Filtered   []domain.JobRecord
	New        []domain.JobRecord
	MaxAgeDays int
}

type Channel interface {
	Name() string
	Send(ctx context.Context, b Batch) error
}

// Multi delivers a batch on every channel concurrently.
type Multi struct {
	channels []Channel
	log      *slog.Logger
}

func NewMulti(log *slog.Logger, channels ...Channel) *Multi {
	if log == nil {
		log = slog.Default()
	}
	return &Multi{channels: channels, log: log}
}

func (m *Multi) Len() int { return len(m.channels) }

func (m *Multi) Names() []string {
	out := make([]string, len(m.channels))
	for i, c := range m.channels {
		out[i] = c.Name()
	}
	return out
}

// Send returns the joined errors of the channels that failed. One failing
// channel does not stop the others.
func (m *Multi) Send(ctx context.Context, b Batch) error {
	var g errgroup.Group
	errs := make([]error, len(m.channels))

	for i, c := range m.channels {
		g.Go(func() error {
			if err := c.Send(ctx, b); err != nil {
				m.log.Error("delivery failed", "channel", c.Name(), "run_id", b.RunID, "err", err)
				errs[i] = fmt.Errorf("%s: %w", c.Name(), err)
				return nil
			}
			m.log.Info("delivered", "channel", c.Name(), "run_id", b.RunID)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
