package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobwatch-engine/internal/config"

	"github.com/gen2brain/beeep"
	"golang.org/x/time/rate"
)

const (
	defaultStagger          = 2 * time.Second
	defaultSummaryThreshold = 5
)

// Desktop raises one OS notification per new job, spaced out so they do not
// pile up on screen.
type Desktop struct {
	stagger   time.Duration
	threshold int
	log       *slog.Logger
	alert     func(title, message string) error
}

func NewDesktop(cfg config.DesktopConfig, log *slog.Logger) *Desktop {
	if log == nil {
		log = slog.Default()
	}
	stagger := time.Duration(cfg.StaggerSeconds) * time.Second
	if cfg.StaggerSeconds == 0 {
		stagger = defaultStagger
	}
	if stagger < 0 {
		stagger = 0
	}
	threshold := cfg.SummaryThreshold
	if threshold <= 0 {
		threshold = defaultSummaryThreshold
	}
	return &Desktop{
		stagger:   stagger,
		threshold: threshold,
		log:       log,
		alert: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (d *Desktop) Name() string { return "desktop" }

func (d *Desktop) Send(ctx context.Context, b Batch) error {
	if len(b.New) == 0 {
		d.log.Info("no new jobs", "run_id", b.RunID)
		return nil
	}

	lim := rate.NewLimiter(rate.Inf, 1)
	if d.stagger > 0 {
		lim = rate.NewLimiter(rate.Every(d.stagger), 1)
	}

	if len(b.New) > d.threshold {
		title := fmt.Sprintf("%d New Remote Jobs Found!", len(b.New))
		msg := fmt.Sprintf("Found %d new remote positions posted in the last %d days", len(b.New), b.MaxAgeDays)
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		if err := d.alert(title, msg); err != nil {
			return fmt.Errorf("summary alert: %w", err)
		}
	}

	for i, j := range b.New {
		d.log.Info("new job",
			"run_id", b.RunID,
			"n", i+1,
			"company", j.Company,
			"role", j.Role,
			"location", j.Location,
			"age", j.AgeToken,
		)
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		title := "New Remote Job: " + j.Company
		msg := fmt.Sprintf("%s\n%s\nPosted %s ago", j.Role, j.Location, j.AgeToken)
		if err := d.alert(title, msg); err != nil {
			return fmt.Errorf("alert %d: %w", i+1, err)
		}
	}
	return nil
}
