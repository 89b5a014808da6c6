package main

import (
	"fmt"
	"log/slog"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/dedup"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/notify"
	"jobwatch-engine/internal/pipeline"
	"jobwatch-engine/internal/scrape"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/store"
	"jobwatch-engine/internal/watch"
)

// backend opens the notified-set storage named by cfg. The returned close
// func is never nil.
func backend(cfg config.Config) (dedup.Backend, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := store.Open(cfg.StatePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite state %s: %w", cfg.StatePath(), err)
		}
		return store.NewSQLiteNotified(db), db.Close, nil
	default:
		return store.NewJSONNotified(cfg.StatePath()), func() error { return nil }, nil
	}
}

func channels(cfg config.Config, log *slog.Logger) []notify.Channel {
	var out []notify.Channel
	if cfg.Notify.Email.Enabled {
		out = append(out, notify.NewEmail(cfg.Notify.Email, log.With("channel", "email")))
	}
	if cfg.Notify.Desktop.Enabled {
		out = append(out, notify.NewDesktop(cfg.Notify.Desktop, log.With("channel", "desktop")))
	}
	if cfg.Notify.Telegram.Enabled {
		out = append(out, notify.NewTelegram(cfg.Notify.Telegram, log.With("channel", "telegram")))
	}
	return out
}

type app struct {
	runner *watch.Runner
	hub    *events.Hub
	close  func() error
}

func build(cfg config.Config, log *slog.Logger, dryRun bool) (*app, error) {
	be, closeFn, err := backend(cfg)
	if err != nil {
		return nil, err
	}

	orch := pipeline.New(pipeline.Deps{
		Fetcher: scrape.NewFetcher(cfg.Source.URL, cfg.SourceTimeout(), util.NewHostLimiter(1.0, 2)),
		Parser:  scrape.NewParser(cfg.Source.SectionHeading),
		Filter:  scrape.NewFilter(cfg.Filters.RemoteKeyword, cfg.Filters.MaxAgeDays),
		Store:   dedup.NewStore(be, log.With("component", "dedup")),
		Logger:  log.With("component", "pipeline"),
		OnTransition: func(from, to pipeline.State) {
			log.Debug("pipeline state", "from", from.String(), "to", to.String())
		},
	})

	var notifier watch.Notifier
	if chs := channels(cfg, log.With("component", "notify")); len(chs) > 0 {
		notifier = notify.NewMulti(log.With("component", "notify"), chs...)
	}

	hub := events.NewHub()
	runner := watch.New(watch.Deps{
		Orchestrator: orch,
		Notifier:     notifier,
		Hub:          hub,
		Logger:       log,
		LockPath:     cfg.LockPath(),
		MaxAgeDays:   cfg.Filters.MaxAgeDays,
		DryRun:       dryRun,
	})
	return &app{runner: runner, hub: hub, close: closeFn}, nil
}
