package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/httpapi"
	"jobwatch-engine/internal/logging"
	"jobwatch-engine/internal/notify"
	"jobwatch-engine/internal/pipeline"
	"jobwatch-engine/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		once      = flag.Bool("once", false, "run once and exit")
		dryRun    = flag.Bool("dry-run", false, "print results without notifying or marking jobs notified")
		testEmail = flag.Bool("test-email", false, "verify the SMTP settings and exit")
		dataDir   = flag.String("data-dir", "", "directory for config and state (default $"+config.EnvDataDir+" or .)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [cron expression]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 2
	}

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv(config.EnvDataDir)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "data dir: %v\n", err)
		return 2
	}

	cfgPath, err := config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config bootstrap failed: %v\n", err)
		return 2
	}
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return cfg, err
		}
		cfg.App.DataDir = dir
		if err := config.ApplyEnv(&cfg); err != nil {
			return cfg, err
		}
		if flag.NArg() > 0 {
			cfg.Schedule.Cron = flag.Arg(0)
		}
		return cfg, nil
	}
	raw, err := loadCfg()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed (%s): %v\n", cfgPath, err)
		return 2
	}
	cfg, vr := config.NormalizeAndValidate(raw)

	log := logging.New(cfg.Logging.Level)
	slog.SetDefault(log)
	for _, w := range vr.Warnings {
		log.Warn("config", "warning", w)
	}
	if !vr.OK() {
		for _, e := range vr.Errors {
			log.Error("config", "error", e)
		}
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *testEmail {
		return verifyEmail(ctx, cfg, log)
	}

	a, err := build(cfg, log, *dryRun)
	if err != nil {
		log.Error("startup failed", "err", err)
		return 1
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Warn("close state", "err", err)
		}
	}()

	if *once || *dryRun {
		res, err := a.runner.RunOnce(ctx)
		if res != nil && *dryRun {
			printResult(res)
		}
		if err != nil {
			log.Error("run failed", "err", err)
			return 1
		}
		return 0
	}

	loc, _ := cfg.Location()
	sched, err := scheduler.New("watch", scheduler.Options{
		Spec:       cfg.Schedule.Cron,
		Location:   loc,
		RunOnStart: cfg.Schedule.RunOnStart,
		Logger:     log,
	}, a.runner.Task)
	if err != nil {
		log.Error("schedule", "err", err)
		return 2
	}

	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	if cfg.App.Port > 0 {
		deps := httpapi.Deps{
			Runner:      a.runner,
			Hub:         a.hub,
			Logger:      log.With("component", "httpapi"),
			BaseCtx:     gctx,
			CfgVal:      &cfgVal,
			UserCfgPath: cfgPath,
			LoadCfg:     loadCfg,
		}
		g.Go(func() error {
			return httpapi.Serve(gctx, cfg.App.Port, httpapi.Handler(deps), deps.Logger)
		})
	}

	log.Info("watcher started",
		"source", cfg.Source.URL,
		"cron", cfg.Schedule.Cron,
		"tz", cfg.Schedule.Timezone,
		"state", cfg.StatePath(),
		"max_age_days", cfg.Filters.MaxAgeDays,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("watcher stopped", "err", err)
		return 1
	}
	log.Info("watcher stopped")
	return 0
}

func verifyEmail(ctx context.Context, cfg config.Config, log *slog.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	e := notify.NewEmail(cfg.Notify.Email, log.With("channel", "email"))
	if err := e.Verify(ctx); err != nil {
		log.Error("email check failed", "host", cfg.Notify.Email.SMTPHost, "err", err)
		return 1
	}
	log.Info("email check passed", "host", cfg.Notify.Email.SMTPHost, "user", cfg.Notify.Email.Username)
	return 0
}

func printResult(res *pipeline.ScrapeResult) {
	fmt.Printf("run %s: %d parsed, %d remote in window, %d new\n",
		res.RunID, len(res.All), len(res.Filtered), len(res.New))
	if res.FormatDrift {
		fmt.Println("warning: job table not found, the source format may have changed")
	}
	for i, j := range res.New {
		fmt.Printf("%2d. %s | %s | %s | %s ago\n", i+1, j.Company, j.Role, j.Location, j.AgeToken)
	}
}
