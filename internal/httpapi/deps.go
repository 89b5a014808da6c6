package httpapi

import (
	"context"
	"log/slog"
	"sync/atomic"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/pipeline"
	"jobwatch-engine/internal/watch"
)

// Runner is the part of watch.Runner the API drives.
type Runner interface {
	RunOnce(ctx context.Context) (*pipeline.ScrapeResult, error)
	Status() watch.Status
	Last() *pipeline.ScrapeResult
	Running() bool
}

type Deps struct {
	Runner Runner
	Hub    *events.Hub
	Logger *slog.Logger

	// BaseCtx bounds runs started over HTTP; cancel it on shutdown.
	BaseCtx context.Context

	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
