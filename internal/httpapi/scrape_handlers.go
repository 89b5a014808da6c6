package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"jobwatch-engine/internal/watch"
)

type ScrapeHandler struct {
	Runner  Runner
	BaseCtx context.Context
	Log     *slog.Logger
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Runner.Status())
}

// Run starts a watch cycle in the background and returns at once.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Running() {
		WriteJSON(w, http.StatusConflict, RunResponse{OK: false, Msg: "already running"})
		return
	}

	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	reqID := RequestIDFrom(r.Context())
	go func() {
		if _, err := h.Runner.RunOnce(ctx); err != nil && !errors.Is(err, watch.ErrRunInProgress) {
			h.Log.Error("manual run failed", "request_id", reqID, "err", err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, RunResponse{OK: true})
}
