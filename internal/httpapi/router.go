package httpapi

import (
	"log/slog"
	"net/http"
)

// NewMux wires every route. Wrap it with Handler for middleware.
func NewMux(d Deps) *http.ServeMux {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	hh := HealthHandler{Runner: d.Runner, Hub: d.Hub}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Jobs from the last run
	jh := JobsHandler{Runner: d.Runner}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))

	// Scrape
	sch := ScrapeHandler{Runner: d.Runner, BaseCtx: d.BaseCtx, Log: log}
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))
	mux.HandleFunc("/scrape/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))

	// Config
	if d.CfgVal != nil {
		ch := ConfigHandler{CfgVal: d.CfgVal, UserCfgPath: d.UserCfgPath, LoadCfg: d.LoadCfg}
		mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Get,
			http.MethodPut: ch.Put,
		}))
		mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Path,
		}))
		mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Validate,
		}))

		sh := SecretsHandler{CfgVal: d.CfgVal}
		mux.HandleFunc("/api/secrets/smtp", methodMux(map[string]http.HandlerFunc{
			http.MethodPost:   sh.SetSMTPPassword,
			http.MethodDelete: sh.DeleteSMTPPassword,
		}))
	}

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	return mux
}

// Handler is the mux behind the standard middleware chain.
func Handler(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log), LocalOnly)
}
