package httpapi

import (
	"net/http"

	"jobwatch-engine/internal/events"
)

type HealthHandler struct {
	Runner Runner
	Hub    *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"ok": true}
	if h.Runner != nil {
		body["running"] = h.Runner.Running()
	}
	if h.Hub != nil {
		body["subscribers"] = h.Hub.Len()
	}
	writeJSON(w, body)
}
