package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"jobwatch-engine/internal/events"
)

// keepAlive keeps idle proxies from closing a quiet stream.
const keepAlive = 25 * time.Second

type EventsHandler struct {
	Hub *events.Hub
}

func writeSSE(w http.ResponseWriter, f http.Flusher, data string) {
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
	f.Flush()
}

// ServeSSE streams hub events until the client goes away.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")

	id, sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(id)

	writeSSE(w, flusher, events.MakeEvent(RequestIDFrom(r.Context()), "ping", 1, nil))

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(w, flusher, msg)
		}
	}
}
