package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"jobapply-engine/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
	Log *slog.Logger
}

// ServeSSE streams run_started and run_finished events until the client
// goes away.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.Hub.Subscribe()
	h.log().Debug("[events] client connected", "subscribers", h.Hub.Subscribers())
	defer func() {
		cancel()
		h.log().Debug("[events] client gone", "subscribers", h.Hub.Subscribers())
	}()

	fmt.Fprintf(w, "event: message\ndata: %s\n\n", events.Encode(events.TypePing, "", nil))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (h EventsHandler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}
