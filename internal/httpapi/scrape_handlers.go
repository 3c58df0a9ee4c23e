package httpapi

import (
	"context"
	"log/slog"
	"net/http"
)

type ScrapeHandler struct {
	Runner Runner
	Log    *slog.Logger
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.CurrentStatus())
}

// Run starts a pass in the background; the caller polls /scrape/status.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	// the run must outlive this request
	if !h.Runner.Kick(context.WithoutCancel(r.Context())) {
		WriteJSON(w, http.StatusConflict, RunResponse{OK: false, Msg: "already running"})
		return
	}
	h.Log.Info("[http] run triggered", "request_id", RequestIDFrom(r.Context()))
	WriteJSON(w, http.StatusAccepted, RunResponse{OK: true, Msg: "started"})
}
