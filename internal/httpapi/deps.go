package httpapi

import (
	"context"
	"database/sql"
	"log/slog"

	"jobapply-engine/internal/events"
	"jobapply-engine/internal/scrape/types"
)

// Runner is the slice of poll.Poller the API needs.
type Runner interface {
	CurrentStatus() types.ScrapeStatus
	Kick(ctx context.Context) bool
}

type Deps struct {
	DB     *sql.DB // applications log
	Runner Runner
	Hub    *events.Hub // nil disables /events
	Log    *slog.Logger
}
