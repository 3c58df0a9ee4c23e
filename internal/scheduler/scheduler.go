package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task right away and then on every tick until ctx is done.
// Runs never overlap: a tick that fires during a long run is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	run := func() {
		if err := task(ctx); err != nil {
			log.Error("[scheduler] task failed", "task", name, "err", err)
		}
	}

	// run immediately
	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
