package crawler

import (
	"context"
	"log/slog"
	"time"
)

// NextRun returns the first hour:minute wall-clock time in loc strictly after
// now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Daily runs job once immediately and then every day at hour:minute in loc
// until ctx is done.
func Daily(ctx context.Context, log *slog.Logger, hour, minute int, loc *time.Location, job func(context.Context)) {
	job(ctx)

	for {
		next := NextRun(time.Now(), hour, minute, loc)
		log.Info("next crawl scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			job(ctx)
		}
	}
}
