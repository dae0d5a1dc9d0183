package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// SessionPurger removes expired sessions and reports how many were dropped.
type SessionPurger interface {
	Purge(ctx context.Context) (int, error)
}

// SessionCleanupWorker compacts the sessions collection on an interval.
// Expired sessions are already rejected on lookup, so this only bounds the
// size of the collection.
type SessionCleanupWorker struct {
	sessions SessionPurger
	interval time.Duration
	log      *logger.Logger
}

func NewSessionCleanupWorker(sessions SessionPurger, interval time.Duration, log *logger.Logger) *SessionCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionCleanupWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With("worker", "session_cleanup"),
	}
}

func (w *SessionCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Cleanup(ctx)
		}
	}
}

// Cleanup runs one compaction pass. Failures are logged and retried on the
// next tick.
func (w *SessionCleanupWorker) Cleanup(ctx context.Context) int {
	removed, err := w.sessions.Purge(ctx)
	if err != nil {
		w.log.Error(err, "failed to clean up sessions")
		return 0
	}
	if removed > 0 {
		w.log.Info("expired sessions removed", "count", removed)
	}
	return removed
}
