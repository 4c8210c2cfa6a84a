package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
)

// StartCleanup runs a goroutine that purges expired sessions and
// verification tokens, and system logs older than retention, once at start
// and then every interval until done is closed.
func StartCleanup(st *store.Store, interval, retention time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		Purge(context.Background(), st, time.Now().UTC(), retention)
		for {
			select {
			case <-ticker.C:
				Purge(context.Background(), st, time.Now().UTC(), retention)
			case <-done:
				return
			}
		}
	}()
}

// Purge performs a single cleanup pass at now.
func Purge(ctx context.Context, st *store.Store, now time.Time, retention time.Duration) {
	sessions, verifications, err := st.PurgeExpired(ctx, now)
	if err != nil {
		slog.Error("expired credential cleanup failed", "action", "cleanup", "error", err)
	} else if sessions > 0 || verifications > 0 {
		slog.Info("expired credentials purged", "action", "cleanup", "sessions", sessions, "verifications", verifications)
	}

	logs, err := st.PurgeLogs(ctx, now.Add(-retention))
	if err != nil {
		slog.Error("log cleanup failed", "action", "cleanup", "error", err)
	} else if logs > 0 {
		slog.Info("log cleanup completed", "action", "cleanup", "deleted", logs)
	}
}
