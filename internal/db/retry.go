package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// WaitReady pings the database until it answers, retrying up to attempts
// times with a fixed backoff between tries. It returns the last ping error
// when the ceiling is reached; callers are expected to treat that as fatal
// rather than serving traffic against a store that never came up.
func WaitReady(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration, logger *slog.Logger) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		if logger != nil {
			logger.Warn("database not ready",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
		}

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, err)
}
