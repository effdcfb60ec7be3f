package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
)

// Optimize runs PRAGMA optimize once. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) Optimize(ctx context.Context) error {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return errors.Wrap(err, "optimize database")
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
	return nil
}

// StartOptimizer runs Optimize every interval until ctx is cancelled.
func (db *Database) StartOptimizer(ctx context.Context, interval time.Duration) {
	for {
		if err := db.Optimize(ctx); err != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database", errors.SlogError(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			continue
		}
	}
}
