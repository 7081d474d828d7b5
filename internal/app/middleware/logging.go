package middleware

import (
	"context"
	"log/slog"
	"time"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/queries"
	"roomstay/internal/domain/shared/apperr"
)

// Logging records every dispatch. Rejections the caller can correct are
// logged at info; invariant breaches and storage failures at error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	attrs := []any{kind, key, "duration", time.Since(start)}
	switch {
	case err == nil:
		logger.DebugContext(ctx, kind+" handled", attrs...)
	case apperr.Expected(err):
		logger.InfoContext(ctx, kind+" rejected", append(attrs, "kind", apperr.KindOf(err), "error", err)...)
	default:
		logger.ErrorContext(ctx, kind+" failed", append(attrs, "kind", apperr.KindOf(err), "error", err)...)
	}
}
