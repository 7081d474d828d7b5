package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"roomstay/internal/app/commands"
	domainbooking "roomstay/internal/domain/booking"
)

// RetryableError reports whether a failed attempt may succeed when re-run
// from scratch.
type RetryableError func(err error) bool

// IsWriteConflict matches optimistic-lock losses and transient Mongo
// transaction errors.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domainbooking.ErrConcurrentUpdate) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 112 { // WriteConflict
		return true
	}
	return false
}

// Retry re-dispatches a command after each backoff step while retryable
// reports true. It must sit outside Transaction so every attempt gets a new
// unit of work.
func Retry(backoff []time.Duration, retryable RetryableError, logger *slog.Logger) CommandMiddleware {
	if retryable == nil {
		retryable = IsWriteConflict
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			for attempt := 0; err != nil && retryable(err) && attempt < len(backoff); attempt++ {
				if logger != nil {
					logger.DebugContext(ctx, "retrying command", "command", cmd.Key(), "attempt", attempt+1, "error", err)
				}
				timer := time.NewTimer(backoff[attempt])
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, errors.Join(err, ctx.Err())
				case <-timer.C:
				}
				res, err = nextFn(ctx, cmd)
			}
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
