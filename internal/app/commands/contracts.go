package commands

import (
	"context"
	"fmt"

	"roomstay/internal/domain/shared/apperr"
)

// Command is a write intent. Key selects the handler and names the
// command in logs, spans and idempotency scopes.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

// Wiring mistakes surface as internal errors so transports answer 500
// rather than blaming the caller.
var (
	ErrHandlerNotFound = apperr.New(apperr.Internal, "commands: handler not found")
	ErrInvalidCommand  = apperr.New(apperr.Internal, "commands: invalid command for handler")
	ErrResultType      = apperr.New(apperr.Internal, "commands: result type mismatch")
	ErrNilBus          = apperr.New(apperr.Internal, "commands: nil bus")
)

// Dispatch sends cmd and asserts the handler's result type. A nil result
// yields the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return value, nil
}
