package queries

import (
	"context"
	"fmt"

	"roomstay/internal/domain/shared/apperr"
)

// Query is a read request. Query handlers open their own read-only unit
// unless one is already bound to the context.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = apperr.New(apperr.Internal, "queries: handler not found")
	ErrInvalidQuery    = apperr.New(apperr.Internal, "queries: invalid query for handler")
	ErrResultType      = apperr.New(apperr.Internal, "queries: result type mismatch")
	ErrNilBus          = apperr.New(apperr.Internal, "queries: nil bus")
)

func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return value, nil
}
