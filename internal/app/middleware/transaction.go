package middleware

import (
	"context"
	"fmt"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// ReadOnlyCommand lets a command ask for a snapshot unit without writes.
type ReadOnlyCommand interface {
	ReadOnly() bool
}

// DefaultTxOptions opens a writable unit unless the command opts out.
func DefaultTxOptions(cmd commands.Command) uow.TxOptions {
	if ro, ok := cmd.(ReadOnlyCommand); ok {
		return uow.TxOptions{ReadOnly: ro.ReadOnly()}
	}
	return uow.TxOptions{}
}

// Transaction runs the handler inside a fresh unit of work and commits it
// when the handler succeeds. Handler errors and panics roll the unit back,
// so a rejected admission or payment leaves no partial writes.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if optsProvider == nil {
		optsProvider = DefaultTxOptions
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (res any, err error) {
			unit, err := factory.Begin(ctx, optsProvider(cmd))
			if err != nil {
				return nil, fmt.Errorf("begin %s: %w", cmd.Key(), err)
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err = next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			// Commit failures keep their cause so Retry can spot write conflicts.
			if err := unit.Commit(execCtx); err != nil {
				return nil, fmt.Errorf("commit %s: %w", cmd.Key(), err)
			}
			committed = true
			return res, nil
		})
	}
}
