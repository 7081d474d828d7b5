package middleware

import (
	"context"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/queries"
	"roomstay/internal/domain/shared/apperr"
)

// Validator checks a command or query before any handler or storage work.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	check := validateWith(v)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := check(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	check := validateWith(v)
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := check(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

// validateWith guarantees every rejection carries the invalid_input kind,
// whatever the validator returned.
func validateWith(v Validator) func(ctx context.Context, message any) error {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(ctx context.Context, message any) error {
		err := v.Validate(ctx, message)
		if err == nil || apperr.KindOf(err) == apperr.InvalidInput {
			return err
		}
		return apperr.Wrap(apperr.InvalidInput, "validation failed", err)
	}
}
