package middleware

import (
	"context"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/queries"
	"roomstay/internal/domain/auth"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Guarded messages name their caller and the action they attempt.
type Guarded interface {
	Actor() auth.Principal
	Action() auth.Action
}

// RoleGate rejects guarded messages whose caller is anonymous or whose role
// lacks the capability. Ownership is checked later by the handler, once the
// resource is loaded.
type RoleGate struct{}

func (RoleGate) Authorize(_ context.Context, message any) error {
	g, ok := message.(Guarded)
	if !ok {
		return nil
	}
	p := g.Actor()
	if !p.Authenticated() {
		return auth.ErrPrincipalRequired
	}
	if !auth.Permits(p.Role, g.Action()) {
		return auth.ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
