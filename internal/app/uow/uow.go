package uow

import (
	"context"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	domainpayments "roomstay/internal/domain/payments"
	domainreviews "roomstay/internal/domain/reviews"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Catalog() domaincatalog.Reader
	Booking() domainbooking.Repository
	Transactions() domainpayments.Repository
	Discounts() domaindiscounts.Repository
	Reviews() domainreviews.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (a Mongo
// session, an in-memory transaction) which repositories read from ctx.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind attaches unit to ctx, letting it inject its own state first.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
