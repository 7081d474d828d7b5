package bootstrap

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	bookingapp "roomstay/internal/app/handlers/booking"
	discountsapp "roomstay/internal/app/handlers/discounts"
	reviewsapp "roomstay/internal/app/handlers/reviews"
	transactionsapp "roomstay/internal/app/handlers/transactions"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/queries"
	"roomstay/internal/app/uow"
	domainbooking "roomstay/internal/domain/booking"
)

// Deps are the ports the application needs from infrastructure.
type Deps struct {
	UoWFactory   uow.UoWFactory
	Outbox       outbox.Outbox
	Idempotency  middleware.IdempotencyStore
	Locker       policies.Locker
	Gateway      policies.PaymentGateway
	Validator    middleware.Validator
	Clock        policies.Clock
	Tracer       trace.Tracer
	Logger       *slog.Logger
	RefundPolicy domainbooking.RefundPolicy
	RetryBackoff []time.Duration
	IdempTTL     time.Duration
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build registers every handler and wraps the buses. Command order:
// tracing, logging, role gate, validation, idempotency, retry, per-key
// locks, outbox flush (after commit), transaction.
func Build(d Deps) Buses {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := d.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("roomstay")
	}
	clock := d.Clock
	if clock == nil {
		clock = policies.SystemClock{}
	}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	createHandler := &bookingapp.CreateBookingHandler{Outbox: d.Outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createHandler)
	payHandler := &bookingapp.PayBookingHandler{Gateway: d.Gateway, Outbox: d.Outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, bookingapp.PayBookingCommand{}.Key(), payHandler)
	transitions := &bookingapp.TransitionHandler{RefundPolicy: d.RefundPolicy, Outbox: d.Outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CancelBookingCommand, *dto.BookingTransition](transitions.Cancel))
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ConfirmBookingCommand, *dto.BookingTransition](transitions.Confirm))
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CompleteBookingCommand, *dto.BookingTransition](transitions.Complete))
	discountHandler := &discountsapp.AddDiscountHandler{Outbox: d.Outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, discountsapp.AddDiscountCommand{}.Key(), discountHandler)
	reviewHandler := &reviewsapp.AddOrUpdateReviewHandler{Outbox: d.Outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, reviewsapp.AddOrUpdateReviewCommand{}.Key(), reviewHandler)

	queryBus := queries.NewInMemoryBus()
	bookingQueries := &bookingapp.QueryHandler{UoWFactory: d.UoWFactory, Logger: logger}
	queries.RegisterHandler(queryBus, bookingapp.RoomAvailabilityQuery{}.Key(),
		queries.HandlerFunc[bookingapp.RoomAvailabilityQuery, dto.Availability](bookingQueries.RoomAvailability))
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(),
		queries.HandlerFunc[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](bookingQueries.ListGuestBookings))
	queries.RegisterHandler(queryBus, bookingapp.ReviewEligibilityQuery{}.Key(),
		queries.HandlerFunc[bookingapp.ReviewEligibilityQuery, dto.ReviewEligibility](bookingQueries.ReviewEligibility))
	discountQueries := &discountsapp.QueryHandler{UoWFactory: d.UoWFactory, Clock: clock, Logger: logger}
	queries.RegisterHandler(queryBus, discountsapp.CurrentDiscountQuery{}.Key(),
		queries.HandlerFunc[discountsapp.CurrentDiscountQuery, dto.CurrentDiscount](discountQueries.CurrentDiscount))
	queries.RegisterHandler(queryBus, discountsapp.ListOwnerDiscountsQuery{}.Key(),
		queries.HandlerFunc[discountsapp.ListOwnerDiscountsQuery, dto.DiscountCollection](discountQueries.ListOwnerDiscounts))
	queries.RegisterHandler(queryBus, reviewsapp.ListOwnerReviewsQuery{}.Key(), &reviewsapp.ListOwnerReviewsHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, reviewsapp.ReviewByBookingQuery{}.Key(), &reviewsapp.ReviewByBookingHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, transactionsapp.ListUserTransactionsQuery{}.Key(), &transactionsapp.ListUserTransactionsHandler{UoWFactory: d.UoWFactory})

	commandMws := []middleware.CommandMiddleware{
		middleware.Tracing(tracer),
		middleware.Logging(logger),
		middleware.Authorization(middleware.RoleGate{}),
	}
	if d.Validator != nil {
		commandMws = append(commandMws, middleware.Validation(d.Validator))
	}
	if d.Idempotency != nil {
		commandMws = append(commandMws, middleware.Idempotency(d.Idempotency, middleware.IdempotencyOptions{TTL: d.IdempTTL, Locker: d.Locker}))
	}
	commandMws = append(commandMws, middleware.Retry(d.RetryBackoff, middleware.IsWriteConflict, logger))
	if d.Locker != nil {
		commandMws = append(commandMws, middleware.Serialize(d.Locker))
	}
	commandMws = append(commandMws,
		middleware.OutboxFlush(d.Outbox, logger),
		middleware.Transaction(d.UoWFactory, nil),
	)

	queryMws := []middleware.QueryMiddleware{
		middleware.QueryTracing(tracer),
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(middleware.RoleGate{}),
	}
	if d.Validator != nil {
		queryMws = append(queryMws, middleware.QueryValidation(d.Validator))
	}

	return Buses{
		Commands: middleware.ChainCommands(commandBus, commandMws...),
		Queries:  middleware.ChainQueries(queryBus, queryMws...),
	}
}
