package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/queries"
	"roomstay/internal/domain/shared/apperr"
)

func Tracing(tracer trace.Tracer) CommandMiddleware {
	if tracer == nil {
		panic("middleware: tracer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx, span := tracer.Start(ctx, "command "+cmd.Key(), trace.WithAttributes(attribute.String("app.command", cmd.Key())))
			defer span.End()
			res, err := nextFn(ctx, cmd)
			endSpan(span, err)
			return res, err
		})
	}
}

func QueryTracing(tracer trace.Tracer) QueryMiddleware {
	if tracer == nil {
		panic("middleware: tracer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			ctx, span := tracer.Start(ctx, "query "+q.Key(), trace.WithAttributes(attribute.String("app.query", q.Key())))
			defer span.End()
			res, err := nextFn(ctx, q)
			endSpan(span, err)
			return res, err
		})
	}
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String("app.error_kind", string(apperr.KindOf(err))))
	if !apperr.Expected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
