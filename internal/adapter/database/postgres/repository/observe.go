package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/pkg/tracing"
)

// observe opens a client span for a statement against table. The returned
// func closes it and records the outcome; a missing row is not a failure.
func observe(ctx context.Context, telemetry port.Telemetry, table, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := tracing.StartDatabaseSpan(ctx, "postgresql", table, operation, attrs...)
	start := time.Now()

	return ctx, func(errp *error) {
		if err := *errp; err != nil && !domain.IsNotFound(err) {
			tracing.AddSpanError(span, err)
		}

		telemetry.RecordRepositoryOperation(ctx, operation, table, time.Since(start), *errp)
		span.End()
	}
}
