package repository

import (
	"context"
	"time"

	"todoapi/internal/core/port"
)

// observe opens a repository span and returns the func that closes it and
// records the outcome of the operation.
func observe(ctx context.Context, telemetry port.Telemetry, operation, entity, table string, attrs map[string]interface{}) (context.Context, func(*error)) {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	attrs["db.system"] = "sqlite"
	attrs["db.table"] = table

	ctx, span := telemetry.StartRepositorySpan(ctx, operation, entity, attrs)
	start := time.Now()

	return ctx, func(errp *error) {
		telemetry.RecordRepositoryOperation(ctx, operation, entity, time.Since(start), *errp)
		span.End()
	}
}
