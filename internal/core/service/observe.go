package service

import (
	"context"
	"time"

	"todoapi/internal/core/port"
)

func observe(ctx context.Context, telemetry port.Telemetry, service, operation string, attrs map[string]interface{}) (context.Context, func(*error)) {
	ctx, span := telemetry.StartServiceSpan(ctx, service, operation, attrs)
	start := time.Now()

	return ctx, func(errp *error) {
		telemetry.RecordServiceOperation(ctx, service, operation, time.Since(start), *errp)
		span.End()
	}
}
