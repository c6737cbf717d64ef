package database

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/musemate/backend/internal/infrastructure/observability"
)

// observe opens a span for one database operation. The returned func ends the
// span and records the query duration under operation.
func observe(ctx context.Context, metrics *observability.Metrics, operation string) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(ctx, "db."+operation)
	span.SetAttributes(attribute.String("db.system", "postgresql"), attribute.String("db.operation", operation))
	start := time.Now()
	return ctx, func(err error) {
		observability.RecordError(span, err)
		observability.RecordDBMetric(ctx, metrics, operation, time.Since(start))
		span.End()
	}
}
