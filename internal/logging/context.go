package logging

import (
	"context"
	"log/slog"

	"animedb/internal/services"
)

var contextExtractors = []struct {
	key string
	get func(context.Context) (string, bool)
}{
	{FieldOperation, services.OperationFromContext},
	{FieldUserID, services.UserIDFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields returns the request-scoped attributes stored in ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	for _, ex := range contextExtractors {
		if value, ok := ex.get(ctx); ok {
			fields = append(fields, slog.String(ex.key, value))
		}
	}
	return fields
}

// WithContext derives a logger tagged with the operation, user and request ID
// carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
