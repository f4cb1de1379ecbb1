// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"arena/internal/models"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLogger replaces the backing slog logger, typically with the
// request-context aware logger from the middleware package.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// DomainLogger logs engine lifecycle events for one module.
type DomainLogger struct {
	module string
	logger *slog.Logger
}

// NewDomainLogger creates a DomainLogger tagged with module that writes
// through GlobalLogger.
func NewDomainLogger(module string) *DomainLogger {
	return &DomainLogger{module: module}
}

// WithLogger returns a copy writing to l instead of GlobalLogger.
func (l *DomainLogger) WithLogger(logger *slog.Logger) *DomainLogger {
	return &DomainLogger{module: l.module, logger: logger}
}

func (l *DomainLogger) out() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return GlobalLogger.Logger
}

// LogEvent logs a state change on a debate.
func (l *DomainLogger) LogEvent(ctx context.Context, event, debateID string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("module", l.module),
		slog.String("event", event),
		slog.String("debate_id", debateID),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.out().InfoContext(ctx, "debate event", attrs...)
}

// LogRejected records a refused operation. Domain refusals are logged at
// debug level and counted; anything else is an error.
func (l *DomainLogger) LogRejected(ctx context.Context, operation string, err error) {
	code := models.CodeInternal
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	EngineRejections.WithLabelValues(operation, code).Inc()

	attrs := []any{
		slog.String("module", l.module),
		slog.String("operation", operation),
		slog.String("code", code),
		slog.String("error", err.Error()),
	}
	if code == models.CodeInternal {
		l.out().ErrorContext(ctx, "operation failed", attrs...)
		return
	}
	l.out().DebugContext(ctx, "operation rejected", attrs...)
}
