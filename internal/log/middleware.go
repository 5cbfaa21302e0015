package log

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"viagem/internal/core"
	"viagem/internal/validation"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithRequest(r).
		WithResponse(statusCode, elapsed).
		WithClientIP(clientIP)

	sl.logger.LogFields(ctx, level, "HTTP request completed", fields)
}

// LogMutation logs a confirmed create, update or delete.
func (sl *StructuredLogger) LogMutation(ctx context.Context, op, kind string, id int, country string) {
	fields := NewFields().
		WithEntity(kind, id, country).
		WithOperation(op)

	sl.logger.LogFields(ctx, slog.LevelInfo, "Trip data changed", fields)
}

// LogError logs err, classified by ErrorType. Validation and not-found
// errors are client mistakes and log at warn.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	errType := ErrorType(err)
	fields = fields.
		WithError(err).
		WithErrorType(errType).
		WithOperation(operation)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields[FieldInvalidFields] = verrs.Fields()
	}

	level := slog.LevelError
	if errType == ErrorTypeValidation || errType == ErrorTypeNotFound {
		level = slog.LevelWarn
	}
	sl.logger.LogFields(ctx, level, msg, fields)
}

// ErrorType maps an error to one of the ErrorType categories.
func ErrorType(err error) string {
	var verrs validation.Errors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verrs):
		return ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	default:
		return ErrorTypeInternal
	}
}
