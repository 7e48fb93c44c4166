// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
	// TenantIDKey is the context key for tenant (organization) ID
	TenantIDKey contextKey = "tenant_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id, user_id, and tenant_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("user_id", userID))}
	}

	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok && tenantID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("tenant_id", tenantID))}
	}

	return newLogger
}

// WithTenant returns a logger scoped to a tenant.
func (l *Logger) WithTenant(tenantID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("tenant_id", tenantID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// LeadEvent logs a lead lifecycle event (created, stage_changed, converted, ...).
func (l *Logger) LeadEvent(event, tenantID, leadID string, attrs ...slog.Attr) {
	args := make([]any, 0, 3+len(attrs))
	args = append(args,
		slog.String("event", event),
		slog.String("tenant_id", tenantID),
		slog.String("lead_id", leadID),
	)
	for _, attr := range attrs {
		args = append(args, attr)
	}
	l.Info("lead_event", args...)
}

// RoutingDecision logs which routing rule matched and the resolved owner.
func (l *Logger) RoutingDecision(tenantID, ruleID, ownerID, strategy string) {
	l.Debug("routing_decision",
		slog.String("tenant_id", tenantID),
		slog.String("rule_id", ruleID),
		slog.String("owner_id", ownerID),
		slog.String("strategy", strategy),
	)
}

// CollaboratorError logs a failure from a consumed collaborator (scoring,
// audit, activity, record team).
func (l *Logger) CollaboratorError(collaborator, operation string, err error) {
	l.Error("collaborator_error",
		slog.String("collaborator", collaborator),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
