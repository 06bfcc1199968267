// Package audit records operator actions taken through the dashboard.
package audit

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoginSucceeded  EventType = "LOGIN_SUCCEEDED"
	EventLoginFailed     EventType = "LOGIN_FAILED"
	EventStudentEnrolled EventType = "STUDENT_ENROLLED"
	EventStudentDeleted  EventType = "STUDENT_DELETED"
)

// Event é um registro de auditoria; ExternalID é o id do aluno afetado.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	EventType  EventType         `json:"event_type"`
	Actor      string            `json:"actor,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
}

type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger writes audit events as structured log lines.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log never fails; failed actions are logged at warn.
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Time("at", event.Timestamp),
		slog.Bool("success", event.Success),
	}
	optional := []struct{ key, value string }{
		{"actor", event.Actor},
		{"student_id", event.ExternalID},
		{"error", event.Error},
		{"ip", event.IPAddress},
		{"user_agent", event.UserAgent},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		meta := make([]any, 0, len(keys))
		for _, k := range keys {
			meta = append(meta, slog.String(k, event.Metadata[k]))
		}
		attrs = append(attrs, slog.Group("meta", meta...))
	}

	l.logger.LogAttrs(ctx, level, "audit_event", attrs...)
	return nil
}

// NoOpLogger descarta eventos.
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
