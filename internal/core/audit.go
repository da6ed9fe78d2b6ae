package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/csvbatch/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport     AuditAction = "import"
	ActionRowEdit    AuditAction = "row_edit"
	ActionFileDelete AuditAction = "file_delete"
	ActionExport     AuditAction = "export"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEvent describes one data-changing or data-leaving action.
type AuditEvent struct {
	Action       AuditAction
	OwnerID      string
	FileID       string
	RowID        string
	RowsAffected int
	Reason       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionFileDelete:
		return SeverityHigh
	case ActionImport, ActionRowEdit:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// logAudit writes ev as a structured "audit" record. Request metadata
// placed on ctx by the transport is attached when present.
func (s *Service) logAudit(ctx context.Context, ev AuditEvent) {
	attrs := []any{
		slog.String("action", string(ev.Action)),
		slog.String("severity", string(determineSeverity(ev.Action))),
		slog.String("owner", ev.OwnerID),
	}
	if ev.FileID != "" {
		attrs = append(attrs, slog.String("file_id", ev.FileID))
	}
	if ev.RowID != "" {
		attrs = append(attrs, slog.String("row_id", ev.RowID))
	}
	if ev.RowsAffected > 0 {
		attrs = append(attrs, slog.Int("rows_affected", ev.RowsAffected))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		attrs = append(attrs, slog.String("ip", ip))
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	logging.FromContext(ctx).Info("audit", attrs...)
}
