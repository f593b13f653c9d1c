package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rhb-forms-api/pkg/clientid"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventHoneypotTriggered  EventType = "honeypot_triggered"
	EventChallengeFailed    EventType = "challenge_failed"
	EventValidationFailed   EventType = "validation_failed"
	EventPayloadTooLarge    EventType = "payload_too_large"
	EventDispatchFailed     EventType = "dispatch_failed"
	EventClientReport       EventType = "client_security_report"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	Severity     Severity               `json:"severity"`                // derived from Event unless set by the server
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip", "fingerprint"
	SubjectValue string                 `json:"subject_value,omitempty"` // Masked or hashed for PII
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

// NewSecurityLogger wraps an existing zap logger. A nil logger discards events.
func NewSecurityLogger(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityLogger{
		zapLogger:   logger.Named("security"),
		serviceName: serviceName,
		environment: environment,
	}
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if sl == nil {
		return
	}
	// Fill in defaults
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment
	if event.Severity == "" {
		event.Severity = GetSeverity(event.Event)
	}

	level := severityLevel(event.Severity)
	event.Level = level.String()

	// Build Zap fields
	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if IsHighOrAbove(event.Severity) {
		fields = append(fields, zap.Bool("alert", true))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

func severityLevel(s Severity) zapcore.Level {
	switch s {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityHIGH, SeverityCRITICAL:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, clientID, userAgent, requestID, scope string, resetAt time.Time) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  SubjectTypeFor(clientID),
		SubjectValue: clientID,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details: map[string]interface{}{
			"scope":    scope,
			"reset_at": resetAt.UTC().Format(time.RFC3339),
		},
	})
}

// LogHoneypotTriggered logs a filled honeypot field
func (sl *SecurityLogger) LogHoneypotTriggered(ctx context.Context, clientID, requestID, form string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventHoneypotTriggered,
		SubjectType:  SubjectTypeFor(clientID),
		SubjectValue: clientID,
		RequestID:    requestID,
		Details:      map[string]interface{}{"form": form},
	})
}

// LogChallengeFailed logs a rejected CAPTCHA token
func (sl *SecurityLogger) LogChallengeFailed(ctx context.Context, clientID, requestID, form string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventChallengeFailed,
		SubjectType:  SubjectTypeFor(clientID),
		SubjectValue: clientID,
		RequestID:    requestID,
		Details:      map[string]interface{}{"form": form},
	})
}

// LogValidationFailed logs which fields failed, never their values
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, clientID, requestID, form string, fields []string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventValidationFailed,
		SubjectType:  SubjectTypeFor(clientID),
		SubjectValue: clientID,
		RequestID:    requestID,
		Details:      map[string]interface{}{"form": form, "fields": fields},
	})
}

// LogPayloadTooLarge logs a body rejected by the size ceiling
func (sl *SecurityLogger) LogPayloadTooLarge(ctx context.Context, clientID, requestID, path string, size, limit int64) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventPayloadTooLarge,
		SubjectType:  SubjectTypeFor(clientID),
		SubjectValue: clientID,
		RequestID:    requestID,
		Details: map[string]interface{}{
			"path":  path,
			"size":  size,
			"limit": limit,
		},
	})
}

// LogDispatchFailed logs a failed outbound send for a masked recipient
func (sl *SecurityLogger) LogDispatchFailed(ctx context.Context, email, requestID, form string, err error) {
	details := map[string]interface{}{
		"form":           form,
		"recipient_hash": HashValue(email),
	}
	if err != nil {
		details["error"] = err.Error()
	}
	sl.Log(ctx, SecurityEvent{
		Event:        EventDispatchFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		RequestID:    requestID,
		Details:      details,
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8]) // First 16 chars of hex
}

// SubjectTypeFor labels a client identifier as an IP or a fingerprint
func SubjectTypeFor(clientID string) string {
	if clientid.IsFingerprint(clientID) {
		return "fingerprint"
	}
	return "ip"
}
