package domain

import "context"

// Client-side security event types accepted by the security log endpoint
const (
	SecurityEventSuspiciousActivity = "suspicious_activity"
	SecurityEventRapidClicks        = "rapid_clicks"
	SecurityEventUnusualBehavior    = "unusual_behavior"
	SecurityEventConsoleAccess      = "console_access"
)

// SecurityEventRequest is an anomaly reported by the website's browser
// monitor. Timestamp is unix milliseconds.
type SecurityEventRequest struct {
	Type      string `json:"type" validate:"required,oneof=suspicious_activity rapid_clicks unusual_behavior console_access" example:"rapid_clicks"`
	Details   string `json:"details" validate:"required,max=500" example:"Detected 6 rapid clicks"`
	Timestamp int64  `json:"timestamp" validate:"required,gt=0" example:"1710061200000"`
	UserAgent string `json:"userAgent,omitempty" validate:"max=512"`
	URL       string `json:"url,omitempty" validate:"max=2048"`
}

type SecurityEventUsecase interface {
	// Record logs the event. It never fails: malformed events are dropped.
	Record(ctx context.Context, req *SecurityEventRequest, clientID, headerUserAgent string)
}
