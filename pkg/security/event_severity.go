package security

import "strings"

// Severity represents the severity level of a security event
// This is derived from EventType, NOT user-provided
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// EventSeverityMap defines the hard-coded severity for each event type
var EventSeverityMap = map[EventType]Severity{
	// INFO - Normal operations
	EventClientReport: SeverityINFO,

	// MEDIUM - Notable but not urgent
	EventDispatchFailed: SeverityMEDIUM,

	// WARN - Potential issues, monitor
	EventRateLimitTriggered: SeverityWARN,
	EventValidationFailed:   SeverityWARN,
	EventPayloadTooLarge:    SeverityWARN,
	EventHoneypotTriggered:  SeverityWARN,
	EventChallengeFailed:    SeverityWARN,
}

// SeverePatterns are client report details that escalate to HIGH
var SeverePatterns = []string{
	"Console log accessed",
	"Developer tools detected",
	"Dynamic SCRIPT injection detected",
	"Dynamic IFRAME injection detected",
}

// GetSeverity returns the severity for an event type
// If the event type is not mapped, defaults to MEDIUM
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// ClientReportSeverity escalates client reports whose details match a
// severe pattern.
func ClientReportSeverity(details string) Severity {
	for _, p := range SeverePatterns {
		if strings.Contains(details, p) {
			return SeverityHIGH
		}
	}
	return GetSeverity(EventClientReport)
}

// IsHighOrAbove returns true if the event is HIGH or CRITICAL severity
func IsHighOrAbove(s Severity) bool {
	return s == SeverityHIGH || s == SeverityCRITICAL
}
