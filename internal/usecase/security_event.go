package usecase

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/security"
	"rhb-forms-api/pkg/validation"
)

type securityEventUsecase struct {
	validate *validator.Validate
	secLog   *security.SecurityLogger
	log      *zap.Logger
}

func NewSecurityEventUsecase(validate *validator.Validate, secLog *security.SecurityLogger, log *zap.Logger) domain.SecurityEventUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &securityEventUsecase{validate: validate, secLog: secLog, log: log}
}

// Record logs a client report. Malformed reports are dropped at debug level.
func (uc *securityEventUsecase) Record(ctx context.Context, req *domain.SecurityEventRequest, clientID, headerUserAgent string) {
	if req == nil {
		return
	}
	report := *req
	report.Details = validation.SanitizeLine(report.Details)
	if report.UserAgent == "" {
		report.UserAgent = headerUserAgent
	}
	if report.URL == "" {
		report.URL = "unknown"
	}

	if err := uc.validate.Struct(&report); err != nil {
		uc.log.Debug("dropping malformed security event",
			zap.String("client_id", clientID),
			zap.Strings("errors", validation.FormatValidationErrors(err)),
		)
		return
	}

	uc.secLog.Log(ctx, security.SecurityEvent{
		Event:        security.EventClientReport,
		Severity:     security.ClientReportSeverity(report.Details),
		SubjectType:  security.SubjectTypeFor(clientID),
		SubjectValue: clientID,
		UserAgent:    report.UserAgent,
		RequestID:    domain.RequestIDFrom(ctx),
		Details: map[string]interface{}{
			"type":        report.Type,
			"details":     report.Details,
			"url":         report.URL,
			"reported_at": time.UnixMilli(report.Timestamp).UTC().Format(time.RFC3339),
		},
	})
}
