package usecase

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/botgate"
	"rhb-forms-api/pkg/security"
	"rhb-forms-api/pkg/validation"
)

const formContact = "contact"

type contactUsecase struct {
	gate       *botgate.Gate
	validate   *validator.Validate
	dispatcher *Dispatcher
	secLog     *security.SecurityLogger
	log        *zap.Logger
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(gate *botgate.Gate, validate *validator.Validate, dispatcher *Dispatcher, secLog *security.SecurityLogger, log *zap.Logger) domain.ContactUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &contactUsecase{
		gate:       gate,
		validate:   validate,
		dispatcher: dispatcher,
		secLog:     secLog,
		log:        log,
	}
}

// Submit screens, validates and dispatches a contact form submission
func (uc *contactUsecase) Submit(ctx context.Context, req *domain.ContactRequest) (*domain.ContactResult, error) {
	clientID := domain.ClientIDFrom(ctx)
	requestID := domain.RequestIDFrom(ctx)

	switch uc.gate.Inspect(ctx, req.Website, req.RecaptchaToken) {
	case botgate.SilentReject:
		uc.secLog.LogHoneypotTriggered(ctx, clientID, requestID, formContact)
		return &domain.ContactResult{
			State:   domain.StateBotRejected,
			Success: true,
			Message: uc.dispatcher.contactSuccessMessage(),
		}, nil
	case botgate.HardReject:
		uc.secLog.LogChallengeFailed(ctx, clientID, requestID, formContact)
		return nil, apperror.BotSuspected()
	}

	clean := sanitizeContact(req)
	if err := uc.validate.Struct(clean); err != nil {
		fields := validation.FieldErrors(err)
		if fields == nil {
			return nil, apperror.Internal(err)
		}
		uc.secLog.LogValidationFailed(ctx, clientID, requestID, formContact, fieldNames(fields))
		return nil, apperror.Validation(fields)
	}

	if !uc.dispatcher.CanSendEmail() {
		return nil, apperror.Unavailable(
			"Contact form is temporarily unavailable. Please call us at "+uc.dispatcher.cfg.ContactPhone+".", nil)
	}

	sub := domain.ContactSubmission{
		FirstName: clean.FirstName,
		LastName:  clean.LastName,
		Email:     clean.Email,
		Phone:     clean.Phone,
		Subject:   clean.Subject,
		Message:   clean.Message,
	}
	res, err := uc.dispatcher.SendContactNotification(ctx, sub)
	if err != nil {
		uc.secLog.LogDispatchFailed(ctx, sub.Email, requestID, formContact, err)
		return nil, apperror.DispatchFailed(res.Message, err)
	}

	uc.log.Info("contact submission dispatched",
		zap.String("request_id", requestID),
		zap.String("admin_message_id", res.AdminMessageID),
		zap.String("user_message_id", res.UserMessageID),
	)
	return &domain.ContactResult{
		State:          domain.StateDispatched,
		Success:        true,
		Message:        res.Message,
		AdminMessageID: res.AdminMessageID,
		UserMessageID:  res.UserMessageID,
	}, nil
}

func sanitizeContact(req *domain.ContactRequest) *domain.ContactRequest {
	return &domain.ContactRequest{
		FirstName: validation.SanitizeLine(req.FirstName),
		LastName:  validation.SanitizeLine(req.LastName),
		Email:     validation.NormalizeEmail(req.Email),
		Phone:     validation.SanitizeLine(req.Phone),
		Subject:   validation.SanitizeLine(req.Subject),
		Message:   validation.SanitizeText(req.Message),
	}
}

func fieldNames(fields map[string][]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
