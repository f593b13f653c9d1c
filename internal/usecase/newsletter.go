package usecase

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/botgate"
	"rhb-forms-api/pkg/security"
	"rhb-forms-api/pkg/validation"
)

const formNewsletter = "newsletter"

type newsletterUsecase struct {
	gate       *botgate.Gate
	validate   *validator.Validate
	dispatcher *Dispatcher
	secLog     *security.SecurityLogger
	log        *zap.Logger
}

func NewNewsletterUsecase(gate *botgate.Gate, validate *validator.Validate, dispatcher *Dispatcher, secLog *security.SecurityLogger, log *zap.Logger) domain.NewsletterUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &newsletterUsecase{
		gate:       gate,
		validate:   validate,
		dispatcher: dispatcher,
		secLog:     secLog,
		log:        log,
	}
}

func (uc *newsletterUsecase) Subscribe(ctx context.Context, req *domain.NewsletterRequest) (*domain.NewsletterResult, error) {
	clientID := domain.ClientIDFrom(ctx)
	requestID := domain.RequestIDFrom(ctx)

	switch uc.gate.Inspect(ctx, req.Website, req.RecaptchaToken) {
	case botgate.SilentReject:
		uc.secLog.LogHoneypotTriggered(ctx, clientID, requestID, formNewsletter)
		return &domain.NewsletterResult{
			State:   domain.StateBotRejected,
			Success: true,
			Message: subscribeSuccessMessage,
		}, nil
	case botgate.HardReject:
		uc.secLog.LogChallengeFailed(ctx, clientID, requestID, formNewsletter)
		return nil, apperror.BotSuspected()
	}

	clean := &domain.NewsletterRequest{
		Email:     validation.NormalizeEmail(req.Email),
		FirstName: validation.SanitizeLine(req.FirstName),
	}
	if err := uc.validate.Struct(clean); err != nil {
		fields := validation.FieldErrors(err)
		if fields == nil {
			return nil, apperror.Internal(err)
		}
		uc.secLog.LogValidationFailed(ctx, clientID, requestID, formNewsletter, fieldNames(fields))
		return nil, apperror.Validation(fields)
	}

	res, err := uc.dispatcher.SubscribeToList(ctx, domain.NewsletterSubmission{
		Email:     clean.Email,
		FirstName: clean.FirstName,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Kind == apperror.KindDispatchFailed {
			uc.secLog.LogDispatchFailed(ctx, clean.Email, requestID, formNewsletter, appErr.Err)
		}
		return nil, err
	}

	uc.log.Info("newsletter subscription added",
		zap.String("request_id", requestID),
		zap.String("provider_id", res.ProviderID),
	)
	return &domain.NewsletterResult{
		State:      domain.StateDispatched,
		Success:    true,
		Message:    res.Message,
		ProviderID: res.ProviderID,
	}, nil
}
