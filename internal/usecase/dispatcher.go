package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/email"
)

// NewsletterTag marks members who signed up through the website
const NewsletterTag = "Website Signup"

type DispatcherConfig struct {
	FromEmail    string
	ToEmail      string
	ContactPhone string
	ContactEmail string
	Timeout      time.Duration
}

// Dispatcher sends the outbound side effects of an admitted submission.
// Either collaborator may be nil when it is not configured.
type Dispatcher struct {
	sender     domain.EmailSender
	subscriber domain.ListSubscriber
	cfg        DispatcherConfig
	log        *zap.Logger
	now        func() time.Time
}

func NewDispatcher(sender domain.EmailSender, subscriber domain.ListSubscriber, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:     sender,
		subscriber: subscriber,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// CanSendEmail reports whether contact notifications can be delivered
func (d *Dispatcher) CanSendEmail() bool {
	return d.sender != nil && d.cfg.FromEmail != "" && d.cfg.ToEmail != ""
}

// CanSubscribe reports whether a mailing list is configured
func (d *Dispatcher) CanSubscribe() bool {
	return d.subscriber != nil
}

// NotificationResult is the outcome of SendContactNotification
type NotificationResult struct {
	Success        bool
	AdminMessageID string
	UserMessageID  string
	Message        string
}

func (d *Dispatcher) contactSuccessMessage() string {
	return "Thank you for your message! We'll get back to you within 24-48 hours. " +
		"If you need immediate assistance, please call us at " + d.cfg.ContactPhone + "."
}

func (d *Dispatcher) contactFailureMessage() string {
	return "Unable to send your message at this time. Please try again later or call us directly at " +
		d.cfg.ContactPhone + "."
}

// SendContactNotification sends the admin notification and the submitter
// acknowledgement. Both sends are always attempted. If either fails the
// result is a failure carrying the joined errors.
func (d *Dispatcher) SendContactNotification(ctx context.Context, sub domain.ContactSubmission) (NotificationResult, error) {
	failed := NotificationResult{Message: d.contactFailureMessage()}
	if !d.CanSendEmail() {
		return failed, errors.New("email sender is not configured")
	}

	data := email.ContactEmailData{
		FirstName:    sub.FirstName,
		LastName:     sub.LastName,
		Email:        sub.Email,
		Phone:        sub.Phone,
		Subject:      sub.Subject,
		Message:      sub.Message,
		SubmittedAt:  d.now(),
		ContactPhone: d.cfg.ContactPhone,
		ContactEmail: d.cfg.ContactEmail,
	}
	adminHTML, err := email.RenderAdminEmail(data)
	if err != nil {
		return failed, err
	}
	ackHTML, err := email.RenderAckEmail(data)
	if err != nil {
		return failed, err
	}

	adminReceipt, adminErr := d.send(ctx, domain.Email{
		From:    d.cfg.FromEmail,
		To:      d.cfg.ToEmail,
		ReplyTo: sub.Email,
		Subject: email.AdminSubject(sub.Subject),
		HTML:    adminHTML,
	})
	userReceipt, userErr := d.send(ctx, domain.Email{
		From:    d.cfg.FromEmail,
		To:      sub.Email,
		Subject: email.AckSubject,
		HTML:    ackHTML,
	})

	if adminErr != nil || userErr != nil {
		var errs []error
		if adminErr != nil {
			errs = append(errs, fmt.Errorf("admin notification: %w", adminErr))
		}
		if userErr != nil {
			errs = append(errs, fmt.Errorf("acknowledgement: %w", userErr))
		}
		err := errors.Join(errs...)
		d.log.Error("contact notification failed",
			zap.Error(err),
			zap.String("admin_message_id", adminReceipt.ID),
			zap.String("user_message_id", userReceipt.ID),
		)
		return failed, err
	}

	return NotificationResult{
		Success:        true,
		AdminMessageID: adminReceipt.ID,
		UserMessageID:  userReceipt.ID,
		Message:        d.contactSuccessMessage(),
	}, nil
}

// send runs one delivery with its own deadline. The request context is
// detached so a client disconnect does not abort a send in flight.
func (d *Dispatcher) send(ctx context.Context, msg domain.Email) (domain.SendReceipt, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
	defer cancel()
	return d.sender.Send(ctx, msg)
}

// SubscriptionResult is the outcome of SubscribeToList
type SubscriptionResult struct {
	Success    bool
	ProviderID string
	Message    string
}

const (
	subscribeSuccessMessage  = "Thank you for subscribing! You'll receive updates about our church community, events, and inspiring messages."
	alreadySubscribedMessage = "This email is already subscribed to our newsletter."
	subscribeFailedMessage   = "Unable to subscribe at this time. Please try again later or contact us directly."
)

// SubscribeToList adds the submitter to the mailing list. Provider outcomes
// come back as *apperror.AppError, the same vocabulary the contact flow uses.
func (d *Dispatcher) SubscribeToList(ctx context.Context, sub domain.NewsletterSubmission) (SubscriptionResult, error) {
	if !d.CanSubscribe() {
		return SubscriptionResult{}, apperror.Unavailable("Newsletter signup is temporarily unavailable. Please try again later.", nil)
	}

	m := domain.Member{Email: sub.Email, Tags: []string{NewsletterTag}}
	if sub.FirstName != "" {
		m.MergeFields = map[string]string{"FNAME": sub.FirstName}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
	defer cancel()

	res, err := d.subscriber.AddMember(ctx, m)
	switch res.Status {
	case domain.SubscribeOK:
		if err == nil {
			return SubscriptionResult{Success: true, ProviderID: res.ProviderID, Message: subscribeSuccessMessage}, nil
		}
	case domain.SubscribeAlreadySubscribed:
		return SubscriptionResult{}, apperror.Conflict(alreadySubscribedMessage)
	case domain.SubscribeInvalidEmail:
		return SubscriptionResult{}, apperror.Validation(map[string][]string{
			"email": {"Please enter a valid email address"},
		})
	}

	if err == nil {
		err = fmt.Errorf("subscriber returned status %s", res.Status)
	}
	d.log.Error("newsletter subscription failed", zap.Error(err))
	return SubscriptionResult{}, apperror.DispatchFailed(subscribeFailedMessage, err)
}
