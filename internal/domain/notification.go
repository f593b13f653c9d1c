package domain

import "context"

// Email is one outbound message. HTML must already be escaped.
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// SendReceipt carries the provider's message id
type SendReceipt struct {
	ID string
}

// EmailSender delivers transactional email
type EmailSender interface {
	Send(ctx context.Context, msg Email) (SendReceipt, error)
}

// Member is a mailing-list signup
type Member struct {
	Email       string
	MergeFields map[string]string
	Tags        []string
}

// SubscribeStatus tags the outcome of AddMember
type SubscribeStatus int

const (
	SubscribeOK SubscribeStatus = iota
	SubscribeAlreadySubscribed
	SubscribeInvalidEmail
	SubscribeFailed
)

func (s SubscribeStatus) String() string {
	switch s {
	case SubscribeOK:
		return "ok"
	case SubscribeAlreadySubscribed:
		return "already_subscribed"
	case SubscribeInvalidEmail:
		return "invalid_email"
	default:
		return "failed"
	}
}

type SubscribeResult struct {
	Status     SubscribeStatus
	ProviderID string
}

// ListSubscriber adds members to the newsletter audience. A non-nil error
// always comes with SubscribeFailed; the other statuses return a nil error.
type ListSubscriber interface {
	AddMember(ctx context.Context, m Member) (SubscribeResult, error)
}

// ChallengeResult is a verified CAPTCHA response. Score is nil when the
// provider does not score tokens.
type ChallengeResult struct {
	Success bool
	Score   *float64
}

type ChallengeVerifier interface {
	Verify(ctx context.Context, token string) (ChallengeResult, error)
}

// Pinger is implemented by collaborators that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}
