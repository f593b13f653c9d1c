package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/internal/usecase"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/botgate"
	"rhb-forms-api/pkg/security"
	"rhb-forms-api/pkg/validation"
)

// Mock collaborators
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg domain.Email) (domain.SendReceipt, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(domain.SendReceipt), args.Error(1)
}

type MockListSubscriber struct {
	mock.Mock
}

func (m *MockListSubscriber) AddMember(ctx context.Context, member domain.Member) (domain.SubscribeResult, error) {
	args := m.Called(ctx, member)
	return args.Get(0).(domain.SubscribeResult), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (domain.ChallengeResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.ChallengeResult), args.Error(1)
}

const (
	adminAddr = "admin@rccgbrantford.com"
	fromAddr  = "website@rccgbrantford.com"
	phone     = "(519) 304-3600"
)

func dispatcherConfig() usecase.DispatcherConfig {
	return usecase.DispatcherConfig{
		FromEmail:    fromAddr,
		ToEmail:      adminAddr,
		ContactPhone: phone,
		ContactEmail: "hello@rccgbrantford.com",
	}
}

func newContactUsecase(sender domain.EmailSender, verifier domain.ChallengeVerifier) domain.ContactUsecase {
	gate := botgate.New(verifier, nil)
	dispatcher := usecase.NewDispatcher(sender, nil, dispatcherConfig(), nil)
	return usecase.NewContactUsecase(gate, validation.New(), dispatcher, security.NewSecurityLogger(nil, "test", "test"), nil)
}

func validContact() *domain.ContactRequest {
	return &domain.ContactRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Subject:   "I have questions about faith",
		Message:   "This is a legitimate message from a real person.",
	}
}

func toAddr(addr string) interface{} {
	return mock.MatchedBy(func(e domain.Email) bool { return e.To == addr })
}

func requireAppError(t *testing.T, err error, kind apperror.Kind) *apperror.AppError {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	return appErr
}

func TestContactRoundTrip(t *testing.T) {
	sender := new(MockEmailSender)
	sender.On("Send", mock.Anything, toAddr(adminAddr)).Return(domain.SendReceipt{ID: "admin-1"}, nil).Once()
	sender.On("Send", mock.Anything, toAddr("john@example.com")).Return(domain.SendReceipt{ID: "user-1"}, nil).Once()

	uc := newContactUsecase(sender, nil)
	res, err := uc.Submit(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, domain.StateDispatched, res.State)
	assert.True(t, res.Success)
	assert.Equal(t, "admin-1", res.AdminMessageID)
	assert.Equal(t, "user-1", res.UserMessageID)
	assert.Contains(t, res.Message, phone)
	sender.AssertExpectations(t)

	admin := sender.Calls[0].Arguments.Get(1).(domain.Email)
	assert.Equal(t, fromAddr, admin.From)
	assert.Equal(t, "john@example.com", admin.ReplyTo)
	assert.Equal(t, "New Contact Form: I have questions about faith", admin.Subject)
}

func TestContactHoneypotSkipsDispatch(t *testing.T) {
	sender := new(MockEmailSender)
	uc := newContactUsecase(sender, nil)

	req := validContact()
	req.Website = "http://cheap-pills.example"
	res, err := uc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, domain.StateBotRejected, res.State)
	sender.AssertNumberOfCalls(t, "Send", 0)
}

func TestContactHoneypotWinsOverInvalidPayload(t *testing.T) {
	sender := new(MockEmailSender)
	uc := newContactUsecase(sender, nil)

	res, err := uc.Submit(context.Background(), &domain.ContactRequest{Website: "x"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	sender.AssertNumberOfCalls(t, "Send", 0)
}

func TestContactLowChallengeScore(t *testing.T) {
	sender := new(MockEmailSender)
	verifier := new(MockVerifier)
	low := 0.1
	verifier.On("Verify", mock.Anything, "tok").Return(domain.ChallengeResult{Success: true, Score: &low}, nil)

	uc := newContactUsecase(sender, verifier)
	req := validContact()
	req.RecaptchaToken = "tok"
	_, err := uc.Submit(context.Background(), req)

	appErr := requireAppError(t, err, apperror.KindBotSuspected)
	assert.Equal(t, 400, appErr.Code)
	assert.NotContains(t, strings.ToLower(appErr.Message), "score")
	sender.AssertNumberOfCalls(t, "Send", 0)
}

func TestContactValidationFailure(t *testing.T) {
	sender := new(MockEmailSender)
	uc := newContactUsecase(sender, nil)

	req := validContact()
	req.Phone = "abcd1234efgh"
	_, err := uc.Submit(context.Background(), req)

	appErr := requireAppError(t, err, apperror.KindValidationFailed)
	assert.Equal(t, []string{"phone"}, keys(appErr.Fields))
	sender.AssertNumberOfCalls(t, "Send", 0)
}

func TestContactScriptNameRejected(t *testing.T) {
	sender := new(MockEmailSender)
	uc := newContactUsecase(sender, nil)

	req := validContact()
	req.FirstName = "<script>alert('x')</script>"
	_, err := uc.Submit(context.Background(), req)

	appErr := requireAppError(t, err, apperror.KindValidationFailed)
	assert.Contains(t, appErr.Fields, "firstName")
	sender.AssertNumberOfCalls(t, "Send", 0)
}

func TestContactSanitizesBeforeDispatch(t *testing.T) {
	sender := new(MockEmailSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(domain.SendReceipt{ID: "id"}, nil)

	uc := newContactUsecase(sender, nil)
	req := validContact()
	req.FirstName = "  John  "
	req.Email = " John@Example.com "
	_, err := uc.Submit(context.Background(), req)
	require.NoError(t, err)

	user := sender.Calls[1].Arguments.Get(1).(domain.Email)
	assert.Equal(t, "john@example.com", user.To)
	assert.Contains(t, user.HTML, "Dear John,")
}

func TestContactDispatchFailure(t *testing.T) {
	sender := new(MockEmailSender)
	sender.On("Send", mock.Anything, toAddr(adminAddr)).Return(domain.SendReceipt{}, errors.New("smtp 554 relay denied")).Once()
	sender.On("Send", mock.Anything, toAddr("john@example.com")).Return(domain.SendReceipt{ID: "user-1"}, nil).Once()

	uc := newContactUsecase(sender, nil)
	_, err := uc.Submit(context.Background(), validContact())

	appErr := requireAppError(t, err, apperror.KindDispatchFailed)
	assert.Equal(t, 500, appErr.Code)
	assert.Contains(t, appErr.Message, phone)
	assert.NotContains(t, appErr.Message, "relay denied")
	// both sends are attempted
	sender.AssertExpectations(t)
}

func TestContactUnavailableWithoutSender(t *testing.T) {
	uc := newContactUsecase(nil, nil)
	_, err := uc.Submit(context.Background(), validContact())
	requireAppError(t, err, apperror.KindUnavailable)
}

func newNewsletterUsecase(sub domain.ListSubscriber) domain.NewsletterUsecase {
	dispatcher := usecase.NewDispatcher(nil, sub, dispatcherConfig(), nil)
	return usecase.NewNewsletterUsecase(botgate.New(nil, nil), validation.New(), dispatcher, nil, nil)
}

func TestNewsletterSubscribe(t *testing.T) {
	sub := new(MockListSubscriber)
	sub.On("AddMember", mock.Anything, mock.MatchedBy(func(m domain.Member) bool {
		return m.Email == "jane@example.com" &&
			m.MergeFields["FNAME"] == "Jane" &&
			len(m.Tags) == 1 && m.Tags[0] == usecase.NewsletterTag
	})).Return(domain.SubscribeResult{Status: domain.SubscribeOK, ProviderID: "mc-1"}, nil)

	uc := newNewsletterUsecase(sub)
	res, err := uc.Subscribe(context.Background(), &domain.NewsletterRequest{Email: "Jane@Example.com", FirstName: "Jane"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, domain.StateDispatched, res.State)
	assert.Equal(t, "mc-1", res.ProviderID)
	sub.AssertExpectations(t)
}

func TestNewsletterTaggedOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		result domain.SubscribeResult
		err    error
		kind   apperror.Kind
		code   int
	}{
		{"already subscribed", domain.SubscribeResult{Status: domain.SubscribeAlreadySubscribed}, nil, apperror.KindAlreadySubscribed, 409},
		{"invalid email", domain.SubscribeResult{Status: domain.SubscribeInvalidEmail}, nil, apperror.KindValidationFailed, 400},
		{"failed", domain.SubscribeResult{Status: domain.SubscribeFailed}, errors.New("503 from provider"), apperror.KindDispatchFailed, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := new(MockListSubscriber)
			sub.On("AddMember", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			uc := newNewsletterUsecase(sub)
			_, err := uc.Subscribe(context.Background(), &domain.NewsletterRequest{Email: "jane@example.com"})

			appErr := requireAppError(t, err, tt.kind)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestNewsletterHoneypot(t *testing.T) {
	sub := new(MockListSubscriber)
	uc := newNewsletterUsecase(sub)

	res, err := uc.Subscribe(context.Background(), &domain.NewsletterRequest{Email: "bot@example.com", Website: "filled"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	sub.AssertNumberOfCalls(t, "AddMember", 0)
}

func TestNewsletterValidation(t *testing.T) {
	sub := new(MockListSubscriber)
	uc := newNewsletterUsecase(sub)

	_, err := uc.Subscribe(context.Background(), &domain.NewsletterRequest{Email: "nope"})
	appErr := requireAppError(t, err, apperror.KindValidationFailed)
	assert.Contains(t, appErr.Fields, "email")
	sub.AssertNumberOfCalls(t, "AddMember", 0)
}

func TestSecurityEventRecord(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	uc := usecase.NewSecurityEventUsecase(validation.New(), security.NewSecurityLogger(log, "test", "test"), log)

	ctx := context.Background()
	uc.Record(ctx, &domain.SecurityEventRequest{
		Type: domain.SecurityEventRapidClicks, Details: "Detected 6 rapid clicks", Timestamp: 1710061200000,
	}, "1.2.3.4", "Mozilla/5.0")
	uc.Record(ctx, &domain.SecurityEventRequest{
		Type: domain.SecurityEventSuspiciousActivity, Details: "Dynamic SCRIPT injection detected", Timestamp: 1710061200000,
	}, "1.2.3.4", "Mozilla/5.0")
	uc.Record(ctx, &domain.SecurityEventRequest{
		Type: "made_up", Details: "x", Timestamp: 1,
	}, "1.2.3.4", "Mozilla/5.0")

	reports := logs.FilterMessage(string(security.EventClientReport)).All()
	require.Len(t, reports, 2)
	assert.Equal(t, zapcore.InfoLevel, reports[0].Level)
	assert.Equal(t, "Mozilla/5.0", reports[0].ContextMap()["user_agent"])
	assert.Contains(t, reports[0].ContextMap()["details"], `"url":"unknown"`)
	assert.Equal(t, zapcore.ErrorLevel, reports[1].Level)
	assert.Equal(t, 1, logs.FilterMessage("dropping malformed security event").Len())
}

func TestSubmissionStateTerminal(t *testing.T) {
	assert.False(t, domain.StateReceived.Terminal())
	assert.False(t, domain.StateAdmitted.Terminal())
	for _, s := range []domain.SubmissionState{
		domain.StateRateLimited, domain.StateBotRejected, domain.StateValidationFailed,
		domain.StateDispatched, domain.StateDispatchFailed,
	} {
		assert.True(t, s.Terminal(), s)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReportsRedisReachability(t *testing.T) {
	up := usecase.NewHealthUsecase(usecase.HealthDeps{
		Environment:    "development",
		Email:          stubPinger{},
		RateLimitStore: "redis",
		RateLimitRedis: stubPinger{},
	}).Check(context.Background())
	assert.Equal(t, "ok", up.Status)
	assert.True(t, up.Services["redis_ratelimit"])

	down := usecase.NewHealthUsecase(usecase.HealthDeps{
		Environment:    "development",
		RateLimitStore: "redis",
		RateLimitRedis: stubPinger{err: errors.New("dial tcp: connection refused")},
	}).Check(context.Background())
	assert.Equal(t, "degraded", down.Status)
	assert.False(t, down.Services["redis_ratelimit"])

	memory := usecase.NewHealthUsecase(usecase.HealthDeps{
		Environment:    "development",
		RateLimitStore: "memory",
	}).Check(context.Background())
	assert.Equal(t, "ok", memory.Status)
	assert.False(t, memory.Services["redis_ratelimit"])
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
