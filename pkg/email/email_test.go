package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhb-forms-api/internal/domain"
)

func sampleData() ContactEmailData {
	return ContactEmailData{
		FirstName:    "John",
		LastName:     "Doe",
		Email:        "john@example.com",
		Subject:      "I have questions about faith",
		Message:      "Line one\nLine two",
		SubmittedAt:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		ContactPhone: "(519) 304-3600",
		ContactEmail: "hello@rccgbrantford.com",
	}
}

func TestRenderAdminEmailEscapesInput(t *testing.T) {
	data := sampleData()
	data.FirstName = "<script>alert(1)</script>"
	data.Message = "hi <img src=x onerror=alert(1)>\nbye"

	html, err := RenderAdminEmail(data)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<img")
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, html, "&lt;img src=x onerror=alert(1)&gt;<br>bye")
}

func TestRenderAdminEmailPhoneFallback(t *testing.T) {
	html, err := RenderAdminEmail(sampleData())
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Phone:</strong> Not provided")

	data := sampleData()
	data.Phone = "(519) 555-0100"
	html, err = RenderAdminEmail(data)
	require.NoError(t, err)
	assert.Contains(t, html, "(519) 555-0100")
}

func TestRenderAckEmailSignature(t *testing.T) {
	html, err := RenderAckEmail(sampleData())
	require.NoError(t, err)

	assert.Contains(t, html, "Dear John,")
	assert.Contains(t, html, ChurchAddress)
	assert.Contains(t, html, "(519) 304-3600 | hello@rccgbrantford.com")
	assert.Contains(t, html, "I have questions about faith")
}

func TestResendSenderSend(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL})
	receipt, err := s.Send(context.Background(), domain.Email{
		From:    "site@example.com",
		To:      "admin@example.com",
		ReplyTo: "john@example.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_123", receipt.ID)
	assert.Equal(t, []string{"admin@example.com"}, got.To)
	assert.Equal(t, "john@example.com", got.ReplyTo)
}

func TestResendSenderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from address"}`))
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL})
	_, err := s.Send(context.Background(), domain.Email{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid from address")
}

func TestResendSenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := s.Send(context.Background(), domain.Email{To: "a@example.com"})
	assert.Error(t, err)
}

func TestResendSenderThrottles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL, RequestsPerSecond: 20})
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.Send(context.Background(), domain.Email{To: "a@example.com"})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Send(ctx, domain.Email{To: "a@example.com"})
	assert.Error(t, err)
}

func TestResendSenderNotConfigured(t *testing.T) {
	s := NewResendSender(ResendConfig{})
	assert.False(t, s.IsConfigured())
	_, err := s.Send(context.Background(), domain.Email{})
	assert.Error(t, err)
}

func TestBuildMessageRejectsHeaderInjection(t *testing.T) {
	_, err := buildMessage(domain.Email{
		From:    "site@example.com",
		To:      "admin@example.com",
		Subject: "Hi\r\nBcc: victim@example.com",
	}, "id", "smtp.example.com")
	assert.Error(t, err)
}

func TestBuildMessageHeaders(t *testing.T) {
	raw, err := buildMessage(domain.Email{
		From:    "site@example.com",
		To:      "admin@example.com",
		ReplyTo: "john@example.com",
		Subject: "New Contact Form: hello",
		HTML:    "<p>hi</p>",
	}, "abc", "smtp.example.com")
	require.NoError(t, err)

	msg := string(raw)
	assert.True(t, strings.HasPrefix(msg, "From: site@example.com\r\n"))
	assert.Contains(t, msg, "Reply-To: john@example.com\r\n")
	assert.Contains(t, msg, "Message-ID: <abc@smtp.example.com>\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}
