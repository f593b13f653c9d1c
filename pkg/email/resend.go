package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rhb-forms-api/internal/domain"
)

const (
	defaultResendBaseURL = "https://api.resend.com"
	// Resend's default team quota
	defaultResendRPS = 2
)

// ResendConfig holds Resend API settings
type ResendConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls. Zero uses the default.
	RequestsPerSecond float64
}

// ResendSender sends email through the Resend HTTP API
type ResendSender struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	throttle *rate.Limiter
}

var _ domain.EmailSender = (*ResendSender)(nil)

func NewResendSender(cfg ResendConfig) *ResendSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultResendBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultResendRPS
	}
	return &ResendSender{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		throttle: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (s *ResendSender) IsConfigured() bool {
	return s.apiKey != ""
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// Send posts msg to /emails and returns the provider's id
func (s *ResendSender) Send(ctx context.Context, msg domain.Email) (domain.SendReceipt, error) {
	if !s.IsConfigured() {
		return domain.SendReceipt{}, errors.New("resend: RESEND_API_KEY is not configured")
	}

	payload, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: encode request: %w", err)
	}

	// the admin and acknowledgement sends arrive back to back
	if err := s.throttle.Wait(ctx); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: throttled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr resendError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return domain.SendReceipt{}, fmt.Errorf("resend: %d %s: %s", resp.StatusCode, apiErr.Name, apiErr.Message)
		}
		return domain.SendReceipt{}, fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
	}

	var out resendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("resend: decode response: %w", err)
	}
	if out.ID == "" {
		return domain.SendReceipt{}, errors.New("resend: response without id")
	}
	return domain.SendReceipt{ID: out.ID}, nil
}

// Ping checks the API key against /domains without sending anything
func (s *ResendSender) Ping(ctx context.Context) error {
	if !s.IsConfigured() {
		return errors.New("resend: RESEND_API_KEY is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/domains", nil)
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
	}
	return nil
}
