// Package mailinglist adapts the Mailchimp Marketing API to
// domain.ListSubscriber. All response unwrapping stays in this package.
package mailinglist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rhb-forms-api/internal/domain"
)

// Mailchimp problem titles the adapter branches on
const (
	titleMemberExists    = "Member Exists"
	titleInvalidResource = "Invalid Resource"
)

type Config struct {
	APIKey       string
	AudienceID   string
	ServerPrefix string // e.g. "us1"; derived from the key suffix when empty
	BaseURL      string // overrides https://<prefix>.api.mailchimp.com/3.0
	Timeout      time.Duration
}

type MailchimpClient struct {
	apiKey     string
	audienceID string
	baseURL    string
	client     *http.Client
}

var _ domain.ListSubscriber = (*MailchimpClient)(nil)

func NewMailchimpClient(cfg Config) *MailchimpClient {
	prefix := cfg.ServerPrefix
	if prefix == "" {
		if i := strings.LastIndex(cfg.APIKey, "-"); i >= 0 {
			prefix = cfg.APIKey[i+1:]
		}
	}
	if prefix == "" {
		prefix = "us1"
	}
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", prefix)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MailchimpClient{
		apiKey:     cfg.APIKey,
		audienceID: cfg.AudienceID,
		baseURL:    strings.TrimRight(base, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *MailchimpClient) IsConfigured() bool {
	return c.apiKey != "" && c.audienceID != ""
}

type memberRequest struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

type memberResponse struct {
	ID string `json:"id"`
}

// problem is Mailchimp's RFC 7807 error body
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// AddMember subscribes m to the configured audience
func (c *MailchimpClient) AddMember(ctx context.Context, m domain.Member) (domain.SubscribeResult, error) {
	failed := domain.SubscribeResult{Status: domain.SubscribeFailed}
	if !c.IsConfigured() {
		return failed, errors.New("mailchimp: configuration is incomplete")
	}

	payload, err := json.Marshal(memberRequest{
		EmailAddress: m.Email,
		Status:       "subscribed",
		MergeFields:  m.MergeFields,
		Tags:         m.Tags,
	})
	if err != nil {
		return failed, fmt.Errorf("mailchimp: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/lists/%s/members", c.baseURL, url.PathEscape(c.audienceID))
	resp, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return failed, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return failed, fmt.Errorf("mailchimp: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out memberResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return failed, fmt.Errorf("mailchimp: decode response: %w", err)
		}
		return domain.SubscribeResult{Status: domain.SubscribeOK, ProviderID: out.ID}, nil
	}

	var p problem
	_ = json.Unmarshal(body, &p)
	if resp.StatusCode == http.StatusBadRequest {
		switch {
		case p.Title == titleMemberExists:
			return domain.SubscribeResult{Status: domain.SubscribeAlreadySubscribed}, nil
		case p.Title == titleInvalidResource && p.onlyEmailErrors():
			return domain.SubscribeResult{Status: domain.SubscribeInvalidEmail}, nil
		}
	}
	return failed, fmt.Errorf("mailchimp: status %d: %s", resp.StatusCode, p.Title)
}

// onlyEmailErrors reports whether every field error concerns the address.
// Fake or disposable addresses come back with a detail and no errors list.
func (p problem) onlyEmailErrors() bool {
	for _, e := range p.Errors {
		if e.Field != "email_address" {
			return false
		}
	}
	return true
}

// Ping reads the audience to confirm the key and list id are valid
func (c *MailchimpClient) Ping(ctx context.Context) error {
	if !c.IsConfigured() {
		return errors.New("mailchimp: configuration is incomplete")
	}
	endpoint := fmt.Sprintf("%s/lists/%s", c.baseURL, url.PathEscape(c.audienceID))
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailchimp: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *MailchimpClient) do(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("mailchimp: build request: %w", err)
	}
	req.SetBasicAuth("anystring", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailchimp: request failed: %w", err)
	}
	return resp, nil
}
