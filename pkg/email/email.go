package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"rhb-forms-api/internal/domain"
)

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPSender sends email through an SMTP relay with STARTTLS
type SMTPSender struct {
	cfg SMTPConfig
}

var _ domain.EmailSender = (*SMTPSender)(nil)

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// IsConfigured checks if the sender has a relay to talk to
func (s *SMTPSender) IsConfigured() bool {
	return s.cfg.Host != ""
}

// Send delivers msg. The whole SMTP conversation is bounded by the
// configured timeout or the context deadline, whichever is sooner.
func (s *SMTPSender) Send(ctx context.Context, msg domain.Email) (domain.SendReceipt, error) {
	if !s.IsConfigured() {
		return domain.SendReceipt{}, errors.New("smtp: host not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	messageID := uuid.NewString()
	raw, err := buildMessage(msg, messageID, s.cfg.Host)
	if err != nil {
		return domain.SendReceipt{}, err
	}

	c, err := s.dial(ctx)
	if err != nil {
		return domain.SendReceipt{}, err
	}
	defer c.Close()

	if err := c.Mail(msg.From); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("smtp: rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return domain.SendReceipt{}, fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("smtp: finish body: %w", err)
	}
	_ = c.Quit()

	return domain.SendReceipt{ID: messageID}, nil
}

// Ping opens a session with the relay and authenticates without sending
func (s *SMTPSender) Ping(ctx context.Context) error {
	if !s.IsConfigured() {
		return errors.New("smtp: host not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Quit()
}

// dial connects, upgrades to TLS when offered and authenticates. The
// connection deadline follows ctx.
func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp: handshake: %w", err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp: starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp: auth: %w", err)
		}
	}
	return c, nil
}

// buildMessage constructs the MIME message
func buildMessage(msg domain.Email, messageID, host string) ([]byte, error) {
	for _, h := range []string{msg.From, msg.To, msg.ReplyTo, msg.Subject} {
		if strings.ContainsAny(h, "\r\n") {
			return nil, errors.New("smtp: header contains line break")
		}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", messageID, host)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes(), nil
}
