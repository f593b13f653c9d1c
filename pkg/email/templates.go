package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ContactEmailData holds the data for contact form emails. Values are plain
// text; html/template escapes them on render.
type ContactEmailData struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Subject      string
	Message      string
	SubmittedAt  time.Time
	ContactPhone string
	ContactEmail string
}

// MessageLines splits the message so the template can join lines with <br>
// without marking any user text as safe HTML.
func (d ContactEmailData) MessageLines() []string {
	return strings.Split(d.Message, "\n")
}

// PhoneOrDefault renders a missing phone as "Not provided"
func (d ContactEmailData) PhoneOrDefault() string {
	if d.Phone == "" {
		return "Not provided"
	}
	return d.Phone
}

// Signature block of the acknowledgement email
const (
	ChurchName    = "Restoration House Brantford"
	ChurchAddress = "7 Burnley Ave, Brantford, ON N3T 1T5"
	ChurchTagline = "Member of the Redeemed Christian Church of God"
)

// adminEmailTemplate is the HTML template for the internal notification
const adminEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>New Contact Form Submission</h2>

    <h3>Contact Information:</h3>
    <ul>
        <li><strong>Name:</strong> {{.FirstName}} {{.LastName}}</li>
        <li><strong>Email:</strong> {{.Email}}</li>
        <li><strong>Phone:</strong> {{.PhoneOrDefault}}</li>
    </ul>

    <h3>Subject:</h3>
    <p><strong>{{.Subject}}</strong></p>

    <h3>Message:</h3>
    <p style="background: #f5f5f5; padding: 15px; border-radius: 5px;">{{range $i, $line := .MessageLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>

    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">
        Submitted: {{.SubmittedAt.Format "Jan 2, 2006 3:04 PM MST"}}<br>
        Source: Church Website Contact Form
    </p>
</body>
</html>`

// ackEmailTemplate is the auto-response sent to the submitter
const ackEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Thank you for reaching out!</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Thank you for reaching out!</h2>

    <p>Dear {{.FirstName}},</p>

    <p>Thank you for contacting {{.ChurchName}}! We have received your message regarding "<strong>{{.Subject}}</strong>" and will get back to you as soon as possible.</p>

    <p>Our team typically responds within 24-48 hours. If you need immediate assistance, please feel free to call us at <strong>{{.ContactPhone}}</strong>.</p>

    <p>We look forward to connecting with you!</p>

    <p>Blessings,<br>
    <strong>The RHB Team</strong></p>

    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">
        <strong>{{.ChurchName}}</strong><br>
        {{.ChurchAddress}}<br>
        {{.ContactPhone}}{{if .ContactEmail}} | {{.ContactEmail}}{{end}}<br>
        {{.ChurchTagline}}
    </p>
</body>
</html>`

var (
	adminTmpl = template.Must(template.New("admin").Parse(adminEmailTemplate))
	ackTmpl   = template.Must(template.New("ack").Parse(ackEmailTemplate))
)

// AdminSubject is the subject line of the internal notification
func AdminSubject(subject string) string {
	return "New Contact Form: " + subject
}

// AckSubject is the subject line of the acknowledgement
const AckSubject = "Thank you for contacting " + ChurchName

// RenderAdminEmail renders the internal notification body
func RenderAdminEmail(data ContactEmailData) (string, error) {
	var body bytes.Buffer
	if err := adminTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute admin email template: %w", err)
	}
	return body.String(), nil
}

// RenderAckEmail renders the acknowledgement body
func RenderAckEmail(data ContactEmailData) (string, error) {
	view := struct {
		ContactEmailData
		ChurchName    string
		ChurchAddress string
		ChurchTagline string
	}{data, ChurchName, ChurchAddress, ChurchTagline}

	var body bytes.Buffer
	if err := ackTmpl.Execute(&body, view); err != nil {
		return "", fmt.Errorf("failed to execute acknowledgement template: %w", err)
	}
	return body.String(), nil
}
