package domain

import "context"

// ContactRequest represents a contact form submission as sent by the browser.
// Website is the honeypot field and is never shown to humans.
type ContactRequest struct {
	FirstName      string `json:"firstName" validate:"required,min=2,max=50,person_name,no_repeats,vowel_ratio,not_shouting" example:"John"`
	LastName       string `json:"lastName" validate:"required,min=2,max=50,person_name,no_repeats,vowel_ratio,not_shouting" example:"Doe"`
	Email          string `json:"email" validate:"required,email,max=254" example:"john@example.com"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,phone_e164" example:"(519) 555-0100"`
	Subject        string `json:"subject" validate:"required,max=100" example:"I have questions about faith"`
	Message        string `json:"message" validate:"required,min=10,max=1000,message_text,no_repeats,vowel_ratio,not_shouting" example:"This is a legitimate message from a real person."`
	Website        string `json:"website,omitempty" validate:"-"`
	RecaptchaToken string `json:"recaptchaToken,omitempty" validate:"-"`
}

// ContactSubmission is a contact request that passed validation. Only this
// type reaches the notification dispatcher.
type ContactSubmission struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Subject   string
	Message   string
}

// ContactResult is what the contact flow reports back to the handler
type ContactResult struct {
	State          SubmissionState `json:"-"`
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	AdminMessageID string          `json:"-"`
	UserMessageID  string          `json:"-"`
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit runs the bot gate and validator, then dispatches notifications.
	// Rejections come back as *apperror.AppError.
	Submit(ctx context.Context, req *ContactRequest) (*ContactResult, error)
}
