package domain

import "context"

type NewsletterRequest struct {
	Email          string `json:"email" validate:"required,email,max=254" example:"jane@example.com"`
	FirstName      string `json:"firstName,omitempty" validate:"omitempty,min=2,max=50,person_name,no_repeats,vowel_ratio,not_shouting" example:"Jane"`
	Website        string `json:"website,omitempty" validate:"-"`
	RecaptchaToken string `json:"recaptchaToken,omitempty" validate:"-"`
}

type NewsletterSubmission struct {
	Email     string
	FirstName string
}

type NewsletterResult struct {
	State      SubmissionState `json:"-"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	ProviderID string          `json:"-"`
}

type NewsletterUsecase interface {
	Subscribe(ctx context.Context, req *NewsletterRequest) (*NewsletterResult, error)
}
