package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps JSON field names to user-facing labels
var FieldLabels = map[string]string{
	"firstName": "First name",
	"lastName":  "Last name",
	"email":     "Email",
	"phone":     "Phone number",
	"subject":   "Subject",
	"message":   "Message",
	"type":      "Event type",
	"details":   "Details",
	"timestamp": "Timestamp",
}

// FieldMessages overrides the generic message for a field and tag pair
var FieldMessages = map[string]map[string]string{
	"email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"phone": {
		"phone_e164": "Please enter a valid phone number",
	},
	"subject": {
		"required": "Please select how we can help you",
	},
}

// FieldErrors converts validator.ValidationErrors into messages keyed by the
// JSON field name. A non-validation error yields a nil map.
func FieldErrors(err error) map[string][]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string][]string, len(validationErrors))
	for _, e := range validationErrors {
		name := e.Field()
		fields[name] = append(fields[name], formatSingleError(e))
	}
	return fields
}

// FormatValidationErrors flattens validation errors into a list of messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	fieldName := e.Field()
	tag := e.Tag()
	param := e.Param()

	if overrides, ok := FieldMessages[fieldName]; ok {
		if msg, ok := overrides[tag]; ok {
			return msg
		}
	}

	label := getFieldLabel(fieldName)

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)

	case "max":
		return fmt.Sprintf("%s must be less than %s characters", label, param)

	case "email":
		return "Please enter a valid email address"

	case "oneof":
		return fmt.Sprintf("%s is not recognised", label)

	case "person_name":
		return fmt.Sprintf("%s can only contain letters, spaces, hyphens, apostrophes, and periods", label)

	case "phone_e164":
		return "Please enter a valid phone number"

	case "message_text":
		return fmt.Sprintf("%s contains characters that are not allowed", label)

	case "no_repeats":
		return fmt.Sprintf("%s contains too many repeated characters", label)

	case "vowel_ratio":
		return fmt.Sprintf("%s does not look like real words", label)

	case "not_shouting":
		return fmt.Sprintf("%s has too many capital letters", label)

	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s is invalid", label)
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
