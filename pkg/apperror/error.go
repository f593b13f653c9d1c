package apperror

import (
	"net/http"
	"time"
)

// Kind classifies a failure for the caller-facing response.
type Kind string

const (
	KindRateLimited       Kind = "rate_limited"
	KindBotSuspected      Kind = "bot_suspected"
	KindValidationFailed  Kind = "validation_failed"
	KindDispatchFailed    Kind = "dispatch_failed"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindAlreadySubscribed Kind = "already_subscribed"
	KindUnavailable       Kind = "unavailable"
	KindBadRequest        Kind = "bad_request"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

type AppError struct {
	Kind    Kind                `json:"kind"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"errors,omitempty"`
	ResetAt time.Time           `json:"-"`
	Err     error               `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Kind:    kindForStatus(code),
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

// RateLimited carries the window reset so the boundary can emit Retry-After.
func RateLimited(message string, resetAt time.Time) *AppError {
	return &AppError{
		Kind:    KindRateLimited,
		Code:    http.StatusTooManyRequests,
		Message: message,
		ResetAt: resetAt,
	}
}

// BotSuspected never says which check tripped.
func BotSuspected() *AppError {
	return &AppError{
		Kind:    KindBotSuspected,
		Code:    http.StatusBadRequest,
		Message: "Security verification failed. Please try again.",
	}
}

func Validation(fields map[string][]string) *AppError {
	return &AppError{
		Kind:    KindValidationFailed,
		Code:    http.StatusBadRequest,
		Message: "Please check your input and try again.",
		Fields:  fields,
	}
}

func DispatchFailed(message string, err error) *AppError {
	return &AppError{
		Kind:    KindDispatchFailed,
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

func PayloadTooLarge() *AppError {
	return &AppError{
		Kind:    KindPayloadTooLarge,
		Code:    http.StatusRequestEntityTooLarge,
		Message: "Request body is too large.",
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Kind:    KindAlreadySubscribed,
		Code:    http.StatusConflict,
		Message: message,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Kind:    KindUnavailable,
		Code:    http.StatusServiceUnavailable,
		Message: message,
		Err:     err,
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusConflict:
		return KindAlreadySubscribed
	case http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}
