package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhb-forms-api/internal/delivery/http/response"
	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
)

// ErrorHandler renders the last error pushed with c.Error as the response
// envelope. Wrapped causes are logged, never sent.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := domain.RequestIDFrom(c.Request.Context())

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if state, ok := submissionState(appErr.Kind); ok {
				c.Set(domain.KeySubmissionState, state)
			}
			if appErr.Err != nil {
				log.Error("request failed",
					zap.String("request_id", requestID),
					zap.String("path", c.Request.URL.Path),
					zap.String("kind", string(appErr.Kind)),
					zap.Error(appErr.Err),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Fields)
			return
		}

		// SECURITY: never expose internal error details to clients
		log.Error("internal server error",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}

// submissionState maps a failure kind to the terminal state of the form
// submission it ended.
func submissionState(kind apperror.Kind) (domain.SubmissionState, bool) {
	switch kind {
	case apperror.KindRateLimited:
		return domain.StateRateLimited, true
	case apperror.KindBotSuspected:
		return domain.StateBotRejected, true
	case apperror.KindValidationFailed:
		return domain.StateValidationFailed, true
	case apperror.KindDispatchFailed:
		return domain.StateDispatchFailed, true
	default:
		return "", false
	}
}
