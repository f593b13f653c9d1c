package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/ratelimit"
	"rhb-forms-api/pkg/security"
)

const defaultRateLimitMessage = "Too many requests. Please try again later."

// RateLimitRule is the quota applied to one route
type RateLimitRule struct {
	Scope string
	Quota ratelimit.Config
	// Message is returned with the 429
	Message string
}

// ContactRule is the quota for POST /contact
func ContactRule(limit int, window time.Duration) RateLimitRule {
	return RateLimitRule{
		Scope:   ratelimit.ScopeContact,
		Quota:   ratelimit.Config{MaxRequests: limit, Window: window},
		Message: "Too many contact requests. Please try again later.",
	}
}

func NewsletterRule(limit int, window time.Duration) RateLimitRule {
	return RateLimitRule{
		Scope:   ratelimit.ScopeNewsletter,
		Quota:   ratelimit.Config{MaxRequests: limit, Window: window},
		Message: "Too many subscription attempts. Please try again later.",
	}
}

func SecurityLogRule(limit int, window time.Duration) RateLimitRule {
	return RateLimitRule{
		Scope:   ratelimit.ScopeSecurityLog,
		Quota:   ratelimit.Config{MaxRequests: limit, Window: window},
		Message: "Too many security events logged",
	}
}

// RateLimitMiddleware admits the request against rule. Every limited response
// carries the X-RateLimit-* headers; a rejection adds Retry-After in whole
// seconds. A store failure lets the request through and is logged.
func RateLimitMiddleware(limiter *ratelimit.Limiter, rule RateLimitRule, secLog *security.SecurityLogger, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	message := rule.Message
	if message == "" {
		message = defaultRateLimitMessage
	}

	return func(c *gin.Context) {
		clientID := clientIDOf(c)
		ctx := c.Request.Context()

		decision, err := limiter.Admit(ctx, clientID, rule.Scope, rule.Quota)
		if err != nil {
			log.Warn("rate limit store unavailable, admitting request",
				zap.String("scope", rule.Scope),
				zap.String("request_id", domain.RequestIDFrom(ctx)),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if decision.Limit == 0 {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))

			secLog.LogRateLimitTriggered(ctx, clientID, c.GetHeader("User-Agent"), domain.RequestIDFrom(ctx), rule.Scope, decision.ResetAt)

			_ = c.Error(apperror.RateLimited(message, decision.ResetAt))
			c.Abort()
			return
		}

		c.Next()
	}
}
