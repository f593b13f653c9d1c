package usecase

import (
	"context"
	"errors"
	"time"

	"rhb-forms-api/internal/domain"
)

// HealthReport is the body of GET /health
type HealthReport struct {
	Status      string          `json:"status"`
	Environment string          `json:"environment"`
	Timestamp   time.Time       `json:"timestamp"`
	Services    map[string]bool `json:"services"`
	Missing     []string        `json:"missing_env,omitempty"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthReport
	CheckEmail(ctx context.Context) error
	CheckMailingList(ctx context.Context) error
}

type HealthDeps struct {
	Environment     string
	MissingEnv      []string
	Email           domain.Pinger
	MailingList     domain.Pinger
	RateLimitStore  string
	RateLimitRedis  domain.Pinger // set only when RateLimitStore is "redis"
	ChallengeActive bool
}

type healthUsecase struct {
	deps HealthDeps
}

func NewHealthUsecase(deps HealthDeps) HealthUsecase {
	return &healthUsecase{deps: deps}
}

func (u *healthUsecase) Check(ctx context.Context) HealthReport {
	status := "ok"
	if len(u.deps.MissingEnv) > 0 {
		status = "degraded"
	}
	redisUp := false
	if u.deps.RateLimitStore == "redis" {
		redisUp = ping(ctx, u.deps.RateLimitRedis) == nil
		if !redisUp {
			status = "degraded"
		}
	}
	return HealthReport{
		Status:      status,
		Environment: u.deps.Environment,
		Timestamp:   time.Now().UTC(),
		Services: map[string]bool{
			"email":           u.deps.Email != nil,
			"mailing_list":    u.deps.MailingList != nil,
			"recaptcha":       u.deps.ChallengeActive,
			"redis_ratelimit": redisUp,
		},
		Missing: u.deps.MissingEnv,
	}
}

var errNotConfigured = errors.New("not configured")

const pingTimeout = 5 * time.Second

func (u *healthUsecase) CheckEmail(ctx context.Context) error {
	return ping(ctx, u.deps.Email)
}

func (u *healthUsecase) CheckMailingList(ctx context.Context) error {
	return ping(ctx, u.deps.MailingList)
}

func ping(ctx context.Context, p domain.Pinger) error {
	if p == nil {
		return errNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
