package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rhb-forms-api/config"
	_ "rhb-forms-api/docs" // Important for Swagger
	v1 "rhb-forms-api/internal/delivery/http/v1"
	"rhb-forms-api/internal/domain"
	"rhb-forms-api/internal/usecase"
	"rhb-forms-api/pkg/botgate"
	"rhb-forms-api/pkg/captcha"
	"rhb-forms-api/pkg/email"
	"rhb-forms-api/pkg/logger"
	"rhb-forms-api/pkg/mailinglist"
	"rhb-forms-api/pkg/ratelimit"
	"rhb-forms-api/pkg/redis"
	"rhb-forms-api/pkg/security"
	"rhb-forms-api/pkg/validation"
)

const serviceName = "rhb-forms-api"

// @title           RCCG Brantford Forms API
// @version         1.0
// @description     Contact, newsletter and security-event endpoints for the church website.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	zapLog := logger.New(cfg.LogLevel)
	defer func() { _ = zapLog.Sync() }()
	zapLog.Info("Starting forms API", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
	if missing := cfg.MissingCriticalVars(); len(missing) > 0 {
		zapLog.Warn("Critical environment variables missing", zap.Strings("missing", missing))
	}

	secLog := security.NewSecurityLogger(zapLog, serviceName, cfg.Environment)
	defer func() { _ = secLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Rate Limiter
	store, redisPinger, closeStore := newRateLimitStore(ctx, cfg, zapLog)
	defer closeStore()
	limiter := ratelimit.New(store, ratelimit.WithLogger(zapLog.Named("ratelimit")))
	limiter.StartSweeper(ctx, cfg.RateLimitSweepInterval)

	// 4. Setup Collaborators
	sender, emailPinger := newEmailSender(cfg, zapLog)
	subscriber, listPinger := newListSubscriber(cfg, zapLog)
	verifier := newChallengeVerifier(cfg, zapLog)

	// 5. Setup UseCases
	validate := validation.New()
	gate := botgate.New(verifier, zapLog.Named("botgate"))
	dispatcher := usecase.NewDispatcher(sender, subscriber, usecase.DispatcherConfig{
		FromEmail:    cfg.FromEmail,
		ToEmail:      cfg.ToEmail,
		ContactPhone: cfg.ContactPhone,
		ContactEmail: cfg.ContactEmail,
		Timeout:      cfg.EmailTimeout,
	}, zapLog.Named("dispatcher"))

	contactUC := usecase.NewContactUsecase(gate, validate, dispatcher, secLog, zapLog)
	newsletterUC := usecase.NewNewsletterUsecase(gate, validate, dispatcher, secLog, zapLog)
	securityEventUC := usecase.NewSecurityEventUsecase(validate, secLog, zapLog)
	healthUC := usecase.NewHealthUsecase(usecase.HealthDeps{
		Environment:     cfg.Environment,
		MissingEnv:      cfg.MissingCriticalVars(),
		Email:           emailPinger,
		MailingList:     listPinger,
		RateLimitStore:  cfg.RateLimitStore,
		RateLimitRedis:  redisPinger,
		ChallengeActive: verifier != nil,
	})

	// 6. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:       contactUC,
		NewsletterUC:    newsletterUC,
		SecurityEventUC: securityEventUC,
		HealthUC:        healthUC,
		Limiter:         limiter,
		SecurityLogger:  secLog,
		Logger:          zapLog,
		Config:          cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Listen failed", zap.Error(err))
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	zapLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLog.Info("Server exiting")
}

// newRateLimitStore returns the shared Redis store when configured and
// reachable, otherwise the in-process store. The pinger is nil for memory.
func newRateLimitStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Store, domain.Pinger, func()) {
	if cfg.RateLimitStore != "redis" {
		return ratelimit.NewMemoryStore(), nil, func() {}
	}

	client, err := redis.New(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	if err != nil {
		log.Warn("Redis unavailable, rate limiting falls back to in-memory", zap.Error(err))
		cfg.RateLimitStore = "memory"
		return ratelimit.NewMemoryStore(), nil, func() {}
	}
	log.Info("Rate limiting uses Redis")
	return ratelimit.NewRedisStore(client, "rl:"), redis.NewPinger(client), func() { _ = client.Close() }
}

// Interfaces are only assigned when the adapter is configured so that an
// unconfigured collaborator stays a nil interface.
func newEmailSender(cfg *config.Config, log *zap.Logger) (domain.EmailSender, domain.Pinger) {
	switch cfg.EmailProvider {
	case "smtp":
		s := email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.EmailTimeout,
		})
		if s.IsConfigured() {
			log.Info("Email provider: SMTP", zap.String("host", cfg.SMTPHost))
			return s, s
		}
	default:
		s := email.NewResendSender(email.ResendConfig{
			APIKey:  cfg.ResendAPIKey,
			BaseURL: cfg.ResendBaseURL,
			Timeout: cfg.EmailTimeout,
		})
		if s.IsConfigured() {
			log.Info("Email provider: Resend")
			return s, s
		}
	}
	log.Warn("Email service not fully configured - contact form will be unavailable")
	return nil, nil
}

func newListSubscriber(cfg *config.Config, log *zap.Logger) (domain.ListSubscriber, domain.Pinger) {
	c := mailinglist.NewMailchimpClient(mailinglist.Config{
		APIKey:       cfg.MailchimpAPIKey,
		AudienceID:   cfg.MailchimpAudienceID,
		ServerPrefix: cfg.MailchimpServerPrefix,
		Timeout:      cfg.MailingListTimeout,
	})
	if !c.IsConfigured() {
		log.Warn("Mailchimp not configured - newsletter signup will be unavailable")
		return nil, nil
	}
	return c, c
}

func newChallengeVerifier(cfg *config.Config, log *zap.Logger) domain.ChallengeVerifier {
	v := captcha.NewRecaptchaVerifier(captcha.Config{
		SecretKey:         cfg.RecaptchaSecretKey,
		VerifyURL:         cfg.RecaptchaVerifyURL,
		Timeout:           cfg.RecaptchaTimeout,
		AllowBrowserError: !cfg.IsProduction(),
	})
	if !v.IsConfigured() {
		log.Info("reCAPTCHA secret not set - challenge tokens are not verified")
		return nil
	}
	return v
}
