package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Port          string
	Environment   string
	LogLevel      string
	AllowedOrigin string // CORS origin used in production
	MaxBodyBytes  int64
	// Email
	EmailProvider string // "resend" or "smtp"
	FromEmail     string
	ToEmail       string
	ContactPhone  string
	ContactEmail  string // shown in the acknowledgement, defaults to TO_EMAIL
	ResendAPIKey  string
	ResendBaseURL string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	EmailTimeout  time.Duration
	// Mailing list (Mailchimp)
	MailchimpAPIKey       string
	MailchimpAudienceID   string
	MailchimpServerPrefix string
	MailingListTimeout    time.Duration
	// Challenge verification (reCAPTCHA)
	RecaptchaSecretKey string
	RecaptchaVerifyURL string
	RecaptchaTimeout   time.Duration
	// Rate limiting
	RateLimitStore         string // "memory" or "redis"
	RedisURL               string
	RedisPassword          string
	RateLimitSweepInterval time.Duration
	ContactRateLimit       int
	ContactRateWindow      time.Duration
	NewsletterRateLimit    int
	NewsletterRateWindow   time.Duration
	SecurityLogRateLimit   int
	SecurityLogRateWindow  time.Duration
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnvironment(),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: strings.TrimRight(getEnv("ALLOWED_ORIGIN", "https://rccgbrantford.com"), "/"),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 10*1024)),
		// Email
		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "resend")),
		FromEmail:     getEnv("FROM_EMAIL", ""),
		ToEmail:       getEnv("TO_EMAIL", ""),
		ContactPhone:  getEnv("CONTACT_PHONE", "(519) 304-3600"),
		ContactEmail:  getEnv("CONTACT_EMAIL", ""),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		ResendBaseURL: strings.TrimRight(getEnv("RESEND_BASE_URL", "https://api.resend.com"), "/"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailTimeout:  getEnvDuration("EMAIL_TIMEOUT", 10*time.Second),
		// Mailing list
		MailchimpAPIKey:       getEnv("MAILCHIMP_API_KEY", ""),
		MailchimpAudienceID:   getEnv("MAILCHIMP_AUDIENCE_ID", ""),
		MailchimpServerPrefix: getEnv("MAILCHIMP_SERVER_PREFIX", "us1"),
		MailingListTimeout:    getEnvDuration("MAILCHIMP_TIMEOUT", 10*time.Second),
		// Challenge verification
		RecaptchaSecretKey: getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		RecaptchaTimeout:   getEnvDuration("RECAPTCHA_TIMEOUT", 5*time.Second),
		// Rate limiting (per-client quotas for each public form)
		RateLimitStore:         strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RateLimitSweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		ContactRateLimit:       getEnvInt("CONTACT_RATE_LIMIT", 5),
		ContactRateWindow:      getEnvDuration("CONTACT_RATE_WINDOW", 15*time.Minute),
		NewsletterRateLimit:    getEnvInt("NEWSLETTER_RATE_LIMIT", 3),
		NewsletterRateWindow:   getEnvDuration("NEWSLETTER_RATE_WINDOW", 15*time.Minute),
		SecurityLogRateLimit:   getEnvInt("SECURITY_LOG_RATE_LIMIT", 20),
		SecurityLogRateWindow:  getEnvDuration("SECURITY_LOG_RATE_WINDOW", 5*time.Minute),
	}

	if cfg.ContactEmail == "" {
		cfg.ContactEmail = cfg.ToEmail
	}

	if cfg.FromEmail == "" || cfg.ToEmail == "" {
		log.Println("WARNING: FROM_EMAIL or TO_EMAIL is missing. Contact form will be unavailable.")
	}

	if cfg.RateLimitStore == "redis" && cfg.RedisURL == "" {
		log.Println("WARNING: RATE_LIMIT_STORE=redis but REDIS_URL is empty. Falling back to in-memory rate limiting.")
		cfg.RateLimitStore = "memory"
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production CORS and
// without developer-only endpoints.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// MissingCriticalVars lists the env vars without which contact submissions
// cannot be delivered.
func (c *Config) MissingCriticalVars() []string {
	var missing []string
	if c.FromEmail == "" {
		missing = append(missing, "FROM_EMAIL")
	}
	if c.ToEmail == "" {
		missing = append(missing, "TO_EMAIL")
	}
	switch c.EmailProvider {
	case "smtp":
		if c.SMTPHost == "" {
			missing = append(missing, "SMTP_HOST")
		}
	default:
		if c.ResendAPIKey == "" {
			missing = append(missing, "RESEND_API_KEY")
		}
	}
	return missing
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15m") or plain milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// getEnvironment resolves APP_ENV, then falls back to GIN_MODE=release.
func getEnvironment() string {
	switch strings.ToLower(getEnv("APP_ENV", "")) {
	case "production", "prod":
		return EnvProduction
	case "development", "dev", "test":
		return EnvDevelopment
	}
	if getEnvBool("PRODUCTION", false) || os.Getenv("GIN_MODE") == "release" {
		return EnvProduction
	}
	return EnvDevelopment
}
