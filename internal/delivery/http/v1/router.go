package v1

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"rhb-forms-api/config"
	"rhb-forms-api/internal/delivery/http/middleware"
	"rhb-forms-api/internal/domain"
	"rhb-forms-api/internal/usecase"
	"rhb-forms-api/pkg/ratelimit"
	"rhb-forms-api/pkg/security"
)

type RouterDeps struct {
	ContactUC       domain.ContactUsecase
	NewsletterUC    domain.NewsletterUsecase
	SecurityEventUC domain.SecurityEventUsecase
	HealthUC        usecase.HealthUsecase
	Limiter         *ratelimit.Limiter
	SecurityLogger  *security.SecurityLogger
	Logger          *zap.Logger
	Config          *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.CORSMiddleware(cfg.IsProduction(), cfg.AllowedOrigin)) // answers preflight
	r.Use(middleware.ErrorHandler(deps.Logger))

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC, cfg.IsProduction())

	// Public form routes: rate limit first, then the body ceiling
	bodyLimit := middleware.BodyLimit(cfg.MaxBodyBytes, deps.SecurityLogger)
	NewContactHandler(v1, deps.ContactUC, cfg.MaxBodyBytes,
		middleware.RateLimitMiddleware(deps.Limiter, middleware.ContactRule(cfg.ContactRateLimit, cfg.ContactRateWindow), deps.SecurityLogger, deps.Logger),
		bodyLimit,
	)
	NewNewsletterHandler(v1, deps.NewsletterUC, cfg.MaxBodyBytes,
		middleware.RateLimitMiddleware(deps.Limiter, middleware.NewsletterRule(cfg.NewsletterRateLimit, cfg.NewsletterRateWindow), deps.SecurityLogger, deps.Logger),
		bodyLimit,
	)
	NewSecurityEventHandler(v1, deps.SecurityEventUC, cfg.MaxBodyBytes,
		middleware.RateLimitMiddleware(deps.Limiter, middleware.SecurityLogRule(cfg.SecurityLogRateLimit, cfg.SecurityLogRateWindow), deps.SecurityLogger, deps.Logger),
	)

	// Swagger
	if !cfg.IsProduction() {
		v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
