package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rhb-forms-api/internal/delivery/http/response"
	"rhb-forms-api/internal/usecase"
	"rhb-forms-api/pkg/apperror"
)

type HealthHandler struct {
	healthUC     usecase.HealthUsecase
	isProduction bool
}

// NewHealthHandler registers the health routes. Collaborator checks make
// outbound calls and answer 403 in production.
func NewHealthHandler(public *gin.RouterGroup, healthUC usecase.HealthUsecase, isProduction bool) {
	handler := &HealthHandler{
		healthUC:     healthUC,
		isProduction: isProduction,
	}

	public.GET("/health", handler.Health)
	public.GET("/health/email", handler.EmailHealth)
	public.GET("/health/mailing-list", handler.MailingListHealth)
}

// Health godoc
// @Summary      Service Health
// @Description  Reports which collaborators are configured and which critical env vars are missing.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response{data=usecase.HealthReport}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.healthUC.Check(c.Request.Context())
	response.Success(c, http.StatusOK, "System operational", report)
}

// EmailHealth godoc
// @Summary      Email Provider Connectivity
// @Description  Development only. Checks the configured email provider without sending.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health/email [get]
func (h *HealthHandler) EmailHealth(c *gin.Context) {
	h.collaborator(c, "Email provider", h.healthUC.CheckEmail)
}

// MailingListHealth godoc
// @Summary      Mailing List Connectivity
// @Description  Development only. Reads the configured audience.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health/mailing-list [get]
func (h *HealthHandler) MailingListHealth(c *gin.Context) {
	h.collaborator(c, "Mailing list", h.healthUC.CheckMailingList)
}

func (h *HealthHandler) collaborator(c *gin.Context, name string, check func(context.Context) error) {
	if h.isProduction {
		_ = c.Error(apperror.Forbidden("Not available in production"))
		return
	}
	if err := check(c.Request.Context()); err != nil {
		_ = c.Error(apperror.Unavailable(name+" is not reachable", err))
		return
	}
	response.Success(c, http.StatusOK, name+" is reachable", nil)
}
