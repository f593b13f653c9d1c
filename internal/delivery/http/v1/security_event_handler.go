package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"rhb-forms-api/internal/delivery/http/response"
	"rhb-forms-api/internal/domain"
)

const securityEventLogged = "Security event logged"

type SecurityEventHandler struct {
	securityUC   domain.SecurityEventUsecase
	maxBodyBytes int64
}

func NewSecurityEventHandler(public *gin.RouterGroup, securityUC domain.SecurityEventUsecase, maxBodyBytes int64, mw ...gin.HandlerFunc) {
	handler := &SecurityEventHandler{
		securityUC:   securityUC,
		maxBodyBytes: maxBodyBytes,
	}

	public.POST("/security-log", append(mw, handler.LogEvent)...)
}

// LogEvent godoc
// @Summary      Report Client Security Event
// @Description  Records an anomaly seen by the website's browser monitor. Always answers 200 unless rate limited.
// @Tags         security
// @Accept       json
// @Produce      json
// @Param        event  body      domain.SecurityEventRequest  true  "Security Event"
// @Success      200    {object}  response.Response
// @Failure      429    {object}  response.Response
// @Router       /security-log [post]
func (h *SecurityEventHandler) LogEvent(c *gin.Context) {
	body, err := readBody(c, h.maxBodyBytes)
	if err == nil {
		var req domain.SecurityEventRequest
		if binding.JSON.BindBody(body, &req) == nil {
			h.securityUC.Record(c.Request.Context(), &req, domain.ClientIDFrom(c.Request.Context()), c.GetHeader("User-Agent"))
		}
	}

	response.Success(c, http.StatusOK, securityEventLogged, nil)
}
