package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rhb-forms-api/internal/delivery/http/response"
	"rhb-forms-api/internal/domain"
)

type NewsletterHandler struct {
	newsletterUC domain.NewsletterUsecase
	maxBodyBytes int64
}

func NewNewsletterHandler(public *gin.RouterGroup, newsletterUC domain.NewsletterUsecase, maxBodyBytes int64, mw ...gin.HandlerFunc) {
	handler := &NewsletterHandler{
		newsletterUC: newsletterUC,
		maxBodyBytes: maxBodyBytes,
	}

	public.POST("/newsletter", append(mw, handler.Subscribe)...)
}

// Subscribe godoc
// @Summary      Subscribe to Newsletter
// @Description  Adds the address to the church mailing list, tagged as a website signup.
// @Tags         newsletter
// @Accept       json
// @Produce      json
// @Param        newsletter  body      domain.NewsletterRequest  true  "Newsletter Signup"
// @Success      200         {object}  response.Response
// @Failure      400         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Failure      413         {object}  response.Response
// @Failure      429         {object}  response.Response
// @Failure      500         {object}  response.Response
// @Failure      503         {object}  response.Response
// @Router       /newsletter [post]
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req domain.NewsletterRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.newsletterUC.Subscribe(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, res.Message, nil)
}
