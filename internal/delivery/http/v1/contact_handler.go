package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rhb-forms-api/internal/delivery/http/response"
	"rhb-forms-api/internal/domain"
)

type ContactHandler struct {
	contactUC    domain.ContactUsecase
	maxBodyBytes int64
}

// NewContactHandler registers the contact route behind the given middleware
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, maxBodyBytes int64, mw ...gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC:    contactUC,
		maxBodyBytes: maxBodyBytes,
	}

	public.POST("/contact", append(mw, handler.SubmitContact)...)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Screens, validates and delivers a contact form message. Sends an admin notification and an acknowledgement to the submitter.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.ContactRequest
	if err := bindJSON(c, h.maxBodyBytes, &req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.contactUC.Submit(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Set(domain.KeySubmissionState, res.State)
	response.Success(c, http.StatusOK, res.Message, nil)
}
