package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"rhb-forms-api/pkg/apperror"
)

var errBodyTooLarge = errors.New("request body too large")

// readBody reads the request body and enforces the byte ceiling on what was
// actually read, independent of the declared Content-Length.
func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// bindJSON decodes a JSON form body into dst. Field rules are checked later
// by the usecase.
func bindJSON(c *gin.Context, maxBytes int64, dst interface{}) error {
	body, err := readBody(c, maxBytes)
	if errors.Is(err, errBodyTooLarge) {
		return apperror.PayloadTooLarge()
	}
	if err != nil {
		return apperror.BadRequest("Unable to read request body.")
	}
	if err := binding.JSON.BindBody(body, dst); err != nil {
		return apperror.BadRequest("Invalid request format.")
	}
	return nil
}
