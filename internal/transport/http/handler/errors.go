package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notewise/internal/app"
	"notewise/internal/transport/http/response"
)

type errorMapping struct {
	status  int
	code    int
	message string
}

// mapError translates service errors to HTTP. Upstream failures expose only
// the sentinel text; the full cause is attached to the gin context. Unknown
// errors become a 500 carrying the error text.
func mapError(err error) errorMapping {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return errorMapping{http.StatusBadRequest, response.CodeBadRequest, err.Error()}
	case errors.Is(err, app.ErrSubjectNotFound):
		return errorMapping{http.StatusNotFound, response.CodeSubjectNotFound, "subject not found"}
	case errors.Is(err, app.ErrDocumentNotFound):
		return errorMapping{http.StatusNotFound, response.CodeDocumentNotFound, "document not found"}
	case errors.Is(err, app.ErrSubjectLimit):
		return errorMapping{http.StatusConflict, response.CodeSubjectLimit, "a session can hold at most 3 subjects"}
	case errors.Is(err, app.ErrFileTooLarge):
		return errorMapping{http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file too large"}
	case errors.Is(err, app.ErrUnsupportedFileType):
		return errorMapping{http.StatusUnsupportedMediaType, response.CodeUnsupportedFile, "only .txt, .md and .pdf files are supported"}
	case errors.Is(err, app.ErrUpstreamRateLimited):
		return errorMapping{http.StatusTooManyRequests, response.CodeRateLimited, app.ErrUpstreamRateLimited.Error()}
	case errors.Is(err, app.ErrUpstreamQuotaExhausted):
		return errorMapping{http.StatusPaymentRequired, response.CodeQuotaExhausted, app.ErrUpstreamQuotaExhausted.Error()}
	case errors.Is(err, app.ErrUpstreamFailed):
		return errorMapping{http.StatusInternalServerError, response.CodeInternalServer, app.ErrUpstreamFailed.Error()}
	default:
		return errorMapping{http.StatusInternalServerError, response.CodeInternalServer, err.Error()}
	}
}

func writeError(c *gin.Context, err error) {
	m := mapError(err)
	_ = c.Error(err)
	response.Error(c, m.status, m.code, m.message)
}

func writeBareError(c *gin.Context, err error) {
	m := mapError(err)
	_ = c.Error(err)
	response.Bare(c, m.status, m.message)
}
