package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"notewise/internal/ai"
	"notewise/internal/app"
)

func TestMapError_UpstreamFailureHidesProviderBody(t *testing.T) {
	cause := &ai.UpstreamError{StatusCode: http.StatusBadGateway, Kind: ai.KindFailed, Body: "upstream stack trace"}
	err := fmt.Errorf("%w: %w", app.ErrUpstreamFailed, cause)

	m := mapError(err)
	assert.Equal(t, http.StatusInternalServerError, m.status)
	assert.Equal(t, app.ErrUpstreamFailed.Error(), m.message)
	assert.NotContains(t, m.message, "upstream stack trace")
}

func TestMapError_Statuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{app.ErrInvalidInput, http.StatusBadRequest},
		{app.ErrSubjectNotFound, http.StatusNotFound},
		{app.ErrSubjectLimit, http.StatusConflict},
		{fmt.Errorf("%w: busy", app.ErrUpstreamRateLimited), http.StatusTooManyRequests},
		{fmt.Errorf("%w: billing", app.ErrUpstreamQuotaExhausted), http.StatusPaymentRequired},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, mapError(tt.err).status, tt.err.Error())
	}
}
