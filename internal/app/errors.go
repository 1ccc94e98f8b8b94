package app

import (
	"errors"
	"fmt"

	"notewise/internal/ai"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrSubjectNotFound        = errors.New("subject not found")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrSubjectLimit           = errors.New("subject limit reached")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrFileTooLarge           = errors.New("file too large")
	ErrUpstreamRateLimited    = errors.New("the AI service is busy, please try again shortly")
	ErrUpstreamQuotaExhausted = errors.New("the AI service quota has been exhausted")
	ErrUpstreamFailed         = errors.New("the AI service failed to respond")
)

// upstreamError maps a generation failure onto the service taxonomy while
// keeping the cause in the chain.
func upstreamError(err error) error {
	switch ai.KindOf(err) {
	case ai.KindRateLimited:
		return fmt.Errorf("%w: %w", ErrUpstreamRateLimited, err)
	case ai.KindQuotaExhausted:
		return fmt.Errorf("%w: %w", ErrUpstreamQuotaExhausted, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstreamFailed, err)
	}
}
