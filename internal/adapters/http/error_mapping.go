package httpadapter

import (
	"errors"
	"net/http"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrMissingInput):
		return http.StatusBadRequest
	case domain.IsParseFailure(err):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrExtraction):
		return http.StatusInternalServerError
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage picks what the caller may see. Unclassified failures get a
// generic text; the full error only goes to the server log.
func clientMessage(err error, missingInput string) string {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return "request body too large"
	case domain.IsKind(err, domain.ErrMissingInput):
		return missingInput
	case domain.IsParseFailure(err), domain.IsKind(err, domain.ErrExtraction):
		return err.Error()
	case domain.IsKind(err, domain.ErrTemporary):
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}
