package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/extract"
	"github.com/mkravets/ehs-mentor/internal/llm"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound   *db.NotFoundError
		conflict   *db.ConflictError
		validation *ErrValidation
		extraction *extract.ExtractionError
		throttled  *llm.ThrottledError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	case errors.As(err, &throttled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
