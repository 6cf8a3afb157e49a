package llm

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ThrottledError indicates the provider rejected a request for capacity
// reasons. These are the only errors the retry policy will retry.
type ThrottledError struct {
	StatusCode int
	Cause      error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("model service throttled (HTTP %d): %v", e.StatusCode, e.Cause)
}

func (e *ThrottledError) Unwrap() error {
	return e.Cause
}

// IsThrottled reports whether err is (or wraps) a ThrottledError.
func IsThrottled(err error) bool {
	var te *ThrottledError
	return errors.As(err, &te)
}

// wrapGenerateError classifies provider errors. Rate-limit and overload
// responses become ThrottledError; everything else passes through wrapped.
func wrapGenerateError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return &ThrottledError{StatusCode: apiErr.Code, Cause: err}
		}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
