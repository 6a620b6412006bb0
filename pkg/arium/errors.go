package arium

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConnection marks transient connectivity failures. Errors matching it
// with errors.Is are retried by the client before they surface.
var ErrConnection = errors.New("connection failed")

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrAPIEndpointRequired  = errors.New("API endpoint is required")
	ErrTenantRequired       = errors.New("tenant is required")
	ErrCollectionRequired   = errors.New("collection is required")
	ErrAssetIDRequired      = errors.New("asset id is required")
	ErrNoLocation           = errors.New("response carries no Location reference")
	ErrEmptyArchive         = errors.New("archive has no entries")
	ErrEmptyResult          = errors.New("result sequence is empty")
	ErrMissingField         = errors.New("field missing from content")
	ErrNotStructured        = errors.New("content is not structured")
	ErrUnsupportedPayload   = errors.New("unsupported payload type")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrStaticTokenNoRefresh = errors.New("static token cannot be refreshed")
	ErrPollTimeout          = errors.New("timeout waiting for workflow to finish")
)

// ConnectionError is a network-level failure talking to the platform or to a
// presigned reference.
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports ConnectionError as ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// UnexpectedStatusError is returned when the response status is outside the
// set the caller accepts. It carries the response it was raised for.
type UnexpectedStatusError struct {
	Endpoint   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error implements the error interface.
func (e *UnexpectedStatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d", e.StatusCode)
	if e.Endpoint != "" {
		msg += " from " + e.Endpoint
	}

	if len(e.Body) > 0 {
		body := e.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}

		msg += ": " + string(body)
	}

	return msg
}

const maxErrorBody = 512

// UnexpectedContentTypeError is returned when decoded content does not have
// the shape an operation expects.
type UnexpectedContentTypeError struct {
	Operation string
	Expected  string
	Got       string
}

// Error implements the error interface.
func (e *UnexpectedContentTypeError) Error() string {
	return fmt.Sprintf("%s: unexpected content type: %s (expected %s)", e.Operation, e.Got, e.Expected)
}

// StatusCode returns the HTTP status of an UnexpectedStatusError in the
// chain, or 0.
func StatusCode(err error) int {
	statusErr := &UnexpectedStatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsConnectionError checks if the error is a transient connectivity failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsUnexpectedContentType checks if the error is a content shape mismatch.
func IsUnexpectedContentType(err error) bool {
	contentErr := &UnexpectedContentTypeError{}

	return errors.As(err, &contentErr)
}
