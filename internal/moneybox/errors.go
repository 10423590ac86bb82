package moneybox

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout matches any request abandoned after its bound.
	ErrTimeout = errors.New("moneybox request timed out")
	// ErrTransport matches failures below the HTTP layer.
	ErrTransport = errors.New("moneybox request failed")
)

const (
	OnboardingTimeoutMessage = "Request timed out after 60 seconds. Please try again."
	LoginTimeoutMessage      = "Request timed out. Please try again."
	LookupTimeoutMessage     = "Account lookup timed out. Please try again."
)

// TimeoutError is returned when the client-side bound fires.
type TimeoutError struct {
	Op      string
	After   time.Duration
	Message string
}

func (e *TimeoutError) Error() string { return e.Message }

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// APIError is a non-2xx response. Body is the parsed JSON object, or
// {"message": <raw text>} when the response was not a JSON object.
type APIError struct {
	Status  int
	Body    map[string]any
	Message string
}

func (e *APIError) Error() string { return e.Message }

func newAPIError(status int, body map[string]any) *APIError {
	msg, _ := body["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{Status: status, Body: body, Message: msg}
}
