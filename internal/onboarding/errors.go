package onboarding

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/merchant-gateway/internal/moneybox"
)

var (
	ErrValidation = errors.New("onboarding step is incomplete")
	ErrRejected   = errors.New("onboarding application rejected")
	ErrDocument   = errors.New("document could not be processed")
	ErrBusy       = errors.New("onboarding submission in progress")
	ErrClosed     = errors.New("onboarding wizard closed")
)

const MsgSubmissionFailed = "Submission failed. Please try again."

// StepError is the single visible error of a step. Err classifies it and
// keeps the underlying cause in the chain.
type StepError struct {
	Step    Step
	Message string
	Err     error
}

func (e *StepError) Error() string { return e.Message }

func (e *StepError) Unwrap() error { return e.Err }

// DocumentError names the document a preparation step failed on.
type DocumentError struct {
	Field DocumentField
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("Could not process %s: %v", e.Field.Label(), e.Err)
}

func (e *DocumentError) Unwrap() []error { return []error{ErrDocument, e.Err} }

// submissionMessage turns a failed submission into the message shown to the
// merchant. Structured missing-field lists are preferred over raw text.
func submissionMessage(err error) string {
	var timeout *moneybox.TimeoutError
	if errors.As(err, &timeout) {
		return timeout.Message
	}

	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return docErr.Error()
	}

	var apiErr *moneybox.APIError
	if errors.As(err, &apiErr) {
		if fields := missingFields(apiErr.Body); len(fields) > 0 {
			return missingFieldsMessage(fields)
		}
	}

	msg := err.Error()
	var parsed map[string]any
	if json.Unmarshal([]byte(msg), &parsed) == nil {
		if fields := missingFields(parsed); len(fields) > 0 {
			return missingFieldsMessage(fields)
		}
		if m, ok := parsed["message"].(string); ok && m != "" {
			return m
		}
	}
	if strings.TrimSpace(msg) == "" {
		return MsgSubmissionFailed
	}
	return msg
}

func missingFields(body map[string]any) []string {
	for _, key := range []string{"missingFields", "missing_fields"} {
		raw, ok := body[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func missingFieldsMessage(fields []string) string {
	return "Missing required fields: " + strings.Join(fields, ", ")
}
