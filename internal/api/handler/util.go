package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayo6706/merchant-gateway/internal/api/middleware"
	"github.com/ayo6706/merchant-gateway/internal/api/problem"
	"github.com/ayo6706/merchant-gateway/internal/flows"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/onboarding"
	"github.com/ayo6706/merchant-gateway/internal/payout"
	"github.com/ayo6706/merchant-gateway/internal/service"
	"github.com/ayo6706/merchant-gateway/internal/session"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	respondProblem(w, r, status, problemType, message, nil)
}

func respondProblem(w http.ResponseWriter, r *http.Request, status int, problemType, message string, state any) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.WriteWithState(w, r, status, problemType, http.StatusText(status), message, state)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	return true
}

func flowID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "flow/invalid-id", "Invalid flow id")
		return uuid.Nil, false
	}
	return id, true
}

func requestSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/session-required", "Session required")
		return nil, false
	}
	return sess, true
}

// respondFlowError maps flow, upstream and validation failures to problem
// documents. state, when non-nil, is the flow snapshot after the failure.
func respondFlowError(w http.ResponseWriter, r *http.Request, err error, state any) {
	status, slug := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusBadGateway {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	respondProblem(w, r, status, slug, err.Error(), state)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, flows.ErrNotFound):
		return http.StatusNotFound, "flow/not-found"
	case errors.Is(err, flows.ErrForbidden):
		return http.StatusForbidden, "flow/forbidden"
	case errors.Is(err, onboarding.ErrBusy), errors.Is(err, payout.ErrBusy):
		return http.StatusConflict, "flow/busy"
	case errors.Is(err, onboarding.ErrClosed), errors.Is(err, payout.ErrClosed):
		return http.StatusGone, "flow/closed"
	case errors.Is(err, onboarding.ErrInvalidTransition), errors.Is(err, payout.ErrInvalidTransition):
		return http.StatusConflict, "flow/invalid-transition"
	case errors.Is(err, moneybox.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream/timeout"
	case errors.Is(err, onboarding.ErrValidation):
		return http.StatusUnprocessableEntity, "onboarding/validation"
	case errors.Is(err, onboarding.ErrRejected):
		return http.StatusUnprocessableEntity, "onboarding/rejected"
	case errors.Is(err, onboarding.ErrDocument):
		return http.StatusUnprocessableEntity, "onboarding/document-error"
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, upload.ErrInvalidType):
		return http.StatusUnprocessableEntity, "upload/rejected"
	case errors.Is(err, payout.ErrNameNotResolved), errors.Is(err, payout.ErrAmountRequired):
		return http.StatusUnprocessableEntity, "payout/validation"
	case errors.Is(err, onboarding.ErrUnknownField), errors.Is(err, onboarding.ErrUnknownDocument),
		errors.Is(err, payout.ErrUnknownBank), errors.Is(err, payout.ErrInvalidKey):
		return http.StatusBadRequest, "request/invalid-field"
	case errors.Is(err, service.ErrCredentialsRequired):
		return http.StatusBadRequest, "auth/credentials-required"
	case errors.Is(err, service.ErrLoginRejected):
		return http.StatusUnauthorized, "auth/login-rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request/canceled"
	case isUpstreamError(err):
		return http.StatusBadGateway, "upstream/error"
	default:
		return http.StatusInternalServerError, "internal-server-error"
	}
}

func isUpstreamError(err error) bool {
	var apiErr *moneybox.APIError
	return errors.As(err, &apiErr) || errors.Is(err, moneybox.ErrTransport)
}
