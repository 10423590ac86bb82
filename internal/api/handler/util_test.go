package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ayo6706/merchant-gateway/internal/flows"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/onboarding"
	"github.com/ayo6706/merchant-gateway/internal/payout"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		slug   string
	}{
		{name: "not_found", err: flows.ErrNotFound, status: http.StatusNotFound, slug: "flow/not-found"},
		{name: "forbidden", err: flows.ErrForbidden, status: http.StatusForbidden, slug: "flow/forbidden"},
		{name: "closed", err: payout.ErrClosed, status: http.StatusGone, slug: "flow/closed"},
		{name: "busy", err: onboarding.ErrBusy, status: http.StatusConflict, slug: "flow/busy"},
		{name: "timeout", err: &moneybox.TimeoutError{Op: "login", Message: moneybox.LoginTimeoutMessage}, status: http.StatusGatewayTimeout, slug: "upstream/timeout"},
		{name: "upload_rejected", err: &upload.ValidationError{Kind: upload.ErrTooLarge, Message: "too large"}, status: http.StatusUnprocessableEntity, slug: "upload/rejected"},
		{name: "api_error", err: &moneybox.APIError{Status: http.StatusInternalServerError, Message: "HTTP 500"}, status: http.StatusBadGateway, slug: "upstream/error"},
		{name: "transport", err: fmt.Errorf("%w: login: %w", moneybox.ErrTransport, errors.New("connection refused")), status: http.StatusBadGateway, slug: "upstream/error"},
		{name: "canceled_transport", err: fmt.Errorf("%w: login: %w", moneybox.ErrTransport, context.Canceled), status: http.StatusServiceUnavailable, slug: "request/canceled"},
		{name: "canceled", err: context.Canceled, status: http.StatusServiceUnavailable, slug: "request/canceled"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, slug: "internal-server-error"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			status, slug := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.slug, slug)
		})
	}
}
