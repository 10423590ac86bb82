// Package moneybox is the client for the MoneyBox merchant backend.
package moneybox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/observability"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	RegisterPath    = "/api/MoneyBox/RegisterController"
	LoginPath       = "/api/MoneyBox/authenticate/login"
	NameEnquiryPath = "/api/MoneyBox/nameEnquiry"
	VerifyPINPath   = "/api/MoneyBox/verifyPin"

	DefaultOnboardingTimeout = 60 * time.Second
	DefaultLoginTimeout      = 30 * time.Second
	defaultLookupTimeout     = 30 * time.Second
)

// Client talks JSON to the MoneyBox backend. Calls are never retried.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	onboardingTimeout time.Duration
	loginTimeout      time.Duration
	lookupTimeout     time.Duration
	nameEnquiryPath   string
	verifyPINPath     string
	logger            *zap.Logger
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        &http.Client{},
		onboardingTimeout: DefaultOnboardingTimeout,
		loginTimeout:      DefaultLoginTimeout,
		lookupTimeout:     defaultLookupTimeout,
		nameEnquiryPath:   NameEnquiryPath,
		verifyPINPath:     VerifyPINPath,
		logger:            logger,
	}
}

// WithTimeouts overrides the onboarding and login bounds.
func (c *Client) WithTimeouts(onboarding, login time.Duration) *Client {
	if onboarding > 0 {
		c.onboardingTimeout = onboarding
	}
	if login > 0 {
		c.loginTimeout = login
	}
	return c
}

// WithLookupPaths overrides the name-enquiry and PIN verification endpoints.
func (c *Client) WithLookupPaths(nameEnquiry, verifyPIN string) *Client {
	if nameEnquiry != "" {
		c.nameEnquiryPath = nameEnquiry
	}
	if verifyPIN != "" {
		c.verifyPINPath = verifyPIN
	}
	return c
}

// WithHTTPClient swaps the underlying transport.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// SubmitOnboarding registers a merchant. The payload is not deduplicated:
// every call is a new attempt.
func (c *Client) SubmitOnboarding(ctx context.Context, req OnboardingRequest) (*OnboardingResponse, error) {
	c.logger.Info("submitting onboarding",
		zap.String("email", req.Email),
		zap.String("business", req.BusinessName),
		zap.String("cac_doc", encodedSize(req.CACDoc)),
		zap.String("govt_id", encodedSize(req.GovtID)),
		zap.String("utility_bill", encodedSize(req.UtilityBill)),
		zap.String("biz_photo", encodedSize(req.BizPhoto)),
		zap.String("selfie", encodedSize(req.Selfie)),
	)

	var resp OnboardingResponse
	if err := c.post(ctx, "register", RegisterPath, c.onboardingTimeout, OnboardingTimeoutMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates a merchant and returns the account snapshot.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	c.logger.Info("login attempt", zap.String("email", req.Email))

	var resp LoginResponse
	if err := c.post(ctx, "login", LoginPath, c.loginTimeout, LoginTimeoutMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveAccountName performs a name enquiry for a bank account.
func (c *Client) ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error) {
	var resp nameEnquiryResponse
	err := c.post(ctx, "name_enquiry", c.nameEnquiryPath, c.lookupTimeout, LookupTimeoutMessage, nameEnquiryRequest{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
	}, &resp)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(resp.AccountName)
	if name == "" {
		return "", fmt.Errorf("name enquiry returned no account name: %s", resp.Message)
	}
	return name, nil
}

// VerifyPIN checks a transaction PIN for the session's access token.
func (c *Client) VerifyPIN(ctx context.Context, accessToken, pin string) (bool, error) {
	var resp verifyPINResponse
	ctx = withBearer(ctx, accessToken)
	if err := c.post(ctx, "verify_pin", c.verifyPINPath, c.lookupTimeout, LookupTimeoutMessage, verifyPINRequest{PIN: pin}, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return false, nil
		}
		return false, err
	}
	return resp.Valid, nil
}

// post issues a single JSON POST bounded by timeout. The body is read as
// text first so that non-JSON error pages still surface their content.
func (c *Client) post(ctx context.Context, op, path string, timeout time.Duration, timeoutMsg string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := bearerFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, callCtx, op, timeout, timeoutMsg, start, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, callCtx, op, timeout, timeoutMsg, start, err)
	}

	c.logger.Info("moneybox response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("size", humanize.Bytes(uint64(len(raw)))),
	)

	parsed := parseBody(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.IncrementUpstreamCall(op, "http_error")
		return newAPIError(resp.StatusCode, parsed)
	}

	observability.IncrementUpstreamCall(op, "ok")
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		// Non-JSON success: hand the wrapped text to the caller's message field.
		wrapped, _ := json.Marshal(parsed)
		if err := json.Unmarshal(wrapped, target); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) transportError(parent, callCtx context.Context, op string, timeout time.Duration, msg string, start time.Time, err error) error {
	if parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		observability.IncrementUpstreamCall(op, "timeout")
		c.logger.Warn("moneybox request timed out", zap.String("op", op), zap.Duration("after", time.Since(start)))
		return &TimeoutError{Op: op, After: timeout, Message: msg}
	}
	observability.IncrementUpstreamCall(op, "transport_error")
	c.logger.Warn("moneybox request failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// parseBody returns the body as a JSON object, or wraps the raw text as
// {"message": text} when it is not one.
func parseBody(raw []byte) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{"message": string(raw)}
	}
	return out
}

func encodedSize(b64 string) string {
	if b64 == "" {
		return ""
	}
	return "[base64: " + humanize.Bytes(uint64(len(b64))) + "]"
}

type bearerKey struct{}

func withBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	v, _ := ctx.Value(bearerKey{}).(string)
	return v
}
