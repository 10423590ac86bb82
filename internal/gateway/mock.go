package gateway

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"
)

// NameEnquirer resolves a bank account to its holder's name.
type NameEnquirer interface {
	ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error)
}

// PINVerifier checks a transaction PIN for the merchant behind accessToken.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, accessToken, pin string) (bool, error)
}

// Gateway is the payment processor surface used by the payout flow.
type Gateway interface {
	NameEnquirer
	PINVerifier
}

const (
	DefaultMockAccountName = "CHUKWUEMEKA ADEBAYO JOHNSON"
	DefaultMockDelay       = 1500 * time.Millisecond
)

// MockGateway simulates the processor for local development. Name enquiry
// returns a fixed holder after a fixed delay; PIN verification compares
// against a configured development PIN.
type MockGateway struct {
	// Delay applied to every name enquiry. Zero resolves immediately.
	Delay       time.Duration
	AccountName string
	DevPIN      string
}

// NewMockGateway creates a MockGateway with the default delay and holder.
func NewMockGateway(devPIN string) *MockGateway {
	return &MockGateway{
		Delay:       DefaultMockDelay,
		AccountName: DefaultMockAccountName,
		DevPIN:      devPIN,
	}
}

// ResolveAccountName waits for Delay, then returns AccountName.
func (g *MockGateway) ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error) {
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return "", fmt.Errorf("name enquiry canceled: %w", ctx.Err())
		}
	}
	if len(accountNumber) != 10 {
		return "", fmt.Errorf("name enquiry: account number must be 10 digits")
	}
	return g.AccountName, nil
}

// VerifyPIN accepts only DevPIN. An empty DevPIN rejects everything.
func (g *MockGateway) VerifyPIN(ctx context.Context, accessToken, pin string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("pin verification canceled: %w", err)
	}
	if g.DevPIN == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(g.DevPIN), []byte(pin)) == 1, nil
}
