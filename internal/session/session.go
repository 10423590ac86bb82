// Package session holds the signed-in merchant's account snapshot between
// login and logout.
package session

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/google/uuid"
)

// Validity is the fixed lifetime of a session from login.
const Validity = 7 * 24 * time.Hour

const (
	fallbackName    = "Merchant"
	fallbackBalance = "0.00"
)

type Session struct {
	ID            string    `json:"id"`
	AccessToken   string    `json:"access_token"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// FromLogin builds a session from a successful login.
func FromLogin(resp *moneybox.LoginResponse, now time.Time) *Session {
	return &Session{
		ID:            uuid.NewString(),
		AccessToken:   resp.AccessToken,
		Name:          strings.TrimSpace(resp.User.Name),
		Email:         strings.TrimSpace(resp.User.Email),
		BankName:      resp.User.BankName,
		AccountNumber: resp.User.AcctNo,
		Balance:       resp.User.Balance,
		CreatedAt:     now,
		ExpiresAt:     now.Add(Validity),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return fallbackName
}

// Initials returns two letters for the avatar: the first letters of the
// first two name words, or the first two characters of an email address.
func (s *Session) Initials() string {
	src := s.Name
	if src == "" {
		src = s.Email
	}
	if src == "" {
		src = fallbackName
	}
	if strings.Contains(src, "@") {
		return strings.ToUpper(firstRunes(src, 2))
	}
	var b strings.Builder
	for _, word := range strings.Fields(src) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return strings.ToUpper(firstRunes(b.String(), 2))
}

// FormattedBalance renders the balance as naira with digit grouping.
func (s *Session) FormattedBalance() string {
	balance := s.Balance
	if strings.TrimSpace(balance) == "" {
		balance = fallbackBalance
	}
	return domain.FormatNaira(balance)
}

// Profile is the dashboard view of the session.
func (s *Session) Profile() models.Profile {
	balance := s.Balance
	if strings.TrimSpace(balance) == "" {
		balance = fallbackBalance
	}
	return models.Profile{
		Name:             s.DisplayName(),
		Email:            s.Email,
		Initials:         s.Initials(),
		BankName:         s.BankName,
		AccountNumber:    s.AccountNumber,
		Balance:          balance,
		BalanceFormatted: s.FormattedBalance(),
		SessionExpiresAt: s.ExpiresAt,
	}
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

type contextKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session placed by the auth middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
