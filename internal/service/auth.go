package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/events"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/session"
	"go.uber.org/zap"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrLoginRejected       = errors.New("login rejected")
)

// Authenticator is the upstream login call.
type Authenticator interface {
	Login(ctx context.Context, req moneybox.LoginRequest) (*moneybox.LoginResponse, error)
}

// OwnerCloser closes every flow owned by a principal.
type OwnerCloser interface {
	RemoveOwner(owner string) int
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"-"`
}

// AuthService creates and ends merchant sessions.
type AuthService struct {
	client    Authenticator
	store     session.Store
	tokens    *session.Tokens
	publisher events.Publisher
	owned     []OwnerCloser
	now       func() time.Time
}

func NewAuthService(client Authenticator, store session.Store, tokens *session.Tokens, publisher events.Publisher, owned ...OwnerCloser) *AuthService {
	return &AuthService{
		client:    client,
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		owned:     owned,
		now:       time.Now,
	}
}

// Login authenticates against MoneyBox and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	resp, err := s.client.Login(ctx, moneybox.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token returned", ErrLoginRejected)
	}

	sess := session.FromLogin(resp, s.now())
	if sess.Email == "" {
		sess.Email = email
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, err
	}

	zap.L().Info("session created", zap.String("session_id", sess.ID), zap.String("email", sess.Email))
	events.Emit(ctx, s.publisher, domain.EventSessionCreated, map[string]any{
		"session_id": sess.ID,
		"email":      sess.Email,
	})
	return &LoginResult{Token: token, Session: sess}, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	sid, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, sid)
}

// Logout deletes the session and closes the merchant's open flows.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	closed := 0
	for _, o := range s.owned {
		closed += o.RemoveOwner(sess.ID)
	}

	zap.L().Info("session ended", zap.String("session_id", sess.ID), zap.Int("flows_closed", closed))
	events.Emit(ctx, s.publisher, domain.EventSessionEnded, map[string]any{
		"session_id": sess.ID,
		"email":      sess.Email,
	})
	return nil
}
