package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   models.Profile `json:"profile"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *moneybox.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", apiErr.Message)
			return
		}
		respondFlowError(w, r, err, nil)
		return
	}

	RespondJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.Session.ExpiresAt.UTC(),
		Profile:   res.Session.Profile(),
	})
}

// Logout handles POST /v1/auth/logout. The session is deleted entirely.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), sess); err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/me: the dashboard and profile snapshot.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, sess.Profile())
}
