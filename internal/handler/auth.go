package handler

import (
	"net/http"
	"time"

	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/service"
)

// AuthHandler handles operator login and session checks.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeOrReject(w, r, &input) {
		return
	}

	result, err := h.authSvc.Login(r.Context(), input, ClientIP(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

type sessionResponse struct {
	AuthRequired bool       `json:"authRequired"`
	Subject      string     `json:"subject,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// Session handles GET /auth/session. It sits behind the operator middleware, so reaching
// it means the token is valid; without claims, authentication is switched off.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		RespondJSON(w, http.StatusOK, sessionResponse{AuthRequired: false})
		return
	}
	resp := sessionResponse{AuthRequired: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		resp.ExpiresAt = &exp
	}
	RespondJSON(w, http.StatusOK, resp)
}
