package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/guard"
	"golang.org/x/crypto/bcrypt"
)

// OperatorSubject is the JWT subject issued to the scoreboard operator.
const OperatorSubject = "operator"

// AuthService handles operator login.
type AuthService struct {
	jwtMgr       *auth.JWTManager
	passwordHash []byte
	lockout      *guard.Lockout
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService. passwordHash is a bcrypt hash.
func NewAuthService(jwtMgr *auth.JWTManager, passwordHash []byte, lockout *guard.Lockout, logger *slog.Logger) *AuthService {
	if lockout == nil {
		lockout = guard.NewLockout()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		jwtMgr:       jwtMgr,
		passwordHash: passwordHash,
		lockout:      lockout,
		logger:       logger,
	}
}

// HashPassword returns the bcrypt hash of a plain operator password.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Password string `json:"password"`
}

// AuthResult is returned on successful login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the operator password and issues an operator token.
// clientIP keys the failed-attempt lockout.
func (s *AuthService) Login(ctx context.Context, input LoginInput, clientIP string) (*AuthResult, error) {
	if input.Password == "" {
		return nil, domain.ErrValidation("password is required")
	}
	if err := s.lockout.CheckLocked(clientIP); err != nil {
		s.logger.WarnContext(ctx, "operator login locked out", "client_ip", clientIP)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(input.Password)); err != nil {
		s.lockout.RecordAttempt(clientIP, false)
		s.logger.WarnContext(ctx, "operator login failed", "client_ip", clientIP)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	s.lockout.RecordAttempt(clientIP, true)

	token, expiresAt, err := s.jwtMgr.GenerateToken(auth.RealmOperator, OperatorSubject)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	s.logger.InfoContext(ctx, "operator logged in", "client_ip", clientIP)
	return &AuthResult{Token: token, ExpiresAt: expiresAt}, nil
}
