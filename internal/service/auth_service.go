package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/repository"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// MessageInvalidLogin is returned for every failed login, whether or not the email exists.
const MessageInvalidLogin = "invalid email or password"

// ErrInvalidCredentials is the logged cause of a failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates login, logout and identity lookup.
type AuthService struct {
	users         repository.UserRepository
	hasher        *auth.PasswordHasher
	tokens        *auth.TokenManager
	authenticator *auth.Authenticator
	revocation    bool
	logger        *zap.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	Hasher            *auth.PasswordHasher
	Tokens            *auth.TokenManager
	Authenticator     *auth.Authenticator
	RevocationEnabled bool
	Logger            *zap.Logger
}

// LoginResult is a successful login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         deps.UserRepo,
		hasher:        deps.Hasher,
		tokens:        deps.Tokens,
		authenticator: deps.Authenticator,
		revocation:    deps.RevocationEnabled,
		logger:        logger,
	}
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail identically, including the bcrypt work performed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInternalError(err)
		}
		s.hasher.Verify(ctx, password, s.dummy())
		return nil, apperrors.NewUnauthenticated(MessageInvalidLogin, ErrInvalidCredentials)
	}
	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, apperrors.NewUnauthenticated(MessageInvalidLogin, ErrInvalidCredentials)
	}

	token, exp, err := s.tokens.Sign(user.Identity())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// Logout always succeeds. With revocation enabled the caller's token is denylisted.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) {
	if !s.revocation || principal == nil || s.authenticator == nil {
		return
	}
	if err := s.authenticator.Revoke(ctx, principal); err != nil {
		s.logger.Warn("token revocation failed",
			zap.Int64("user_id", principal.SubjectID),
			zap.Error(err))
	}
}

// Me returns the account behind identity.
func (s *AuthService) Me(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, apperrors.NewUnauthenticated(auth.MessageInvalidCredentials, auth.ErrMissingCredentials)
	}
	user, err := s.users.GetByID(ctx, identity.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": identity.SubjectID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.Background(), "unused-login-placeholder")
		if err != nil {
			s.logger.Error("dummy digest generation failed", zap.Error(err))
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}
