package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/monitor-report/internal/domain"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// Header failures. Like token failures they only ever reach logs.
var (
	ErrMissingCredentials = errors.New("missing authorization header")
	ErrMalformedHeader    = errors.New("malformed authorization header")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Outward messages for 401 responses.
const (
	MessageInvalidCredentials = "invalid or missing credentials"
	MessageTokenExpired       = "token expired, please log in again"
)

// Principal is the authenticated caller together with the token facts needed for logout.
type Principal struct {
	domain.Identity
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator turns an Authorization header into a Principal.
type Authenticator struct {
	tokens   *TokenManager
	denylist Denylist
}

// NewAuthenticator constructs an authenticator. A nil denylist disables revocation.
func NewAuthenticator(tokens *TokenManager, denylist Denylist) *Authenticator {
	if denylist == nil {
		denylist = NoopDenylist{}
	}
	return &Authenticator{tokens: tokens, denylist: denylist}
}

// ExtractBearerToken accepts exactly "Bearer <token>".
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}

// Authenticate verifies the bearer token in header. Every expected failure is an
// UNAUTHENTICATED DomainError whose cause names the internal reason.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	raw, err := ExtractBearerToken(header)
	if err != nil {
		return nil, apperrors.NewUnauthenticated(MessageInvalidCredentials, err)
	}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.NewUnauthenticated(MessageTokenExpired, err)
		}
		return nil, apperrors.NewUnauthenticated(MessageInvalidCredentials, err)
	}

	revoked, err := a.denylist.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("check denylist: %w", err))
	}
	if revoked {
		return nil, apperrors.NewUnauthenticated(MessageInvalidCredentials, ErrTokenRevoked)
	}

	principal := &Principal{Identity: *claims.Identity(), TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// Revoke adds the principal's token to the denylist.
func (a *Authenticator) Revoke(ctx context.Context, principal *Principal) error {
	if principal == nil || principal.TokenID == "" {
		return nil
	}
	return a.denylist.Revoke(ctx, principal.TokenID, principal.ExpiresAt)
}

// FailureReason names why authentication failed, for logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "missing_header"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	default:
		return TokenFailureReason(err)
	}
}
