package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/domain"
)

// TokenTTL is the fixed lifetime of an access token.
const TokenTTL = 24 * time.Hour

// Token verification failures. Verify wraps exactly one of these.
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
)

var strictSegment = base64.RawURLEncoding.Strict()

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager. An unusable secret is an error.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tm := &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      TokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	SubjectID int64       `json:"subjectId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() *domain.Identity {
	return &domain.Identity{SubjectID: c.SubjectID, Email: c.Email, Role: c.Role}
}

// Sign builds and signs a JWT for the identity.
func (tm *TokenManager) Sign(identity domain.Identity) (string, time.Time, error) {
	if identity.SubjectID <= 0 || identity.Email == "" || !identity.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot sign incomplete identity %d/%q/%q", identity.SubjectID, identity.Email, identity.Role)
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		SubjectID: identity.SubjectID,
		Email:     identity.Email,
		Role:      identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", identity.SubjectID),
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{tm.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify validates signature, issuer, audience and lifetime and returns the claims.
// Errors wrap ErrTokenExpired, ErrTokenMalformed or ErrTokenBadSignature.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrTokenMalformed, len(parts))
	}
	for _, segment := range parts[:2] {
		if _, err := base64.RawURLEncoding.DecodeString(segment); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	// Header and payload decode, so anything wrong after them, extra dots
	// included, is a signature failure. Non-canonical encodings are rejected
	// because they would otherwise decode to the same bytes.
	if _, err := strictSegment.DecodeString(parts[2]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(tm.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token not valid", ErrTokenMalformed)
	}

	switch {
	case claims.SubjectID <= 0:
		return nil, fmt.Errorf("%w: missing subjectId", ErrTokenMalformed)
	case claims.Email == "":
		return nil, fmt.Errorf("%w: missing email", ErrTokenMalformed)
	case !claims.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenMalformed, claims.Role)
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: missing iat", ErrTokenMalformed)
	}
	return claims, nil
}

// DecodeUnsafe reads the identity without checking the signature or lifetime.
// Diagnostics only; never use the result for an authorization decision.
func (tm *TokenManager) DecodeUnsafe(tokenStr string) *domain.Identity {
	return DecodeUnsafe(tokenStr)
}

// DecodeUnsafe is the package level form of TokenManager.DecodeUnsafe.
func DecodeUnsafe(tokenStr string) *domain.Identity {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	return claims.Identity()
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// TokenFailureReason names the failure kind for logs and metrics.
func TokenFailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed_token"
	default:
		return "unknown"
	}
}
