package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/domain"
)

const testSecret = "test-secret-test-secret-test-secret!"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "discord-monitor-report",
		Audience:  "discord-monitor-report-api",
	}
}

func newTestTokenManager(t *testing.T, opts ...TokenOption) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testAuthConfig(), opts...)
	require.NoError(t, err)
	return tm
}

var staffIdentity = domain.Identity{SubjectID: 1, Email: "staff@example.com", Role: domain.RoleStaff}

func TestNewTokenManager_RejectsWeakSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = "short"
	_, err := NewTokenManager(cfg)
	assert.Error(t, err)

	cfg.JWTSecret = ""
	_, err = NewTokenManager(cfg)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := newTestTokenManager(t)

	identities := []domain.Identity{
		staffIdentity,
		{SubjectID: 42, Email: "manager@example.com", Role: domain.RoleManager},
	}
	for _, identity := range identities {
		token, exp, err := tm.Sign(identity)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)
		assert.WithinDuration(t, time.Now().Add(TokenTTL), exp, 2*time.Second)

		claims, err := tm.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, identity, *claims.Identity())
		assert.Equal(t, "discord-monitor-report", claims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"discord-monitor-report-api"}, claims.Audience)
		assert.NotEmpty(t, claims.ID)
		assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	}
}

func TestTokenManager_SignRejectsIncompleteIdentity(t *testing.T) {
	tm := newTestTokenManager(t)

	for _, identity := range []domain.Identity{
		{SubjectID: 0, Email: "a@example.com", Role: domain.RoleStaff},
		{SubjectID: 1, Email: "", Role: domain.RoleStaff},
		{SubjectID: 1, Email: "a@example.com", Role: domain.Role("ADMIN")},
	} {
		_, _, err := tm.Sign(identity)
		assert.Error(t, err)
	}
}

func TestTokenManager_SignatureMutationIsBadSignature(t *testing.T) {
	tm := newTestTokenManager(t)
	token, _, err := tm.Sign(staffIdentity)
	require.NoError(t, err)

	sigStart := strings.LastIndex(token, ".") + 1
	for i := sigStart; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		for _, b := range []byte{replacement, '.'} {
			mutated := token[:i] + string(b) + token[i+1:]

			_, err := tm.Verify(mutated)
			require.Errorf(t, err, "mutation %q at %d accepted", b, i)
			assert.ErrorIsf(t, err, ErrTokenBadSignature, "mutation %q at %d", b, i)
		}
	}

	_, err = tm.Verify(token + ".")
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenManager_Expired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	now := issued
	tm := newTestTokenManager(t, WithClock(func() time.Time { return now }))

	token, exp, err := tm.Sign(staffIdentity)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(24*time.Hour), exp)

	now = issued.Add(23 * time.Hour)
	_, err = tm.Verify(token)
	require.NoError(t, err)

	now = issued.Add(24*time.Hour + time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "expired", TokenFailureReason(err))
}

func TestTokenManager_WrongSecret(t *testing.T) {
	other := testAuthConfig()
	other.JWTSecret = strings.Repeat("z", 40)
	signer, err := NewTokenManager(other)
	require.NoError(t, err)

	token, _, err := signer.Sign(staffIdentity)
	require.NoError(t, err)

	_, err = newTestTokenManager(t).Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenManager_IssuerAndAudienceMismatch(t *testing.T) {
	verifier := newTestTokenManager(t)

	for name, mutate := range map[string]func(*config.AuthConfig){
		"issuer":   func(c *config.AuthConfig) { c.Issuer = "someone-else" },
		"audience": func(c *config.AuthConfig) { c.Audience = "another-api" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testAuthConfig()
			mutate(&cfg)
			signer, err := NewTokenManager(cfg)
			require.NoError(t, err)

			token, _, err := signer.Sign(staffIdentity)
			require.NoError(t, err)

			_, err = verifier.Verify(token)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestTokenManager_Malformed(t *testing.T) {
	tm := newTestTokenManager(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.e30.AAAA", "e30.!!!.AAAA", "e30.e30.AAAA", "eyJhbGciOiJYWVoifQ.e30.AAAA"} {
		_, err := tm.Verify(token)
		assert.ErrorIsf(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestTokenManager_RejectsMissingOrUnknownClaims(t *testing.T) {
	tm := newTestTokenManager(t)
	now := time.Now()

	base := func() *Claims {
		return &Claims{
			SubjectID: 1,
			Email:     "staff@example.com",
			Role:      domain.RoleStaff,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "discord-monitor-report",
				Audience:  jwt.ClaimStrings{"discord-monitor-report-api"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	tests := map[string]func(*Claims){
		"unknown role":  func(c *Claims) { c.Role = "ADMIN" },
		"no subject":    func(c *Claims) { c.SubjectID = 0 },
		"no email":      func(c *Claims) { c.Email = "" },
		"no expiration": func(c *Claims) { c.ExpiresAt = nil },
		"no issued at":  func(c *Claims) { c.IssuedAt = nil },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			claims := base()
			mutate(claims)
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			require.NoError(t, err)

			_, err = tm.Verify(token)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := newTestTokenManager(t)
	now := time.Now()
	claims := &Claims{
		SubjectID: 1,
		Email:     "staff@example.com",
		Role:      domain.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "discord-monitor-report",
			Audience:  jwt.ClaimStrings{"discord-monitor-report-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestDecodeUnsafe(t *testing.T) {
	other := testAuthConfig()
	other.JWTSecret = strings.Repeat("q", 32)
	signer, err := NewTokenManager(other)
	require.NoError(t, err)

	token, _, err := signer.Sign(staffIdentity)
	require.NoError(t, err)

	tm := newTestTokenManager(t)
	got := tm.DecodeUnsafe(token)
	require.NotNil(t, got)
	assert.Equal(t, staffIdentity, *got)

	_, err = tm.Verify(token)
	assert.Error(t, err, "unsafe decode must not imply validity")

	assert.Nil(t, DecodeUnsafe("not-a-token"))
}
