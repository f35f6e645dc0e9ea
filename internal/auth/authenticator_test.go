package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/monitor-report/internal/domain"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

type memoryDenylist struct {
	revoked map[string]time.Time
	err     error
}

func (m *memoryDenylist) Revoked(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[id]
	return ok, nil
}

func (m *memoryDenylist) Revoke(_ context.Context, id string, until time.Time) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[id] = until
	return nil
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"", "", ErrMissingCredentials},
		{"abc.def.ghi", "", ErrMalformedHeader},
		{"Basic dXNlcjpwYXNz", "", ErrMalformedHeader},
		{"bearer abc", "", ErrMalformedHeader},
		{"Bearer ", "", ErrMalformedHeader},
		{"Bearer a b", "", ErrMalformedHeader},
		{"Bearer  abc", "", ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticator_Authenticate(t *testing.T) {
	tm := newTestTokenManager(t)
	authn := NewAuthenticator(tm, nil)

	token, exp, err := tm.Sign(staffIdentity)
	require.NoError(t, err)

	principal, err := authn.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, staffIdentity, principal.Identity)
	assert.NotEmpty(t, principal.TokenID)
	assert.Equal(t, exp, principal.ExpiresAt)
}

func TestAuthenticator_FailuresCollapseToUnauthenticated(t *testing.T) {
	issued := time.Now().Add(-48 * time.Hour)
	expiredSigner := newTestTokenManager(t, WithClock(func() time.Time { return issued }))
	expired, _, err := expiredSigner.Sign(staffIdentity)
	require.NoError(t, err)

	tm := newTestTokenManager(t)
	valid, _, err := tm.Sign(staffIdentity)
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + "xx"

	authn := NewAuthenticator(tm, nil)

	tests := []struct {
		name        string
		header      string
		wantReason  string
		wantMessage string
	}{
		{"missing header", "", "missing_header", MessageInvalidCredentials},
		{"missing prefix", valid, "malformed_header", MessageInvalidCredentials},
		{"extra segment", "Bearer " + valid + " extra", "malformed_header", MessageInvalidCredentials},
		{"garbage token", "Bearer nope", "malformed_token", MessageInvalidCredentials},
		{"tampered signature", "Bearer " + tampered, "bad_signature", MessageInvalidCredentials},
		{"expired", "Bearer " + expired, "expired", MessageTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := authn.Authenticate(context.Background(), tt.header)
			assert.Nil(t, principal)
			require.Error(t, err)

			de := apperrors.ToDomainError(err)
			assert.Equal(t, apperrors.CodeUnauthenticated, de.Code)
			assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
			assert.Equal(t, tt.wantMessage, de.Message)
			assert.Equal(t, tt.wantReason, FailureReason(err))
		})
	}
}

func TestAuthenticator_Denylist(t *testing.T) {
	tm := newTestTokenManager(t)
	denylist := &memoryDenylist{}
	authn := NewAuthenticator(tm, denylist)

	token, _, err := tm.Sign(staffIdentity)
	require.NoError(t, err)

	principal, err := authn.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	require.NoError(t, authn.Revoke(context.Background(), principal))

	_, err = authn.Authenticate(context.Background(), "Bearer "+token)
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.Code(err))
	assert.Equal(t, "revoked", FailureReason(err))

	denylist.err = errors.New("redis down")
	_, err = authn.Authenticate(context.Background(), "Bearer "+token)
	assert.Equal(t, apperrors.CodeInternal, apperrors.Code(err))
}

func TestRedisDenylist(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	d := NewRedisDenylist(client)

	revoked, err := d.Revoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = d.Revoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.InDelta(t, time.Hour.Seconds(), srv.TTL("denylist:jti-1").Seconds(), 5)

	srv.FastForward(2 * time.Hour)
	revoked, err = d.Revoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, srv.Exists("denylist:jti-2"))

	assert.Error(t, d.Revoke(ctx, "", time.Now().Add(time.Hour)))
}

func TestAuthMiddleware(t *testing.T) {
	tm := newTestTokenManager(t)
	mw := NewAuthMiddleware(NewAuthenticator(tm, nil))

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		identity := IdentityFromContext(c)
		return c.SendString(identity.Email)
	})
	app.Get("/optional", mw.Optional, func(c *fiber.Ctx) error {
		if IdentityFromContext(c) == nil {
			return c.SendString("anonymous")
		}
		return c.SendString("known")
	})
	app.Get("/managers", mw.Handle, RequireRoles(domain.NewRoleSet(domain.RoleManager)), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	token, _, err := tm.Sign(staffIdentity)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"authenticated", "/me", "Bearer " + token, http.StatusOK},
		{"no header", "/me", "", http.StatusUnauthorized},
		{"bad header", "/me", "Token " + token, http.StatusUnauthorized},
		{"optional anonymous", "/optional", "Bearer junk", http.StatusOK},
		{"wrong role", "/managers", "Bearer " + token, http.StatusForbidden},
		{"role gate needs authentication", "/managers", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
