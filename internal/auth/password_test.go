package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, pw := range []string{"staff123", "manager123", "", "パスワード長いです"} {
		first, err := h.Hash(ctx, pw)
		require.NoError(t, err)
		second, err := h.Hash(ctx, pw)
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "digests must be salted")
		assert.True(t, h.Verify(ctx, pw, first))
		assert.True(t, h.Verify(ctx, pw, second))
		assert.False(t, h.Verify(ctx, pw+"x", first))
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-hash", "$2a$10$short"} {
		assert.False(t, h.Verify(context.Background(), "staff123", digest))
	}
}

func TestPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	digest, err := h.Hash(context.Background(), "staff123")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "staff123")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.Verify(ctx, "staff123", digest))
}

func TestPasswordHasher_PassesThroughBcryptLengthLimit(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	_, err := h.Hash(context.Background(), strings.Repeat("x", 73))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.False(t, ValidatePasswordStrength(""))
	assert.False(t, ValidatePasswordStrength("1234567"))
	assert.True(t, ValidatePasswordStrength("12345678"))
	assert.True(t, ValidatePasswordStrength("staff123"))
}
