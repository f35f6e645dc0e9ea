package auth

import (
	"context"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the only rule ValidatePasswordStrength enforces.
const MinPasswordLength = 8

// PasswordHasher hashes and verifies passwords with bcrypt.
// bcrypt embeds a random salt in every digest and compares in constant time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given work factor.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted digest of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches digest. A malformed digest is a mismatch.
func (h *PasswordHasher) Verify(ctx context.Context, password, digest string) bool {
	if ctx.Err() != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// ValidatePasswordStrength only checks length. This is a known weak policy kept
// for parity with existing accounts.
func ValidatePasswordStrength(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// PasswordRequirements describes ValidatePasswordStrength for error messages.
func PasswordRequirements() string {
	return "password must be at least 8 characters long"
}
