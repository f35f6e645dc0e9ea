package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("token has expired")

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"unauthenticated", NewUnauthenticated("invalid token", cause), CodeUnauthenticated, http.StatusUnauthorized},
		{"forbidden", NewForbidden("only managers may comment"), CodeForbidden, http.StatusForbidden},
		{"not found", NewNotFound("report", nil), CodeNotFound, http.StatusNotFound},
		{"validation", NewValidationError("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"conflict", NewConflict("email already registered", nil), CodeConflict, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("service: %w", NewForbidden("nope")), CodeForbidden, http.StatusForbidden},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
}

func TestUnauthenticated_KeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := NewUnauthenticated("invalid token", cause)

	de := ToDomainError(err)
	assert.Equal(t, "invalid token", de.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "signature is invalid")
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeForbidden, Code(NewForbidden("x")))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "", Code(nil))
}

func TestBody_NeverIncludesCause(t *testing.T) {
	err := NewUnauthenticated("invalid or missing credentials", errors.New("signature is invalid")).(*DomainError)
	assert.Equal(t, map[string]any{
		"error": map[string]any{"code": CodeUnauthenticated, "message": "invalid or missing credentials"},
	}, err.Body())

	nf := NewNotFound("report", map[string]any{"report_id": int64(4)}).(*DomainError)
	assert.Equal(t, map[string]any{"report_id": int64(4)}, nf.Body()["error"].(map[string]any)["details"])
}
