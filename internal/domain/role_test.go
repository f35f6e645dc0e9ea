package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"STAFF", RoleStaff, false},
		{"staff", RoleStaff, false},
		{" Manager ", RoleManager, false},
		{"admin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleManager, Role("ADMIN"))
	assert.True(t, set.Contains(RoleManager))
	assert.False(t, set.Contains(RoleStaff))
	assert.False(t, set.Contains(Role("ADMIN")))
	assert.Equal(t, []Role{RoleManager}, set.Slice())

	var zero RoleSet
	assert.False(t, zero.Contains(RoleStaff))
	assert.Empty(t, zero.Slice())
}

func TestParseCommentTarget(t *testing.T) {
	got, err := ParseCommentTarget("problem")
	require.NoError(t, err)
	assert.Equal(t, CommentTargetProblem, got)

	got, err = ParseCommentTarget("PLAN")
	require.NoError(t, err)
	assert.Equal(t, CommentTargetPlan, got)

	_, err = ParseCommentTarget("summary")
	assert.Error(t, err)
}

func TestIdentity_Is(t *testing.T) {
	id := &Identity{SubjectID: 7, Email: "a@example.com", Role: RoleStaff}
	assert.True(t, id.Is(7))
	assert.False(t, id.Is(8))

	var nilID *Identity
	assert.False(t, nilID.Is(7))
}
