package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/monitor-report/internal/domain"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

type owners struct {
	byID  map[int64]int64
	calls int
}

func (o *owners) OwnerOf(_ context.Context, id int64) (int64, error) {
	o.calls++
	owner, ok := o.byID[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return owner, nil
}

var (
	staffA   = &domain.Identity{SubjectID: 1, Email: "a@example.com", Role: domain.RoleStaff}
	staffB   = &domain.Identity{SubjectID: 2, Email: "b@example.com", Role: domain.RoleStaff}
	managerM = &domain.Identity{SubjectID: 10, Email: "m@example.com", Role: domain.RoleManager}
	managerN = &domain.Identity{SubjectID: 11, Email: "n@example.com", Role: domain.RoleManager}
)

const (
	reportOfA    int64 = 100
	commentOfM   int64 = 500
	missingID    int64 = 999
	noSuchAction       = Action("report:archive")
)

func newPolicy() (*Policy, *owners, *owners) {
	reports := &owners{byID: map[int64]int64{reportOfA: staffA.SubjectID}}
	comments := &owners{byID: map[int64]int64{commentOfM: managerM.SubjectID}}
	return New(reports, comments), reports, comments
}

func TestCheckReport(t *testing.T) {
	tests := []struct {
		name     string
		identity *domain.Identity
		action   Action
		id       int64
		wantCode string
	}{
		{"owner reads", staffA, ActionReportRead, reportOfA, ""},
		{"owner updates", staffA, ActionReportUpdate, reportOfA, ""},
		{"owner deletes", staffA, ActionReportDelete, reportOfA, ""},
		{"other staff reads", staffB, ActionReportRead, reportOfA, apperrors.CodeForbidden},
		{"other staff updates", staffB, ActionReportUpdate, reportOfA, apperrors.CodeForbidden},
		{"other staff deletes", staffB, ActionReportDelete, reportOfA, apperrors.CodeForbidden},
		{"manager reads any", managerM, ActionReportRead, reportOfA, ""},
		{"manager cannot update", managerM, ActionReportUpdate, reportOfA, apperrors.CodeForbidden},
		{"manager cannot delete", managerM, ActionReportDelete, reportOfA, apperrors.CodeForbidden},
		{"staff reads missing", staffA, ActionReportRead, missingID, apperrors.CodeNotFound},
		{"manager reads missing", managerM, ActionReportRead, missingID, apperrors.CodeNotFound},
		{"nil identity", nil, ActionReportRead, reportOfA, apperrors.CodeForbidden},
		{"unknown action", staffA, noSuchAction, reportOfA, apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newPolicy()
			err := p.CheckReport(context.Background(), tt.identity, tt.action, tt.id)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, apperrors.Code(err))
		})
	}
}

func TestRoleGateRunsBeforeExistence(t *testing.T) {
	p, reports, comments := newPolicy()

	// A manager deleting a report that does not exist learns nothing about existence.
	err := p.CheckReport(context.Background(), managerM, ActionReportDelete, missingID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err))
	assert.Zero(t, reports.calls)

	// Staff commenting never reaches the report lookup.
	err = p.CheckCommentCreate(context.Background(), staffA, reportOfA)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err))
	assert.Equal(t, "only managers may comment", apperrors.ToDomainError(err).Message)
	assert.Zero(t, reports.calls)

	err = p.CheckComment(context.Background(), staffA, ActionCommentUpdate, missingID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err))
	assert.Zero(t, comments.calls)
}

func TestOwnershipGateIsForbiddenNotNotFound(t *testing.T) {
	p, _, _ := newPolicy()

	for _, action := range []Action{ActionReportRead, ActionReportUpdate, ActionReportDelete} {
		err := p.CheckReport(context.Background(), staffB, action, reportOfA)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err), action)
	}
	for _, action := range []Action{ActionCommentUpdate, ActionCommentDelete} {
		err := p.CheckComment(context.Background(), managerN, action, commentOfM)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err), action)
	}
}

func TestCheckComment(t *testing.T) {
	p, _, _ := newPolicy()
	ctx := context.Background()

	assert.NoError(t, p.CheckComment(ctx, managerM, ActionCommentUpdate, commentOfM))
	assert.NoError(t, p.CheckComment(ctx, managerM, ActionCommentDelete, commentOfM))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(p.CheckComment(ctx, managerM, ActionCommentDelete, missingID)))

	err := p.CheckComment(ctx, managerN, ActionCommentUpdate, commentOfM)
	assert.Equal(t, "you can only update your own comments", apperrors.ToDomainError(err).Message)
}

func TestCheckCommentCreate(t *testing.T) {
	p, _, _ := newPolicy()
	ctx := context.Background()

	assert.NoError(t, p.CheckCommentCreate(ctx, managerM, reportOfA))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(p.CheckCommentCreate(ctx, managerM, missingID)))
}

func TestCheck_MasterDataAndCreate(t *testing.T) {
	p, _, _ := newPolicy()

	assert.NoError(t, p.Check(managerM, ActionMasterManage))
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(p.Check(staffA, ActionMasterManage)))

	assert.NoError(t, p.Check(staffA, ActionReportCreate))
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(p.Check(managerM, ActionReportCreate)))

	assert.NoError(t, p.Check(staffA, ActionServerList))
	assert.NoError(t, p.Check(managerM, ActionServerList))
}

func TestReportListScope(t *testing.T) {
	p, _, _ := newPolicy()
	requested := staffB.SubjectID

	scope, err := p.ReportListScope(staffA, &requested)
	require.NoError(t, err)
	require.NotNil(t, scope)
	assert.Equal(t, staffA.SubjectID, *scope)

	scope, err = p.ReportListScope(managerM, &requested)
	require.NoError(t, err)
	assert.Equal(t, staffB.SubjectID, *scope)

	scope, err = p.ReportListScope(managerM, nil)
	require.NoError(t, err)
	assert.Nil(t, scope)

	_, err = p.ReportListScope(nil, nil)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.Code(err))
}

func TestLookupFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	p := New(failingLookup{err: boom}, failingLookup{err: boom})

	err := p.CheckReport(context.Background(), staffA, ActionReportRead, reportOfA)
	assert.ErrorIs(t, err, boom)
}

type failingLookup struct{ err error }

func (f failingLookup) OwnerOf(context.Context, int64) (int64, error) { return 0, f.err }

func TestCapabilityTable(t *testing.T) {
	assert.Equal(t, []domain.Role{domain.RoleStaff}, RolesFor(ActionReportCreate).Slice())
	assert.Equal(t, []domain.Role{domain.RoleManager}, RolesFor(ActionCommentCreate).Slice())
	assert.Equal(t, []domain.Role{domain.RoleManager}, RolesFor(ActionMasterManage).Slice())
	assert.Equal(t, []domain.Role{domain.RoleStaff, domain.RoleManager}, RolesFor(ActionReportRead).Slice())
	assert.Empty(t, RolesFor(noSuchAction).Slice())
}
