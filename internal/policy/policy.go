// Package policy holds the role capability table and the per-resource rules
// built on it. Every check runs the role gate first, then resolves the
// resource's owner (reporting NOT_FOUND), then the ownership gate.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/domain"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionReportCreate  Action = "report:create"
	ActionReportList    Action = "report:list"
	ActionReportRead    Action = "report:read"
	ActionReportUpdate  Action = "report:update"
	ActionReportDelete  Action = "report:delete"
	ActionCommentCreate Action = "comment:create"
	ActionCommentUpdate Action = "comment:update"
	ActionCommentDelete Action = "comment:delete"
	ActionServerList    Action = "server:list"
	ActionMasterManage  Action = "master:manage"
)

var (
	staffOnly   = domain.NewRoleSet(domain.RoleStaff)
	managerOnly = domain.NewRoleSet(domain.RoleManager)
	anyRole     = domain.NewRoleSet(domain.RoleStaff, domain.RoleManager)
)

type rule struct {
	roles domain.RoleSet
	// roles whose access is further limited to resources they own
	ownerOnly   domain.RoleSet
	roleMessage string
	ownerMsg    string
}

var capabilities = map[Action]rule{
	ActionReportCreate: {roles: staffOnly, roleMessage: "only staff may create reports"},
	ActionReportList:   {roles: anyRole, roleMessage: "staff or manager role required"},
	ActionReportRead: {
		roles:       anyRole,
		ownerOnly:   staffOnly,
		roleMessage: "staff or manager role required",
		ownerMsg:    "you do not have permission to view this report",
	},
	ActionReportUpdate: {
		roles:       staffOnly,
		ownerOnly:   staffOnly,
		roleMessage: "managers cannot update reports",
		ownerMsg:    "you do not have permission to edit this report",
	},
	ActionReportDelete: {
		roles:       staffOnly,
		ownerOnly:   staffOnly,
		roleMessage: "managers cannot delete reports",
		ownerMsg:    "you do not have permission to delete this report",
	},
	ActionCommentCreate: {roles: managerOnly, roleMessage: "only managers may comment"},
	ActionCommentUpdate: {
		roles:       managerOnly,
		ownerOnly:   managerOnly,
		roleMessage: "only managers may update comments",
		ownerMsg:    "you can only update your own comments",
	},
	ActionCommentDelete: {
		roles:       managerOnly,
		ownerOnly:   managerOnly,
		roleMessage: "only managers may delete comments",
		ownerMsg:    "you can only delete your own comments",
	},
	ActionServerList:   {roles: anyRole, roleMessage: "staff or manager role required"},
	ActionMasterManage: {roles: managerOnly, roleMessage: "manager role required"},
}

// RolesFor returns the roles allowed to perform action. Unknown actions allow nobody.
func RolesFor(action Action) domain.RoleSet {
	return capabilities[action].roles
}

// Require gates a route on action's role rule before any input is parsed.
// Denials carry the same message the service-level check would return.
func Require(action Action) fiber.Handler {
	r := capabilities[action]
	return auth.RequireRolesWithMessage(r.roles, r.roleMessage)
}

// OwnerLookup loads only the owner id of a resource. Absent resources return pgx.ErrNoRows.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, id int64) (int64, error)
}

// Policy enforces the resource rules for reports and comments.
type Policy struct {
	reports  OwnerLookup
	comments OwnerLookup
}

// New builds a Policy over the given ownership lookups.
func New(reports, comments OwnerLookup) *Policy {
	return &Policy{reports: reports, comments: comments}
}

// Check applies the role gate for actions that do not target an existing resource.
func (p *Policy) Check(identity *domain.Identity, action Action) error {
	r, ok := capabilities[action]
	if !ok {
		return apperrors.NewForbidden(fmt.Sprintf("unknown action %q", action))
	}
	if err := auth.Authorize(identity, r.roles); err != nil {
		return apperrors.NewForbidden(r.roleMessage)
	}
	return nil
}

// CheckReport gates read/update/delete of a report.
func (p *Policy) CheckReport(ctx context.Context, identity *domain.Identity, action Action, reportID int64) error {
	return p.checkOwned(ctx, identity, action, "report", p.reports, reportID)
}

// CheckComment gates update/delete of a comment.
func (p *Policy) CheckComment(ctx context.Context, identity *domain.Identity, action Action, commentID int64) error {
	return p.checkOwned(ctx, identity, action, "comment", p.comments, commentID)
}

// CheckCommentCreate gates commenting on a report: managers only, and the report must exist.
func (p *Policy) CheckCommentCreate(ctx context.Context, identity *domain.Identity, reportID int64) error {
	if err := p.Check(identity, ActionCommentCreate); err != nil {
		return err
	}
	if _, err := p.owner(ctx, "report", p.reports, reportID); err != nil {
		return err
	}
	return nil
}

// ReportListScope returns the owner filter a listing must apply. Staff always see
// only their own reports; managers see all, optionally narrowed by requested.
func (p *Policy) ReportListScope(identity *domain.Identity, requested *int64) (*int64, error) {
	if err := p.Check(identity, ActionReportList); err != nil {
		return nil, err
	}
	if identity.Role == domain.RoleStaff {
		own := identity.SubjectID
		return &own, nil
	}
	return requested, nil
}

func (p *Policy) checkOwned(ctx context.Context, identity *domain.Identity, action Action, resource string, lookup OwnerLookup, id int64) error {
	if err := p.Check(identity, action); err != nil {
		return err
	}
	owner, err := p.owner(ctx, resource, lookup, id)
	if err != nil {
		return err
	}
	r := capabilities[action]
	if r.ownerOnly.Contains(identity.Role) && owner != identity.SubjectID {
		return apperrors.NewForbidden(r.ownerMsg)
	}
	return nil
}

func (p *Policy) owner(ctx context.Context, resource string, lookup OwnerLookup, id int64) (int64, error) {
	owner, err := lookup.OwnerOf(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
		}
		return 0, err
	}
	return owner, nil
}
