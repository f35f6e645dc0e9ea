package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/domain"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// Authorize allows identity iff its role is in allowed. Roles do not inherit
// from each other; a nil identity is always forbidden.
func Authorize(identity *domain.Identity, allowed domain.RoleSet) error {
	if identity == nil {
		return apperrors.NewForbidden("authenticated identity required")
	}
	if !allowed.Contains(identity.Role) {
		return apperrors.NewForbidden(forbiddenRoleMessage(allowed))
	}
	return nil
}

func forbiddenRoleMessage(allowed domain.RoleSet) string {
	roles := allowed.Slice()
	if len(roles) == 0 {
		return "no role may perform this operation"
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, strings.ToLower(string(role)))
	}
	return fmt.Sprintf("%s role required", strings.Join(names, " or "))
}

// RequireRoles gates a route group on the authenticated principal's role.
// It must run after AuthMiddleware.Handle.
func RequireRoles(allowed domain.RoleSet) fiber.Handler {
	return RequireRolesWithMessage(allowed, "")
}

// RequireRolesWithMessage is RequireRoles with a fixed denial message.
// An empty message falls back to naming the allowed roles.
func RequireRolesWithMessage(allowed domain.RoleSet, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated(MessageInvalidCredentials, ErrMissingCredentials)
		}
		if err := Authorize(&principal.Identity, allowed); err != nil {
			if message != "" {
				return apperrors.NewForbidden(message)
			}
			return err
		}
		return c.Next()
	}
}
