package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// ErrNoRoles is returned when a role guard is configured without any role.
var ErrNoRoles = errors.New("auth: allowRoles requires at least one role")

// TargetIDParam is the route parameter naming the user a request acts on.
const TargetIDParam = "id"

func roleSet(roles []domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// RoleGuard admits identities whose role is in a fixed allow-list.
type RoleGuard struct {
	allowed map[domain.Role]struct{}
}

// NewRoleGuard builds a guard; at least one role is required.
func NewRoleGuard(roles ...domain.Role) (*RoleGuard, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	return &RoleGuard{allowed: roleSet(roles)}, nil
}

// Check returns nil when identity holds an allowed role.
func (g *RoleGuard) Check(identity *domain.Identity) error {
	if identity == nil || identity.Role == "" {
		return apperrors.NewForbidden(CodeRoleMissing, "Missing user role", "auth")
	}
	if _, ok := g.allowed[identity.Role]; !ok {
		return apperrors.NewForbidden(CodeRoleForbidden, "Forbidden", "auth")
	}
	return nil
}

// Handler adapts the guard to fiber.
func (g *RoleGuard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if err := g.Check(identity); err != nil {
			return err
		}
		return c.Next()
	}
}

// AllowRoles ensures the caller has one of the allowed roles. It panics when
// called without roles, so misconfigured routes fail at startup.
func AllowRoles(roles ...domain.Role) fiber.Handler {
	guard, err := NewRoleGuard(roles...)
	if err != nil {
		panic(err)
	}
	return guard.Handler()
}

// SelfOrRolesGuard admits the owner of the target resource or holders of a privileged role.
type SelfOrRolesGuard struct {
	param string
	roles map[domain.Role]struct{}
}

// NewSelfOrRolesGuard builds a guard reading the target id from param. With no
// roles only the owner is admitted.
func NewSelfOrRolesGuard(param string, roles ...domain.Role) *SelfOrRolesGuard {
	return &SelfOrRolesGuard{param: param, roles: roleSet(roles)}
}

// Check returns nil when identity is the target or holds a privileged role.
func (g *SelfOrRolesGuard) Check(identity *domain.Identity, targetID string) error {
	if identity == nil || identity.ID == "" {
		return apperrors.NewForbidden(CodeSelfOrRoleMissingUser, "Missing user id", "auth")
	}
	if strings.TrimSpace(targetID) == "" {
		return apperrors.NewForbidden(CodeSelfOrRoleMissingTarget, "Missing target id param", "auth")
	}

	isSelf := identity.ID == targetID
	_, roleAllowed := g.roles[identity.Role]
	roleAllowed = roleAllowed && len(g.roles) > 0 && identity.Role != ""

	if !isSelf && !roleAllowed {
		return apperrors.NewForbidden(CodeSelfOrRoleForbidden, "Forbidden", "auth")
	}
	return nil
}

// Handler adapts the guard to fiber.
func (g *SelfOrRolesGuard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if err := g.Check(identity, c.Params(g.param)); err != nil {
			return err
		}
		return c.Next()
	}
}

// IsSelfOrRoles admits the user named by the :id route parameter, or any
// caller holding one of roles.
func IsSelfOrRoles(roles ...domain.Role) fiber.Handler {
	return NewSelfOrRolesGuard(TargetIDParam, roles...).Handler()
}
