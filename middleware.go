package povguard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// PrincipalKey is the fiber locals key the auth middleware populates.
const PrincipalKey = "principal"

// AuthMiddleware resolves the principal from the X-User-ID and X-User-Role
// headers set by the fronting session proxy. Requests without a resolvable
// principal are rejected before any handler runs.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-User-ID")
		role, err := ParseRole(c.Get("X-User-Role"))
		if id == "" || err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		c.Locals(PrincipalKey, Principal{ID: id, Role: role})
		return c.Next()
	}
}

// PrincipalFromCtx pulls the authenticated principal out of the request.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(PrincipalKey).(Principal)
	return p, ok
}

// RequirePermission gates a route on an engine decision for a resource type
// without instance narrowing. Owned resources resolve their ownership inside
// the handler instead.
func (s *Service) RequirePermission(resourceType ResourceType, action ResourceAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		decision, err := s.Check(c.Context(), principal, Resource{Type: resourceType}, action)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "authorization check failed")
		}
		if !decision.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"code":   "FORBIDDEN",
				"reason": decision.Reason,
			})
		}
		return c.Next()
	}
}
