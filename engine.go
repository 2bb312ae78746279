package povguard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Decision is the outcome of a Check call. Reason is set on deny so the route
// layer can surface something actionable next to the FORBIDDEN code.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine decides ALLOW/DENY for a (principal, resource, action) triple. The
// matrix is a strict allow-list: a cell that was never toggled reads as deny.
type Engine struct {
	grants GrantReader
	cache  *GrantCache
	log    *zap.SugaredLogger
}

// NewEngine returns an engine over the given grant source. cache may be nil.
func NewEngine(grants GrantReader, cache *GrantCache, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{grants: grants, cache: cache, log: log}
}

// Check evaluates the request in fixed order: super-admin bypass, then the
// admin-escalation guard, then the stored matrix, then ownership narrowing.
// The overrides win over the matrix, and the matrix wins over narrowing.
//
// A well-formed triple always yields an explicit decision. Unknown enum
// values are a caller bug and return ErrInvalidInput instead of a silent
// deny, so misconfiguration shows up in testing rather than as a 403.
func (e *Engine) Check(ctx context.Context, principal Principal, resource Resource, action ResourceAction) (Decision, error) {
	if principal.ID == "" || !principal.Role.Valid() || !resource.Type.Valid() || !action.Valid() {
		return Decision{}, fmt.Errorf("%w: malformed check triple (role=%q type=%q action=%q)",
			ErrInvalidInput, principal.Role, resource.Type, action)
	}
	if resource.TargetRole != "" && !resource.TargetRole.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown target role %q", ErrInvalidInput, resource.TargetRole)
	}

	// Super admins bypass the matrix entirely, stored rows included.
	if principal.Role == RoleSuperAdmin {
		return Decision{Allowed: true}, nil
	}

	// Admins must not widen admin permissions, no matter what the matrix says.
	if action.Mutating() && resource.Type == ResourcePermissions && resource.TargetRole == RoleAdmin {
		e.log.Debugw("denied admin permission mutation", "principal", principal.ID, "action", action)
		return Decision{Reason: "only super admins can modify admin permissions"}, nil
	}

	enabled, err := e.grantEnabled(ctx, principal.Role, resource.Type, action)
	if err != nil {
		return Decision{}, err
	}
	if !enabled {
		return Decision{Reason: fmt.Sprintf("role %s has no %s grant on %s", principal.Role, action, resource.Type)}, nil
	}

	// A role-level grant on an owned resource only reaches instances the
	// principal owns or belongs to. Admins see every instance.
	if resource.Type.Owned() && principal.Role != RoleAdmin && !resource.HasMember(principal.ID) {
		return Decision{Reason: fmt.Sprintf("not an owner or team member of %s %s", resource.Type, resource.ID)}, nil
	}

	return Decision{Allowed: true}, nil
}

// grantEnabled resolves one matrix cell through the cache. Absent rows count
// as disabled and are cached as such.
func (e *Engine) grantEnabled(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction) (bool, error) {
	if enabled, ok := e.cache.Get(ctx, role, resourceType, action); ok {
		return enabled, nil
	}
	grant, err := e.grants.Get(ctx, role, resourceType, action)
	if errors.Is(err, ErrNotFound) {
		e.cache.Set(ctx, role, resourceType, action, false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.cache.Set(ctx, role, resourceType, action, grant.Enabled)
	return grant.Enabled, nil
}
