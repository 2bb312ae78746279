package povguard

import "fmt"

// Role is the privilege level attached to a principal.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// ResourceType identifies a protectable resource class.
type ResourceType string

const (
	ResourcePoV         ResourceType = "POV"
	ResourcePhase       ResourceType = "PHASE"
	ResourceTask        ResourceType = "TASK"
	ResourceUser        ResourceType = "USER"
	ResourceTeam        ResourceType = "TEAM"
	ResourceSettings    ResourceType = "SETTINGS"
	ResourceAnalytics   ResourceType = "ANALYTICS"
	ResourceAudit       ResourceType = "AUDIT"
	ResourcePermissions ResourceType = "PERMISSIONS"
	ResourceJobTitles   ResourceType = "JOB_TITLES"
	ResourceCRM         ResourceType = "CRM"
	ResourceCRMSettings ResourceType = "CRM_SETTINGS"
	ResourceCRMMapping  ResourceType = "CRM_MAPPING"
	ResourceCRMSync     ResourceType = "CRM_SYNC"
)

// AllResourceTypes lists every resource class in matrix display order.
var AllResourceTypes = []ResourceType{
	ResourcePoV, ResourcePhase, ResourceTask, ResourceUser, ResourceTeam,
	ResourceSettings, ResourceAnalytics, ResourceAudit, ResourcePermissions,
	ResourceJobTitles, ResourceCRM, ResourceCRMSettings, ResourceCRMMapping,
	ResourceCRMSync,
}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	for _, known := range AllResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Owned reports whether instances of this resource type carry an owner and
// team membership that narrow a role-level grant to specific instances.
func (t ResourceType) Owned() bool {
	switch t {
	case ResourcePoV, ResourcePhase, ResourceTask:
		return true
	}
	return false
}

// ParseResourceType converts a wire value into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// ResourceAction identifies an operation class on a resource.
type ResourceAction string

const (
	ActionView    ResourceAction = "VIEW"
	ActionCreate  ResourceAction = "CREATE"
	ActionEdit    ResourceAction = "EDIT"
	ActionDelete  ResourceAction = "DELETE"
	ActionAssign  ResourceAction = "ASSIGN"
	ActionApprove ResourceAction = "APPROVE"
	ActionReject  ResourceAction = "REJECT"
)

// AllActions lists every action in matrix display order.
var AllActions = []ResourceAction{
	ActionView, ActionCreate, ActionEdit, ActionDelete,
	ActionAssign, ActionApprove, ActionReject,
}

// Valid reports whether a is a known action.
func (a ResourceAction) Valid() bool {
	for _, known := range AllActions {
		if a == known {
			return true
		}
	}
	return false
}

// Mutating reports whether the action changes state. Everything except VIEW
// counts, which is what the admin-escalation guard keys on.
func (a ResourceAction) Mutating() bool {
	return a != ActionView
}

// ParseAction converts a wire value into a ResourceAction.
func ParseAction(s string) (ResourceAction, error) {
	a := ResourceAction(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, s)
	}
	return a, nil
}
