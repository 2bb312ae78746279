package povguard

import (
	"time"

	"gorm.io/gorm"
)

// PermissionGrant is one cell of the role/resource/action allow-list matrix.
// Rows are created on first toggle and updated in place, never deleted.
// SUPER_ADMIN rows are never persisted.
type PermissionGrant struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Role         Role           `gorm:"type:varchar(32);not null;uniqueIndex:idx_grant_key" json:"role"`
	ResourceType ResourceType   `gorm:"type:varchar(32);not null;uniqueIndex:idx_grant_key" json:"resourceType"`
	Action       ResourceAction `gorm:"type:varchar(32);not null;uniqueIndex:idx_grant_key" json:"action"`
	Enabled      bool           `gorm:"not null;default:false" json:"enabled"`
	CreatedAt    time.Time      `json:"-"`
	UpdatedAt    time.Time      `json:"-"`
}

// PoV is the top-level project entity. Only the fields the authorization core
// needs are modeled here.
type PoV struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	OwnerID   string `gorm:"index;not null" json:"ownerId"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (PoV) TableName() string { return "povs" }

// PoVTeamMember maps a user onto a PoV's team.
type PoVTeamMember struct {
	PoVID     string `gorm:"column:pov_id;primaryKey;autoIncrement:false;type:uuid"`
	UserID    string `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (PoVTeamMember) TableName() string { return "pov_team_members" }

// LaunchRecord tracks the launch workflow of a single PoV.
type LaunchRecord struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	PoVID      string     `gorm:"column:pov_id;uniqueIndex;not null;type:uuid" json:"povId"`
	Confirmed  bool       `gorm:"not null;default:false" json:"confirmed"`
	LaunchedAt *time.Time `json:"launchedAt,omitempty"`
	LaunchedBy string     `json:"launchedBy,omitempty"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

// LaunchChecklistItem is one entry of a launch's readiness checklist. Items
// are seeded from a template at initiation and become read-only history once
// the launch is confirmed.
type LaunchChecklistItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	LaunchID  string `gorm:"not null;type:uuid;uniqueIndex:idx_launch_item" json:"-"`
	Key       string `gorm:"not null;uniqueIndex:idx_launch_item" json:"key"`
	Label     string `gorm:"not null" json:"label"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Workflow types and statuses.
const WorkflowPhaseApproval = "PHASE_APPROVAL"

// WorkflowStatus is the lifecycle state of an approval workflow.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "PENDING"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
)

// ApprovalWorkflow tracks a per-phase approval that must reach COMPLETED
// before the owning PoV may launch.
type ApprovalWorkflow struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PoVID     string         `gorm:"column:pov_id;index;not null;type:uuid" json:"povId"`
	Type      string         `gorm:"not null;default:'PHASE_APPROVAL'" json:"type"`
	PhaseID   string         `gorm:"not null" json:"phaseId"`
	Status    WorkflowStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// AuditLog tracks authorization and launch events.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    string    `gorm:"index;not null" json:"actorId"`
	Action     string    `gorm:"not null" json:"action"`
	TargetType string    `gorm:"not null" json:"targetType"`
	TargetID   string    `gorm:"index" json:"targetId"`
	Success    bool      `json:"success"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Principal is the authenticated caller as resolved by the session layer.
type Principal struct {
	ID   string
	Role Role
}

// Resource is the minimal reference the engine needs to evaluate a request:
// the class, the instance, and the resolved ownership facts. TargetRole is
// set when the resource is a permission grant, so the escalation guard can
// see which role the mutation touches.
type Resource struct {
	Type          ResourceType
	ID            string
	OwnerID       string
	TeamMemberIDs []string
	TargetRole    Role
}

// HasMember reports whether the user owns the resource or sits on its team.
func (r Resource) HasMember(userID string) bool {
	if r.OwnerID != "" && r.OwnerID == userID {
		return true
	}
	for _, id := range r.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
