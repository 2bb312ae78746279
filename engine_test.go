package povguard

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&PermissionGrant{}, &PoV{}, &PoVTeamMember{},
		&LaunchRecord{}, &LaunchChecklistItem{}, &ApprovalWorkflow{},
		&AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	return NewEngine(NewPermissionStore(db), nil, nil)
}

func mustUpsert(t *testing.T, store *PermissionStore, role Role, resourceType ResourceType, action ResourceAction, enabled bool) {
	t.Helper()
	if _, err := store.Upsert(context.Background(), role, resourceType, action, enabled); err != nil {
		t.Fatalf("failed to upsert grant: %v", err)
	}
}

func TestCheckDefaultDeny(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	decision, err := engine.Check(context.Background(),
		Principal{ID: "u1", Role: RoleUser},
		Resource{Type: ResourceSettings},
		ActionView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected deny for a matrix cell that was never toggled")
	}
	if decision.Reason == "" {
		t.Error("expected a deny reason")
	}
}

func TestCheckSuperAdminBypass(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	engine := NewEngine(store, nil, nil)

	// Even an explicit disabling row must not reach a super admin.
	mustUpsert(t, store, RoleSuperAdmin, ResourceAudit, ActionView, false)

	for _, resourceType := range AllResourceTypes {
		for _, action := range AllActions {
			decision, err := engine.Check(context.Background(),
				Principal{ID: "root", Role: RoleSuperAdmin},
				Resource{Type: resourceType},
				action)
			if err != nil {
				t.Fatalf("unexpected error for %s/%s: %v", resourceType, action, err)
			}
			if !decision.Allowed {
				t.Errorf("expected allow for super admin on %s/%s", resourceType, action)
			}
		}
	}
}

func TestCheckAdminEscalationGuard(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	engine := NewEngine(store, nil, nil)

	// The matrix says admins may edit permissions; the guard must still win
	// when the mutation targets ADMIN rows.
	mustUpsert(t, store, RoleAdmin, ResourcePermissions, ActionEdit, true)

	grantResource := Resource{Type: ResourcePermissions, TargetRole: RoleAdmin}

	decision, err := engine.Check(context.Background(),
		Principal{ID: "a1", Role: RoleAdmin}, grantResource, ActionEdit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected deny when an admin edits admin permissions")
	}
	if decision.Reason != "only super admins can modify admin permissions" {
		t.Errorf("unexpected reason: %q", decision.Reason)
	}

	decision, err = engine.Check(context.Background(),
		Principal{ID: "root", Role: RoleSuperAdmin}, grantResource, ActionEdit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Error("expected allow when a super admin edits admin permissions")
	}

	// USER-target rows stay governed by the matrix alone.
	decision, err = engine.Check(context.Background(),
		Principal{ID: "a1", Role: RoleAdmin},
		Resource{Type: ResourcePermissions, TargetRole: RoleUser},
		ActionEdit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Error("expected allow when an admin edits user permissions")
	}
}

func TestCheckOwnershipNarrowing(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	engine := NewEngine(store, nil, nil)

	mustUpsert(t, store, RoleUser, ResourcePoV, ActionView, true)

	pov := Resource{Type: ResourcePoV, ID: "p1", OwnerID: "u1", TeamMemberIDs: []string{"u3"}}

	cases := []struct {
		name      string
		principal Principal
		want      bool
	}{
		{"owner", Principal{ID: "u1", Role: RoleUser}, true},
		{"team member", Principal{ID: "u3", Role: RoleUser}, true},
		{"outsider", Principal{ID: "u2", Role: RoleUser}, false},
		{"admin sees everything", Principal{ID: "a1", Role: RoleAdmin}, false}, // no ADMIN grant stored
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := engine.Check(context.Background(), tc.principal, pov, ActionView)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.Allowed != tc.want {
				t.Errorf("expected allowed=%t, got %t (%s)", tc.want, decision.Allowed, decision.Reason)
			}
		})
	}

	// With an ADMIN grant in place narrowing is skipped for admins.
	mustUpsert(t, store, RoleAdmin, ResourcePoV, ActionView, true)
	decision, err := engine.Check(context.Background(), Principal{ID: "a1", Role: RoleAdmin}, pov, ActionView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected admin with grant to bypass narrowing, got deny (%s)", decision.Reason)
	}
}

func TestCheckMatrixToggle(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	engine := NewEngine(store, nil, nil)

	principal := Principal{ID: "u1", Role: RoleUser}
	pov := Resource{Type: ResourcePoV, ID: "p1", OwnerID: "u1"}

	mustUpsert(t, store, RoleUser, ResourcePoV, ActionEdit, true)
	decision, err := engine.Check(context.Background(), principal, pov, ActionEdit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allow with enabled grant, got deny (%s)", decision.Reason)
	}

	mustUpsert(t, store, RoleUser, ResourcePoV, ActionEdit, false)
	decision, err = engine.Check(context.Background(), principal, pov, ActionEdit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected deny after the grant was disabled")
	}
}

func TestCheckMalformedTriple(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	cases := []struct {
		name      string
		principal Principal
		resource  Resource
		action    ResourceAction
	}{
		{"unknown role", Principal{ID: "u1", Role: "WIZARD"}, Resource{Type: ResourcePoV}, ActionView},
		{"unknown resource type", Principal{ID: "u1", Role: RoleUser}, Resource{Type: "GADGET"}, ActionView},
		{"unknown action", Principal{ID: "u1", Role: RoleUser}, Resource{Type: ResourcePoV}, "FROB"},
		{"empty principal id", Principal{Role: RoleUser}, Resource{Type: ResourcePoV}, ActionView},
		{"unknown target role", Principal{ID: "u1", Role: RoleUser}, Resource{Type: ResourcePermissions, TargetRole: "WIZARD"}, ActionEdit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Check(context.Background(), tc.principal, tc.resource, tc.action)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCheckUnownedResourceSkipsNarrowing(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	engine := NewEngine(store, nil, nil)

	mustUpsert(t, store, RoleUser, ResourceSettings, ActionView, true)

	decision, err := engine.Check(context.Background(),
		Principal{ID: "u1", Role: RoleUser},
		Resource{Type: ResourceSettings},
		ActionView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allow on an unowned resource type, got deny (%s)", decision.Reason)
	}
}
