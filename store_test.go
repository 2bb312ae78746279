package povguard

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		grant, err := store.Upsert(ctx, RoleUser, ResourcePoV, ActionView, true)
		if err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
		if !grant.Enabled {
			t.Fatalf("upsert %d returned disabled grant", i)
		}
	}

	var count int64
	if err := db.Model(&PermissionGrant{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one stored row, got %d", count)
	}
}

func TestUpsertTogglesInPlace(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, RoleAdmin, ResourceAudit, ActionView, true); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	grant, err := store.Upsert(ctx, RoleAdmin, ResourceAudit, ActionView, false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if grant.Enabled {
		t.Error("expected grant to read disabled after toggle")
	}

	var count int64
	if err := db.Model(&PermissionGrant{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one stored row, got %d", count)
	}
}

func TestGetMissingGrant(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)

	_, err := store.Get(context.Background(), RoleUser, ResourceCRM, ActionDelete)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllReturnsStoredGrants(t *testing.T) {
	db := setupTestDB(t)
	store := NewPermissionStore(db)
	ctx := context.Background()

	mustUpsert(t, store, RoleUser, ResourcePoV, ActionView, true)
	mustUpsert(t, store, RoleAdmin, ResourcePoV, ActionDelete, false)

	grants, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("getall failed: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
}
