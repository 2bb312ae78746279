package povguard

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantReader is the matrix lookup the authorization engine depends on.
type GrantReader interface {
	Get(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction) (*PermissionGrant, error)
}

// PermissionStore persists the role/resource/action grant matrix. It does no
// validation of the key values; that is the caller's job.
type PermissionStore struct {
	db *gorm.DB
}

// NewPermissionStore returns a store over the given database handle.
func NewPermissionStore(db *gorm.DB) *PermissionStore {
	return &PermissionStore{db: db}
}

// GetAll returns every stored grant.
func (s *PermissionStore) GetAll(ctx context.Context) ([]PermissionGrant, error) {
	var grants []PermissionGrant
	if err := s.db.WithContext(ctx).Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch grants: %w", err)
	}
	return grants, nil
}

// Get returns the grant for one matrix key, or ErrNotFound when the cell has
// never been toggled.
func (s *PermissionStore) Get(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction) (*PermissionGrant, error) {
	var grant PermissionGrant
	err := s.db.WithContext(ctx).
		Where("role = ? AND resource_type = ? AND action = ?", role, resourceType, action).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch grant: %w", err)
	}
	return &grant, nil
}

// Upsert inserts or updates the row for the matrix key and returns the stored
// row. The write rides on the unique index, so concurrent upserts to the same
// key resolve last-writer-wins at the database level.
func (s *PermissionStore) Upsert(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction, enabled bool) (*PermissionGrant, error) {
	grant := PermissionGrant{Role: role, ResourceType: resourceType, Action: action, Enabled: enabled}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}, {Name: "resource_type"}, {Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&grant).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert grant: %w", err)
	}
	return s.Get(ctx, role, resourceType, action)
}
