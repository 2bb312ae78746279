package povguard

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// defaultMatrix is the allow-list seeded for a fresh install. SUPER_ADMIN is
// deliberately absent: its access is synthesized, never stored.
var defaultMatrix = map[Role]map[ResourceType][]ResourceAction{
	RoleUser: {
		ResourcePoV:   {ActionView, ActionCreate, ActionEdit},
		ResourcePhase: {ActionView, ActionEdit},
		ResourceTask:  {ActionView, ActionCreate, ActionEdit},
		ResourceTeam:  {ActionView},
	},
	RoleAdmin: {
		ResourcePoV:         {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign, ActionApprove, ActionReject},
		ResourcePhase:       {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionReject},
		ResourceTask:        {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign},
		ResourceUser:        {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ResourceTeam:        {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign},
		ResourceSettings:    {ActionView, ActionEdit},
		ResourceAnalytics:   {ActionView},
		ResourceAudit:       {ActionView},
		ResourcePermissions: {ActionView, ActionEdit},
		ResourceJobTitles:   {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ResourceCRM:         {ActionView, ActionEdit},
		ResourceCRMSettings: {ActionView, ActionEdit},
		ResourceCRMMapping:  {ActionView, ActionEdit},
		ResourceCRMSync:     {ActionView, ActionEdit},
	},
}

// SeedDefaultMatrix inserts any missing default grants in one transaction.
// Existing rows keep their stored value, so operator toggles survive a
// restart with seeding enabled.
func (s *Service) SeedDefaultMatrix(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for role, types := range defaultMatrix {
			for resourceType, actions := range types {
				for _, action := range actions {
					grant := PermissionGrant{
						Role:         role,
						ResourceType: resourceType,
						Action:       action,
						Enabled:      true,
					}
					if err := tx.Where("role = ? AND resource_type = ? AND action = ?", role, resourceType, action).
						FirstOrCreate(&grant).Error; err != nil {
						return fmt.Errorf("failed to seed grant %s: %w", grantKey(role, resourceType, action), err)
					}
				}
			}
		}
		return nil
	})
}
