package povguard

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Resolver loads the ownership facts the engine needs for owned resource
// types. It is the data-access half of the route layer's resource lookup.
type Resolver struct {
	db *gorm.DB
}

// NewResolver returns a resolver over the given database handle.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolvePoV builds the resource reference for a PoV, including its owner and
// team member IDs.
func (r *Resolver) ResolvePoV(ctx context.Context, povID string) (Resource, error) {
	var pov PoV
	err := r.db.WithContext(ctx).First(&pov, "id = ?", povID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resource{}, ErrNotFound
	}
	if err != nil {
		return Resource{}, fmt.Errorf("failed to fetch pov: %w", err)
	}

	var memberIDs []string
	if err := r.db.WithContext(ctx).Model(&PoVTeamMember{}).
		Where("pov_id = ?", povID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		return Resource{}, fmt.Errorf("failed to fetch team members: %w", err)
	}

	return Resource{
		Type:          ResourcePoV,
		ID:            pov.ID,
		OwnerID:       pov.OwnerID,
		TeamMemberIDs: memberIDs,
	}, nil
}
