package povguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationResult reports launch readiness. Errors lists every blocker.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// LaunchGate gates the confirm-launch transition behind checklist and
// phase-approval completeness. Completeness is evaluated before permission so
// a caller without approval rights still sees actionable blockers instead of
// a bare forbidden.
type LaunchGate struct {
	db       *gorm.DB
	engine   *Engine
	resolver *Resolver
}

// NewLaunchGate returns a gate over the given database, engine and resolver.
func NewLaunchGate(db *gorm.DB, engine *Engine, resolver *Resolver) *LaunchGate {
	return &LaunchGate{db: db, engine: engine, resolver: resolver}
}

// defaultChecklist seeds every newly initiated launch.
var defaultChecklist = []LaunchChecklistItem{
	{Key: "success_criteria", Label: "Success criteria agreed"},
	{Key: "team_assigned", Label: "Team assigned"},
	{Key: "kickoff_scheduled", Label: "Kickoff call scheduled"},
	{Key: "crm_linked", Label: "CRM opportunity linked"},
}

// Initiate creates (or re-opens) the launch record for a PoV and seeds its
// checklist from the template. Re-initiating an unconfirmed launch replaces
// the checklist wholesale; a confirmed launch is immutable history.
func (g *LaunchGate) Initiate(ctx context.Context, povID string) (*LaunchRecord, error) {
	var pov PoV
	err := g.db.WithContext(ctx).First(&pov, "id = ?", povID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pov: %w", err)
	}

	launch := &LaunchRecord{ID: uuid.NewString(), PoVID: povID}
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing LaunchRecord
		err := tx.Where("pov_id = ?", povID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Confirmed {
				return ErrAlreadyConfirmed
			}
			if err := tx.Where("launch_id = ?", existing.ID).Delete(&LaunchChecklistItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear checklist: %w", err)
			}
			launch = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(launch).Error; err != nil {
				return fmt.Errorf("failed to create launch record: %w", err)
			}
		default:
			return fmt.Errorf("failed to fetch launch record: %w", err)
		}

		for _, item := range defaultChecklist {
			item.LaunchID = launch.ID
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to seed checklist item %s: %w", item.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return launch, nil
}

// Checklist returns the launch's checklist items in seeded order.
func (g *LaunchGate) Checklist(ctx context.Context, povID string) ([]LaunchChecklistItem, error) {
	launch, err := g.record(ctx, povID)
	if err != nil {
		return nil, err
	}
	var items []LaunchChecklistItem
	if err := g.db.WithContext(ctx).
		Where("launch_id = ?", launch.ID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch checklist: %w", err)
	}
	return items, nil
}

// SetChecklistItem marks one checklist item complete or not. Once the launch
// is confirmed the checklist is read-only.
func (g *LaunchGate) SetChecklistItem(ctx context.Context, povID, key string, completed bool) error {
	launch, err := g.record(ctx, povID)
	if err != nil {
		return err
	}
	if launch.Confirmed {
		return ErrAlreadyConfirmed
	}

	res := g.db.WithContext(ctx).Model(&LaunchChecklistItem{}).
		Where("launch_id = ? AND key = ?", launch.ID, key).
		Update("completed", completed)
	if res.Error != nil {
		return fmt.Errorf("failed to update checklist item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletePhaseApproval marks a phase's approval workflow COMPLETED.
func (g *LaunchGate) CompletePhaseApproval(ctx context.Context, povID, phaseID string) error {
	res := g.db.WithContext(ctx).Model(&ApprovalWorkflow{}).
		Where("pov_id = ? AND phase_id = ? AND type = ?", povID, phaseID, WorkflowPhaseApproval).
		Update("status", WorkflowCompleted)
	if res.Error != nil {
		return fmt.Errorf("failed to complete approval workflow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Validate reports every blocker standing between a PoV and launch: one error
// per incomplete checklist item, plus a single aggregate line for pending
// phase-approval workflows.
func (g *LaunchGate) Validate(ctx context.Context, povID string) (ValidationResult, error) {
	launch, err := g.record(ctx, povID)
	if err != nil {
		return ValidationResult{}, err
	}

	var items []LaunchChecklistItem
	if err := g.db.WithContext(ctx).
		Where("launch_id = ?", launch.ID).
		Order("id").
		Find(&items).Error; err != nil {
		return ValidationResult{}, fmt.Errorf("failed to fetch checklist: %w", err)
	}

	result := ValidationResult{Errors: []string{}}
	for _, item := range items {
		if !item.Completed {
			result.Errors = append(result.Errors, fmt.Sprintf("Checklist item %q not completed", item.Label))
		}
	}

	var pending int64
	if err := g.db.WithContext(ctx).Model(&ApprovalWorkflow{}).
		Where("pov_id = ? AND type = ? AND status <> ?", povID, WorkflowPhaseApproval, WorkflowCompleted).
		Count(&pending).Error; err != nil {
		return ValidationResult{}, fmt.Errorf("failed to count approval workflows: %w", err)
	}
	if pending > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d phases need approval workflow completion", pending))
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// Confirm validates, authorizes and flips the launch record, in that order.
// No state is written unless both checks pass. The flip itself is a
// conditional update on confirmed = false: when two confirms race, the loser
// affects zero rows and gets ErrAlreadyConfirmed.
func (g *LaunchGate) Confirm(ctx context.Context, povID, launchID string, principal Principal) (*LaunchRecord, error) {
	result, err := g.Validate(ctx, povID)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{Errors: result.Errors}
	}

	resource, err := g.resolver.ResolvePoV(ctx, povID)
	if err != nil {
		return nil, err
	}
	decision, err := g.engine.Check(ctx, principal, resource, ActionApprove)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	now := time.Now()
	var launch LaunchRecord
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&LaunchRecord{}).
			Where("id = ? AND pov_id = ? AND confirmed = ?", launchID, povID, false).
			Updates(map[string]interface{}{
				"confirmed":   true,
				"launched_at": now,
				"launched_by": principal.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to confirm launch: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var existing LaunchRecord
			if err := tx.First(&existing, "id = ?", launchID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("failed to fetch launch record: %w", err)
			}
			return ErrAlreadyConfirmed
		}
		return tx.First(&launch, "id = ?", launchID).Error
	})
	if err != nil {
		return nil, err
	}
	return &launch, nil
}

func (g *LaunchGate) record(ctx context.Context, povID string) (*LaunchRecord, error) {
	var launch LaunchRecord
	err := g.db.WithContext(ctx).Where("pov_id = ?", povID).First(&launch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch launch record: %w", err)
	}
	return &launch, nil
}
