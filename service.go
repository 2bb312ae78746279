package povguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the configuration for the povguard service.
type Config struct {
	DB                 *gorm.DB
	RedisClient        *redis.Client
	CacheTTL           time.Duration
	CachePrefix        string
	AutoMigrate        bool
	SeedDefaultMatrix  bool
	EnableAuditLogging bool
	Logger             *zap.SugaredLogger
}

// Service bundles the permission store, the authorization engine and the
// launch approval gate over one database handle, and audits mutations.
type Service struct {
	db           *gorm.DB
	store        *PermissionStore
	cache        *GrantCache
	engine       *Engine
	resolver     *Resolver
	gate         *LaunchGate
	auditEnabled bool
	log          *zap.SugaredLogger
}

// NewService initializes the service, optionally migrating the schema and
// seeding the default matrix.
func NewService(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	if cfg.AutoMigrate {
		err := cfg.DB.AutoMigrate(
			&PermissionGrant{}, &PoV{}, &PoVTeamMember{},
			&LaunchRecord{}, &LaunchChecklistItem{}, &ApprovalWorkflow{},
			&AuditLog{},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	store := NewPermissionStore(cfg.DB)
	cache := NewGrantCache(cfg.RedisClient, cfg.CachePrefix, cfg.CacheTTL)
	engine := NewEngine(store, cache, cfg.Logger)
	resolver := NewResolver(cfg.DB)

	svc := &Service{
		db:           cfg.DB,
		store:        store,
		cache:        cache,
		engine:       engine,
		resolver:     resolver,
		gate:         NewLaunchGate(cfg.DB, engine, resolver),
		auditEnabled: cfg.EnableAuditLogging,
		log:          cfg.Logger,
	}

	if cfg.SeedDefaultMatrix {
		if err := svc.SeedDefaultMatrix(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to seed default matrix: %w", err)
		}
	}
	return svc, nil
}

// Engine exposes the authorization engine for callers that resolve their own
// resource references.
func (s *Service) Engine() *Engine { return s.engine }

// Resolver exposes the ownership resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Check runs the authorization engine and audits denials.
func (s *Service) Check(ctx context.Context, principal Principal, resource Resource, action ResourceAction) (Decision, error) {
	decision, err := s.engine.Check(ctx, principal, resource, action)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		s.logAudit(ctx, principal.ID, "check_denied", string(resource.Type), resource.ID, false, decision.Reason)
	}
	return decision, nil
}

// ListGrants returns the stored matrix plus the synthesized all-true
// SUPER_ADMIN rows. Super admin access is never persisted, so the management
// UI gets it read-only.
func (s *Service) ListGrants(ctx context.Context) ([]PermissionGrant, error) {
	grants, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, resourceType := range AllResourceTypes {
		for _, action := range AllActions {
			grants = append(grants, PermissionGrant{
				Role:         RoleSuperAdmin,
				ResourceType: resourceType,
				Action:       action,
				Enabled:      true,
			})
		}
	}
	return grants, nil
}

// UpsertGrant mutates one matrix cell on behalf of a principal. SUPER_ADMIN
// rows are immutable, and only super admins may touch ADMIN rows; both rules
// hold regardless of what the stored matrix says.
func (s *Service) UpsertGrant(ctx context.Context, principal Principal, role Role, resourceType ResourceType, action ResourceAction, enabled bool) (*PermissionGrant, error) {
	if !role.Valid() || !resourceType.Valid() || !action.Valid() {
		return nil, fmt.Errorf("%w: bad grant key (role=%q type=%q action=%q)", ErrInvalidInput, role, resourceType, action)
	}
	if role == RoleSuperAdmin {
		return nil, fmt.Errorf("%w: super admin permissions are not editable", ErrInvalidInput)
	}

	decision, err := s.engine.Check(ctx, principal, Resource{Type: ResourcePermissions, TargetRole: role}, ActionEdit)
	if err != nil {
		return nil, err
	}
	target := grantKey(role, resourceType, action)
	if !decision.Allowed {
		s.logAudit(ctx, principal.ID, "upsert_grant", string(ResourcePermissions), target, false, decision.Reason)
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	grant, err := s.store.Upsert(ctx, role, resourceType, action, enabled)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, role, resourceType, action)
	s.logAudit(ctx, principal.ID, "upsert_grant", string(ResourcePermissions), target, true, fmt.Sprintf("enabled=%t", enabled))
	return grant, nil
}

// InitiateLaunch starts the launch workflow for a PoV on behalf of a
// principal with EDIT rights on it.
func (s *Service) InitiateLaunch(ctx context.Context, povID string, principal Principal) (*LaunchRecord, error) {
	if err := s.authorizePoV(ctx, povID, principal, ActionEdit); err != nil {
		return nil, err
	}
	launch, err := s.gate.Initiate(ctx, povID)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, principal.ID, "initiate_launch", string(ResourcePoV), povID, true, "")
	return launch, nil
}

// ValidateLaunch reports launch readiness. Deliberately ungated: validation
// feedback is useful even to callers who cannot confirm.
func (s *Service) ValidateLaunch(ctx context.Context, povID string) (ValidationResult, error) {
	return s.gate.Validate(ctx, povID)
}

// LaunchChecklist returns the checklist for a PoV's launch.
func (s *Service) LaunchChecklist(ctx context.Context, povID string) ([]LaunchChecklistItem, error) {
	return s.gate.Checklist(ctx, povID)
}

// SetChecklistItem toggles one checklist item on behalf of a principal with
// EDIT rights on the PoV.
func (s *Service) SetChecklistItem(ctx context.Context, povID, key string, completed bool, principal Principal) error {
	if err := s.authorizePoV(ctx, povID, principal, ActionEdit); err != nil {
		return err
	}
	if err := s.gate.SetChecklistItem(ctx, povID, key, completed); err != nil {
		return err
	}
	s.logAudit(ctx, principal.ID, "set_checklist_item", string(ResourcePoV), povID, true, fmt.Sprintf("%s=%t", key, completed))
	return nil
}

// CompletePhaseApproval marks a phase's approval workflow COMPLETED on behalf
// of a principal with APPROVE rights on the PoV.
func (s *Service) CompletePhaseApproval(ctx context.Context, povID, phaseID string, principal Principal) error {
	if err := s.authorizePoV(ctx, povID, principal, ActionApprove); err != nil {
		return err
	}
	if err := s.gate.CompletePhaseApproval(ctx, povID, phaseID); err != nil {
		return err
	}
	s.logAudit(ctx, principal.ID, "complete_phase_approval", string(ResourcePoV), povID, true, "phase="+phaseID)
	return nil
}

// ConfirmLaunch runs the full gate: completeness, permission, then the
// conditional state flip.
func (s *Service) ConfirmLaunch(ctx context.Context, povID, launchID string, principal Principal) (*LaunchRecord, error) {
	launch, err := s.gate.Confirm(ctx, povID, launchID, principal)
	if err != nil {
		s.logAudit(ctx, principal.ID, "confirm_launch", string(ResourcePoV), povID, false, err.Error())
		return nil, err
	}
	s.logAudit(ctx, principal.ID, "confirm_launch", string(ResourcePoV), povID, true, "launch="+launchID)
	return launch, nil
}

// authorizePoV resolves a PoV and checks one action against it.
func (s *Service) authorizePoV(ctx context.Context, povID string, principal Principal, action ResourceAction) error {
	resource, err := s.resolver.ResolvePoV(ctx, povID)
	if err != nil {
		return err
	}
	decision, err := s.Check(ctx, principal, resource, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}
	return nil
}

func grantKey(role Role, resourceType ResourceType, action ResourceAction) string {
	return fmt.Sprintf("%s:%s:%s", role, resourceType, action)
}
