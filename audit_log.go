package povguard

import (
	"context"
	"fmt"
	"time"
)

// logAudit records an authorization-related event. Failures are logged and
// swallowed: auditing must not turn an allowed operation into an error.
func (s *Service) logAudit(ctx context.Context, actorID, action, targetType, targetID string, success bool, details string) {
	if !s.auditEnabled {
		return
	}
	entry := AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Success:    success,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Errorw("failed to record audit log", "action", action, "target", targetID, "error", err)
	}
}

// ListAuditLogs retrieves audit entries newest first, optionally filtered by
// actor or action.
func (s *Service) ListAuditLogs(ctx context.Context, actorID, action *string) ([]AuditLog, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	if action != nil {
		query = query.Where("action = ?", *action)
	}
	var entries []AuditLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return entries, nil
}
