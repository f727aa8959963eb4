package store

import (
	"fmt"
	"time"

	"github.com/go-badgelink/badgelink/internal/models"
)

// Audit log operations

// CreateAuditLogBatch writes a batch of audit log entries in one insert.
func (s *Store) CreateAuditLogBatch(logs []*models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := s.db.Create(logs).Error; err != nil {
		return fmt.Errorf("%w: create audit log batch: %v", ErrStore, err)
	}
	return nil
}

// DeleteAuditLogsBefore removes audit logs created before the cutoff.
// Returns the number of rows removed.
func (s *Store) DeleteAuditLogsBefore(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: delete old audit logs: %v", ErrStore, result.Error)
	}
	return result.RowsAffected, nil
}

// GetAuditLogsByUser returns recent audit entries for a user, newest first.
func (s *Store) GetAuditLogsByUser(userID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.Where("actor_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: get audit logs for user %s: %v", ErrStore, userID, err)
	}
	return logs, nil
}
