package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-badgelink/badgelink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Token record operations

// UpsertToken inserts or replaces the token record keyed by user id.
// Repeated exchanges for the same user overwrite the single existing row.
func (s *Store) UpsertToken(ctx context.Context, record *models.TokenRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token",
			"refresh_token",
			"expires_at",
			"bit_badges_address",
			"chain",
			"revoke_pending",
			"revoke_started_at",
			"updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("%w: upsert token for user %s: %v", ErrStore, record.UserID, err)
	}
	return nil
}

// GetToken returns the token record for the user, or ErrRecordNotFound.
func (s *Store) GetToken(ctx context.Context, userID string) (*models.TokenRecord, error) {
	var record models.TokenRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: get token for user %s: %v", ErrStore, userID, err)
	}
	return &record, nil
}

// DeleteToken removes the token record for the user.
// Deleting a non-existent record is not an error.
func (s *Store) DeleteToken(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Delete(&models.TokenRecord{}, "user_id = ?", userID).Error
	if err != nil {
		return fmt.Errorf("%w: delete token for user %s: %v", ErrStore, userID, err)
	}
	return nil
}

// MarkRevokePending flags the record before the remote revoke call is made.
// The flag is the local half of the revoke handshake: if the remote call
// succeeds but the subsequent delete fails, the reconciliation sweep removes
// the stale pending row later.
func (s *Store) MarkRevokePending(ctx context.Context, userID string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"revoke_pending":    true,
			"revoke_started_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("%w: mark revoke pending for user %s: %v", ErrStore, userID, err)
	}
	return nil
}

// DeleteStaleRevokePending removes records whose revoke started before the
// cutoff and never completed locally. Returns the number of rows removed.
func (s *Store) DeleteStaleRevokePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("revoke_pending = ? AND revoke_started_at < ?", true, cutoff).
		Delete(&models.TokenRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: sweep stale revoke-pending records: %v", ErrStore, result.Error)
	}
	return result.RowsAffected, nil
}

// CountConnected returns the number of linked accounts (gauge metric source).
func (s *Store) CountConnected(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("revoke_pending = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count connected accounts: %v", ErrStore, err)
	}
	return count, nil
}
