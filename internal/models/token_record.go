package models

import (
	"time"
)

// TokenRecord holds the BitBadges token pair linked to a local user.
// There is at most one record per user; absence means "not connected".
type TokenRecord struct {
	UserID       string `gorm:"primaryKey"`
	AccessToken  string `gorm:"type:text;not null"`
	RefreshToken string `gorm:"type:text"`

	// ExpiresAt must be compared against the current time before the access
	// token is used. Equal-to-now counts as expired.
	ExpiresAt time.Time `gorm:"not null"`

	// Connected-identity display fields returned at exchange time
	BitBadgesAddress string
	Chain            string

	// RevokePending is set inside the local transaction that precedes the
	// remote revoke call. A record left pending past the sweep age is
	// reconciled (deleted) by the background sweep, so a remote-revoked
	// token cannot stay "connected" locally forever.
	RevokePending   bool
	RevokeStartedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by TokenRecord to `bitbadges_tokens`
func (TokenRecord) TableName() string {
	return "bitbadges_tokens"
}

// Expired reports whether the access token is unusable at the given time.
// The boundary is inclusive: a token whose expiry equals now is expired.
func (t *TokenRecord) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
