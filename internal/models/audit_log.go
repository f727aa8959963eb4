package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Link flow events
	EventLinkInitiated    EventType = "LINK_INITIATED"
	EventLinkCallback     EventType = "LINK_CALLBACK"
	EventLinkEstablished  EventType = "LINK_ESTABLISHED"
	EventLinkDisconnected EventType = "LINK_DISCONNECTED"

	// Token events
	EventTokenValidated EventType = "TOKEN_VALIDATED"
	EventTokenExpired   EventType = "TOKEN_EXPIRED"
	EventTokenRevoked   EventType = "TOKEN_REVOKED"

	// Security events
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
	EventStateMismatch     EventType = "STATE_MISMATCH"
)

// EventSeverity represents the severity level of an audit event
type EventSeverity string

const (
	SeverityInfo    EventSeverity = "INFO"
	SeverityWarning EventSeverity = "WARNING"
	SeverityError   EventSeverity = "ERROR"
)

// AuditDetails stores additional event-specific information as JSON
type AuditDetails map[string]any

// Value implements the driver.Valuer interface for database storage
func (a AuditDetails) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database retrieval
func (a *AuditDetails) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported type for AuditDetails: %T", value)
	}
}

// AuditLog records a single link-flow event for compliance and debugging
type AuditLog struct {
	ID        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	EventType EventType     `gorm:"not null;index"`
	Severity  EventSeverity `gorm:"not null"`

	ActorUserID string `gorm:"index"`
	ActorIP     string

	Success       bool
	ErrorKind     string       // closed error-kind name, never raw error text
	Details       AuditDetails `gorm:"type:text"`
	UserAgent     string
	RequestPath   string
	RequestMethod string
}

// TableName overrides the table name used by AuditLog to `audit_logs`
func (AuditLog) TableName() string {
	return "audit_logs"
}
