package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-badgelink/badgelink/internal/models"
)

type memoryAuditStore struct {
	mu      sync.Mutex
	logs    []*models.AuditLog
	deleted time.Time
}

func (m *memoryAuditStore) CreateAuditLogBatch(logs []*models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memoryAuditStore) DeleteAuditLogsBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = cutoff
	return 0, nil
}

func (m *memoryAuditStore) GetAuditLogsByUser(_ string, _ int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memoryAuditStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func TestAuditServiceFlushOnShutdown(t *testing.T) {
	auditStore := &memoryAuditStore{}
	svc := NewAuditService(auditStore, true, 10)

	svc.Log(context.Background(), AuditLogEntry{
		EventType:   models.EventLinkInitiated,
		Severity:    models.SeverityInfo,
		ActorUserID: "u1",
		Success:     true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	assert.Equal(t, 1, auditStore.count())
}

func TestAuditServiceDisabled(t *testing.T) {
	auditStore := &memoryAuditStore{}
	svc := NewAuditService(auditStore, false, 10)

	svc.Log(context.Background(), AuditLogEntry{
		EventType: models.EventLinkInitiated,
	})

	require.NoError(t, svc.Shutdown(context.Background()))
	assert.Equal(t, 0, auditStore.count())
}

func TestAuditServiceMasksSensitiveDetails(t *testing.T) {
	auditStore := &memoryAuditStore{}
	svc := NewAuditService(auditStore, true, 10)

	svc.Log(context.Background(), AuditLogEntry{
		EventType:   models.EventLinkEstablished,
		Severity:    models.SeverityInfo,
		ActorUserID: "u1",
		Success:     true,
		Details: models.AuditDetails{
			"refresh_token": "rt-super-secret-value",
			"chain":         "Cosmos",
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	logs, err := svc.GetLogsByUser("u1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "***REDACTED***", logs[0].Details["refresh_token"])
	assert.Equal(t, "Cosmos", logs[0].Details["chain"])
}
