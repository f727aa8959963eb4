package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/go-badgelink/badgelink/internal/models"
)

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testStoreOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testStoreOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation.
// For SQLite, each call creates a fresh :memory: database.
// For PostgreSQL, each call uses the shared container database.
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		connStr, err := pgContainer.ConnectionString(context.Background(), "sslmode=disable")
		require.NoError(t, err)
		dsn = connStr
	}

	s, err := New(context.Background(), driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		// Drop data so the shared postgres database starts clean next time
		s.db.Exec("DELETE FROM bitbadges_tokens")
		s.db.Exec("DELETE FROM audit_logs")
		_ = s.Close()
	})

	return s
}

func newTestRecord(userID string) *models.TokenRecord {
	return &models.TokenRecord{
		UserID:           userID,
		AccessToken:      "at-" + userID,
		RefreshToken:     "rt-" + userID,
		ExpiresAt:        time.Now().Add(time.Hour).Truncate(time.Millisecond),
		BitBadgesAddress: "bb1" + userID,
		Chain:            "Cosmos",
	}
}

func testStoreOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	ctx := context.Background()

	t.Run("UpsertAndGetToken", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		record := newTestRecord("u1")
		require.NoError(t, s.UpsertToken(ctx, record))

		got, err := s.GetToken(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "at-u1", got.AccessToken)
		assert.Equal(t, "rt-u1", got.RefreshToken)
		assert.Equal(t, "bb1u1", got.BitBadgesAddress)
		assert.Equal(t, "Cosmos", got.Chain)
	})

	t.Run("UpsertReplacesExistingRow", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		require.NoError(t, s.UpsertToken(ctx, newTestRecord("u1")))

		updated := newTestRecord("u1")
		updated.AccessToken = "at-new"
		updated.RefreshToken = "rt-new"
		require.NoError(t, s.UpsertToken(ctx, updated))

		got, err := s.GetToken(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "at-new", got.AccessToken)
		assert.Equal(t, "rt-new", got.RefreshToken)

		// Still a single row for the user
		count, err := s.CountConnected(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("GetTokenNotFound", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		_, err := s.GetToken(ctx, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DeleteToken", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		require.NoError(t, s.UpsertToken(ctx, newTestRecord("u1")))
		require.NoError(t, s.DeleteToken(ctx, "u1"))

		_, err := s.GetToken(ctx, "u1")
		assert.ErrorIs(t, err, ErrRecordNotFound)

		// Deleting again is a no-op
		require.NoError(t, s.DeleteToken(ctx, "u1"))
	})

	t.Run("MarkRevokePending", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		require.NoError(t, s.UpsertToken(ctx, newTestRecord("u1")))

		at := time.Now().Truncate(time.Millisecond)
		require.NoError(t, s.MarkRevokePending(ctx, "u1", at))

		got, err := s.GetToken(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, got.RevokePending)
		require.NotNil(t, got.RevokeStartedAt)
	})

	t.Run("DeleteStaleRevokePending", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		// Stale pending record
		require.NoError(t, s.UpsertToken(ctx, newTestRecord("stale")))
		require.NoError(t, s.MarkRevokePending(ctx, "stale", time.Now().Add(-2*time.Hour)))

		// Fresh pending record
		require.NoError(t, s.UpsertToken(ctx, newTestRecord("fresh")))
		require.NoError(t, s.MarkRevokePending(ctx, "fresh", time.Now()))

		// Untouched record
		require.NoError(t, s.UpsertToken(ctx, newTestRecord("active")))

		deleted, err := s.DeleteStaleRevokePending(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = s.GetToken(ctx, "stale")
		assert.ErrorIs(t, err, ErrRecordNotFound)

		_, err = s.GetToken(ctx, "fresh")
		require.NoError(t, err)

		_, err = s.GetToken(ctx, "active")
		require.NoError(t, err)
	})

	t.Run("CountConnectedExcludesRevokePending", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.UpsertToken(ctx, newTestRecord(fmt.Sprintf("u%d", i))))
		}
		require.NoError(t, s.MarkRevokePending(ctx, "u0", time.Now()))

		count, err := s.CountConnected(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("AuditLogBatchAndRetention", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)

		old := &models.AuditLog{
			ID:          uuid.New().String(),
			CreatedAt:   time.Now().Add(-48 * time.Hour),
			EventType:   models.EventLinkEstablished,
			Severity:    models.SeverityInfo,
			ActorUserID: "u1",
			Success:     true,
		}
		recent := &models.AuditLog{
			ID:          uuid.New().String(),
			CreatedAt:   time.Now(),
			EventType:   models.EventLinkDisconnected,
			Severity:    models.SeverityInfo,
			ActorUserID: "u1",
			Success:     true,
			Details:     models.AuditDetails{"chain": "Cosmos"},
		}
		require.NoError(t, s.CreateAuditLogBatch([]*models.AuditLog{old, recent}))

		logs, err := s.GetAuditLogsByUser("u1", 10)
		require.NoError(t, err)
		assert.Len(t, logs, 2)

		deleted, err := s.DeleteAuditLogsBefore(time.Now().Add(-24 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		logs, err = s.GetAuditLogsByUser("u1", 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EventLinkDisconnected, logs[0].EventType)
	})

	t.Run("Health", func(t *testing.T) {
		s := createFreshStore(t, driver, pgContainer)
		require.NoError(t, s.Health())
	})
}

func TestTokenRecordExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := models.TokenRecord{ExpiresAt: now}
	assert.True(t, record.Expired(now), "expiry equal to now counts as expired")

	record.ExpiresAt = now.Add(time.Nanosecond)
	assert.False(t, record.Expired(now))

	record.ExpiresAt = now.Add(-time.Nanosecond)
	assert.True(t, record.Expired(now))
}
