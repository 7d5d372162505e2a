package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
)

func TestEmergencyRepository_CreateIfNoneActive(t *testing.T) {
	repo := NewEmergencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	first, err := governance.NewEmergencyOverride("grid outage", "alice", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, first))
	assert.NotZero(t, first.ID())

	// A second activation must be rejected while the first is active.
	second, err := governance.NewEmergencyOverride("another incident", "bob", time.Hour)
	require.NoError(t, err)
	err = repo.CreateIfNoneActive(ctx, second)
	assert.ErrorIs(t, err, governance.ErrAlreadyActive)

	// Deactivating the first frees the slot.
	require.NoError(t, first.Deactivate("alice"))
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.CreateIfNoneActive(ctx, second))
}

func TestEmergencyRepository_ActivateAfterLapse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmergencyRepository(db, testLogger())
	ctx := context.Background()

	// A lapsed row still flagged active (the sweep has not run yet) must
	// not block a new activation.
	now := time.Now().UTC()
	stale := models.EmergencyOverrideModel{
		Reason:      "old incident",
		ActivatedBy: "alice",
		ActivatedAt: now.Add(-2 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
		Active:      true,
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	override, err := governance.NewEmergencyOverride("new incident", "bob", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, override))

	var retired models.EmergencyOverrideModel
	require.NoError(t, db.First(&retired, stale.ID).Error)
	assert.False(t, retired.Active)

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, override.ID(), active.ID())
}

func TestEmergencyRepository_FindActive(t *testing.T) {
	repo := NewEmergencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	_, err := repo.FindActive(ctx)
	assert.ErrorIs(t, err, governance.ErrNotFound)

	override, err := governance.NewEmergencyOverride("grid outage", "alice", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, override))

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, override.ID(), active.ID())
	assert.Equal(t, "grid outage", active.Reason())
	assert.True(t, active.Active())
}

func TestEmergencyRepository_History(t *testing.T) {
	repo := NewEmergencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	first, err := governance.NewEmergencyOverride("first incident", "alice", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, first))
	require.NoError(t, first.Deactivate("alice"))
	require.NoError(t, repo.Update(ctx, first))

	second, err := governance.NewEmergencyOverride("second incident", "bob", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, second))

	history, err := repo.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	history, err = repo.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestEmergencyRepository_ExpireLapsed(t *testing.T) {
	repo := NewEmergencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	override, err := governance.NewEmergencyOverride("grid outage", "alice", time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.CreateIfNoneActive(ctx, override))

	// Before expiry nothing is swept.
	n, err := repo.ExpireLapsed(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.ExpireLapsed(ctx, time.Now().UTC().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindActive(ctx)
	assert.ErrorIs(t, err, governance.ErrNotFound)
}
