package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/domain/governance"
)

func createTestConsent(t *testing.T, repo governance.ConsentRepository, consentType string) *governance.ConsentRequest {
	t.Helper()
	req, err := governance.NewConsentRequest(consentType, "alice", "enable external access", 2, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestConsentRepository_CreateAndFind(t *testing.T) {
	repo := NewConsentRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	created := createTestConsent(t, repo, "data_export")
	assert.NotZero(t, created.ID())

	found, err := repo.FindByRequestID(ctx, created.RequestID())
	require.NoError(t, err)
	assert.Equal(t, "data_export", found.ConsentType())
	assert.Equal(t, governance.ConsentStatusPending, found.Status())
	assert.Equal(t, 2, found.RequiredApprovals())

	_, err = repo.FindByRequestID(ctx, "missing")
	assert.ErrorIs(t, err, governance.ErrNotFound)
}

func TestConsentRepository_UpdatePersistsApprovers(t *testing.T) {
	repo := NewConsentRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	created := createTestConsent(t, repo, "data_export")
	now := time.Now().UTC()
	require.NoError(t, created.Approve("bob", now))
	require.NoError(t, created.Approve("carol", now))
	require.NoError(t, repo.Update(ctx, created))

	found, err := repo.FindByRequestID(ctx, created.RequestID())
	require.NoError(t, err)
	assert.Equal(t, governance.ConsentStatusApproved, found.Status())
	assert.ElementsMatch(t, []string{"bob", "carol"}, found.Approvers())
	assert.NotNil(t, found.DecidedAt())
}

func TestConsentRepository_FindLatestDecided(t *testing.T) {
	repo := NewConsentRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	_, err := repo.FindLatestDecided(ctx, "data_export")
	assert.ErrorIs(t, err, governance.ErrNotFound)

	first := createTestConsent(t, repo, "data_export")
	now := time.Now().UTC()
	require.NoError(t, first.Reject("bob", "not justified", now))
	require.NoError(t, repo.Update(ctx, first))

	second := createTestConsent(t, repo, "data_export")
	later := now.Add(time.Second)
	require.NoError(t, second.Approve("bob", later))
	require.NoError(t, second.Approve("carol", later))
	require.NoError(t, repo.Update(ctx, second))

	// A pending request of the same type must not shadow the decision.
	createTestConsent(t, repo, "data_export")

	latest, err := repo.FindLatestDecided(ctx, "data_export")
	require.NoError(t, err)
	assert.Equal(t, second.RequestID(), latest.RequestID())
	assert.Equal(t, governance.ConsentStatusApproved, latest.Status())
}

func TestConsentRepository_ListAndCount(t *testing.T) {
	repo := NewConsentRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	createTestConsent(t, repo, "data_export")
	rejected := createTestConsent(t, repo, "remote_access")
	require.NoError(t, rejected.Reject("bob", "no", time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, rejected))

	t.Run("filter by type", func(t *testing.T) {
		got, err := repo.List(ctx, "data_export", nil, 10)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("filter by status", func(t *testing.T) {
		pending := governance.ConsentStatusPending
		got, err := repo.List(ctx, "", &pending, 10)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("counts by status", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[governance.ConsentStatusPending])
		assert.Equal(t, int64(1), counts[governance.ConsentStatusRejected])
	})
}

func TestConsentRepository_ExpirePending(t *testing.T) {
	repo := NewConsentRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	createTestConsent(t, repo, "data_export")

	n, err := repo.ExpirePending(ctx, time.Now().UTC().Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	expired := governance.ConsentStatusExpired
	got, err := repo.List(ctx, "", &expired, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
