package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/testutil"
)

func TestSubscriptionRepository_GetLatestByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	now := time.Now()
	older := &model.Subscription{
		UserID:    1,
		Status:    model.SubStatusExpired,
		CreatedAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, repo.Create(older))

	newer := &model.Subscription{
		UserID:    1,
		Status:    model.SubStatusActive,
		CreatedAt: now.Add(-1 * time.Hour),
	}
	require.NoError(t, repo.Create(newer))

	found, err := repo.GetLatestByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)
}

func TestSubscriptionRepository_GetLatestByUserID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	_, err := repo.GetLatestByUserID(999)
	assert.Error(t, err)
}

func TestSubscriptionRepository_GetByPaymentReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	ref := "sub_1_1234567890"
	testutil.TestSubscription(t, db, 1, testutil.WithReference(ref))

	found, err := repo.GetByPaymentReference(ref)
	require.NoError(t, err)
	require.NotNil(t, found.PaymentReference)
	assert.Equal(t, ref, *found.PaymentReference)
}

func TestSubscriptionRepository_MarkExpiredBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	now := time.Now()
	pastEnd := now.Add(-1 * time.Hour)
	futureEnd := now.Add(24 * time.Hour)
	pastTrialEnd := now.Add(-2 * time.Hour)

	// Paid subscription past its window
	require.NoError(t, repo.Create(&model.Subscription{
		UserID:          1,
		Status:          model.SubStatusActive,
		SubscriptionEnd: &pastEnd,
	}))
	// Paid subscription still running
	require.NoError(t, repo.Create(&model.Subscription{
		UserID:          2,
		Status:          model.SubStatusActive,
		SubscriptionEnd: &futureEnd,
	}))
	// Trial past its window
	require.NoError(t, repo.Create(&model.Subscription{
		UserID:   3,
		Status:   model.SubStatusTrial,
		IsTrial:  true,
		TrialEnd: &pastTrialEnd,
	}))
	// Already expired rows are left alone
	require.NoError(t, repo.Create(&model.Subscription{
		UserID:          4,
		Status:          model.SubStatusExpired,
		SubscriptionEnd: &pastEnd,
	}))

	affected, err := repo.MarkExpiredBefore(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	still, err := repo.GetLatestByUserID(2)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, still.Status)
}
