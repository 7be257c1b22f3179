package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	vo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

func TestSubscriptionRepository(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	sub, err := subscription.NewSubscription(5, vo.PlanTierPro, now, now.AddDate(0, 1, 0), true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))
	assert.NotZero(t, sub.ID())

	active, err := repo.GetActiveByOwnerID(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, sub.Activate())
	require.NoError(t, repo.Update(ctx, sub))

	active, err = repo.GetActiveByOwnerID(ctx, 5)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, sub.SID(), active[0].SID())
	assert.Equal(t, vo.PlanTierPro, active[0].PlanTier())

	bySID, err := repo.GetBySID(ctx, sub.SID())
	require.NoError(t, err)
	assert.Equal(t, sub.ID(), bySID.ID())

	missing, err := repo.GetByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
