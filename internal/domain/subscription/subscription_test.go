package subscription

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
)

// --- helpers ---

func newValidSubscription(t *testing.T) *Subscription {
	t.Helper()
	start := time.Now().UTC()
	sub, err := NewSubscription(10, vo.PlanTierPro, start, start.AddDate(0, 1, 0), true)
	require.NoError(t, err)
	return sub
}

func reconstructWithStatus(t *testing.T, status vo.SubscriptionStatus) *Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:          1,
		SID:         "sub_test123",
		OwnerID:     10,
		PlanTier:    vo.PlanTierBasic,
		Status:      status,
		StartDate:   now,
		RenewalDate: now.AddDate(0, 1, 0),
		Version:     3,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	return sub
}

// --- tests ---

func TestNewSubscription(t *testing.T) {
	sub := newValidSubscription(t)

	assert.Equal(t, vo.StatusInactive, sub.Status())
	assert.Equal(t, vo.PlanTierPro, sub.PlanTier())
	assert.True(t, strings.HasPrefix(sub.SID(), "sub_"))
	assert.Equal(t, 1, sub.Version())
}

func TestNewSubscription_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewSubscription(0, vo.PlanTierBasic, now, now.Add(time.Hour), false)
	assert.Error(t, err)

	_, err = NewSubscription(1, vo.PlanTier("gold"), now, now.Add(time.Hour), false)
	assert.Error(t, err)

	_, err = NewSubscription(1, vo.PlanTierBasic, now, now.Add(-time.Hour), false)
	assert.Error(t, err)
}

func TestActivate_Idempotent(t *testing.T) {
	sub := newValidSubscription(t)

	require.NoError(t, sub.Activate())
	v := sub.Version()
	require.NoError(t, sub.Activate())

	assert.True(t, sub.IsActive())
	assert.Equal(t, v, sub.Version())
}

func TestActivate_FromFailedClearsReason(t *testing.T) {
	sub := reconstructWithStatus(t, vo.StatusFailed)

	require.NoError(t, sub.Activate())
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Empty(t, sub.FailureReason())
	assert.Equal(t, 4, sub.Version())
}

func TestActivate_FromCancelledRejected(t *testing.T) {
	sub := reconstructWithStatus(t, vo.StatusCancelled)

	err := sub.Activate()
	assert.True(t, errors.Is(err, ErrInvalidStatusTransition))
}

func TestMarkFailed(t *testing.T) {
	sub := newValidSubscription(t)
	require.NoError(t, sub.Activate())

	require.NoError(t, sub.MarkFailed("create_service: quota exceeded"))
	assert.Equal(t, vo.StatusFailed, sub.Status())
	assert.Equal(t, "create_service: quota exceeded", sub.FailureReason())

	// repeated failure keeps the first reason
	require.NoError(t, sub.MarkFailed("other"))
	assert.Equal(t, "create_service: quota exceeded", sub.FailureReason())
}

func TestCancel(t *testing.T) {
	sub := reconstructWithStatus(t, vo.StatusActive)

	require.NoError(t, sub.Cancel())
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	assert.False(t, sub.AutoRenew())
}

func TestReconstructSubscription_Invalid(t *testing.T) {
	_, err := ReconstructSubscription(SubscriptionReconstructParams{ID: 0, OwnerID: 1, Status: vo.StatusActive, PlanTier: vo.PlanTierBasic})
	assert.Error(t, err)

	_, err = ReconstructSubscription(SubscriptionReconstructParams{ID: 1, OwnerID: 1, Status: "zombie", PlanTier: vo.PlanTierBasic})
	assert.Error(t, err)
}

func TestSetID(t *testing.T) {
	sub := newValidSubscription(t)
	require.NoError(t, sub.SetID(7))
	assert.Equal(t, uint(7), sub.ID())
	assert.Error(t, sub.SetID(8))
}
