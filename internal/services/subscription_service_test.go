package services

import (
	"testing"
	"time"

	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		WalletAddress: "0x1111111111111111111111111111111111111111",
		PrivyUserID:   "did:privy:abc123",
		Plan:          models.PlanFree,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreatePaymentIntent(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	user := createTestUser(t, db)

	t.Run("standard plan", func(t *testing.T) {
		subscription, err := service.CreatePaymentIntent(user.ID, models.PlanStandard)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusPendingPayment, subscription.Status)
		assert.Equal(t, "10", subscription.PaymentAmount)
	})

	t.Run("premium plan", func(t *testing.T) {
		subscription, err := service.CreatePaymentIntent(user.ID, models.PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, "50", subscription.PaymentAmount)
	})

	t.Run("free plan cannot be purchased", func(t *testing.T) {
		_, err := service.CreatePaymentIntent(user.ID, models.PlanFree)
		assert.ErrorContains(t, err, "cannot be purchased")
	})
}

func TestActivate(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	users := NewUserService(db)
	user := createTestUser(t, db)

	pending, err := service.CreatePaymentIntent(user.ID, models.PlanStandard)
	require.NoError(t, err)

	activated, err := service.Activate(pending.ID, "0xpaymenthash")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, activated.Status)
	assert.Equal(t, "0xpaymenthash", activated.PaymentTxHash)
	require.NotNil(t, activated.StartDate)
	require.NotNil(t, activated.EndDate)
	assert.WithinDuration(t, activated.StartDate.Add(30*24*time.Hour), *activated.EndDate, time.Second)

	// The user's plan follows the activated subscription
	loaded, err := users.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStandard, loaded.Plan)
}

func TestActivateCancelsPreviousActive(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	user := createTestUser(t, db)

	first, err := service.CreatePaymentIntent(user.ID, models.PlanStandard)
	require.NoError(t, err)
	_, err = service.Activate(first.ID, "0xfirst")
	require.NoError(t, err)

	second, err := service.CreatePaymentIntent(user.ID, models.PlanPremium)
	require.NoError(t, err)
	_, err = service.Activate(second.ID, "0xsecond")
	require.NoError(t, err)

	// Only the premium upgrade stays active
	active, err := service.GetActiveSubscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	previous, err := service.GetSubscriptionByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, previous.Status)
}

func TestActivateRejectsNonPending(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	user := createTestUser(t, db)

	pending, err := service.CreatePaymentIntent(user.ID, models.PlanStandard)
	require.NoError(t, err)
	_, err = service.Activate(pending.ID, "0xpaymenthash")
	require.NoError(t, err)

	// Replaying the activation must not extend the period
	_, err = service.Activate(pending.ID, "0xpaymenthash")
	assert.ErrorIs(t, err, ErrSubscriptionNotPayable)
}

func TestGetActiveSubscriptionNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	user := createTestUser(t, db)

	_, err := service.GetActiveSubscription(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExpireOverdue(t *testing.T) {
	db := setupTestDB(t)
	service := NewSubscriptionService(db)
	user := createTestUser(t, db)

	overdue, err := service.CreatePaymentIntent(user.ID, models.PlanStandard)
	require.NoError(t, err)
	_, err = service.Activate(overdue.ID, "0xpaymenthash")
	require.NoError(t, err)

	// Backdate the end of the paid period
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Subscription{}).Where("id = ?", overdue.ID).Update("end_date", past).Error)

	count, err := service.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	loaded, err := service.GetSubscriptionByID(overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, loaded.Status)

	// Nothing left to expire on a second sweep
	count, err = service.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
