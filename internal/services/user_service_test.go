package services

import (
	"testing"

	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	wallet := "0x1111111111111111111111111111111111111111"

	created, err := service.GetOrCreateUser(wallet, "did:privy:abc123")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, created.Plan)
	assert.Equal(t, wallet, created.WalletAddress)

	// Same wallet resolves to the same record
	again, err := service.GetOrCreateUser(wallet, "did:privy:abc123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// Lookup by provider user ID alone also matches
	byPrivyID, err := service.GetOrCreateUser("", "did:privy:abc123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPrivyID.ID)
}

func TestGetUserByWallet(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	_, err := service.GetUserByWallet("0x9999999999999999999999999999999999999999")
	assert.Error(t, err)

	created, err := service.GetOrCreateUser("0x1111111111111111111111111111111111111111", "did:privy:abc123")
	require.NoError(t, err)

	loaded, err := service.GetUserByWallet(created.WalletAddress)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
}

func TestUpdatePlan(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	user, err := service.GetOrCreateUser("0x1111111111111111111111111111111111111111", "did:privy:abc123")
	require.NoError(t, err)

	require.NoError(t, service.UpdatePlan(user.ID, models.PlanPremium))

	loaded, err := service.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, loaded.Plan)
}
