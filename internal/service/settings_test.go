package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/models"
)

func TestModelSettingsDefaults(t *testing.T) {
	settings := DefaultModelSettings()

	require.Len(t, settings.Assignment, len(models.AllRoles()))
	assert.Equal(t, config.ProModel, settings.Assignment[models.RoleFundManager])
	assert.Equal(t, config.ProModel, settings.Assignment[models.RoleRiskManager])
	assert.Equal(t, config.ProModel, settings.Assignment[models.RoleTrader])
	assert.Equal(t, config.FlashModel, settings.Assignment[models.RoleIntelligenceOfficer])
	assert.Equal(t, config.FlashModel, settings.Assignment[models.RoleSentimentAnalyst])
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	// No file yet: pure defaults.
	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, config.FlashModel, settings.Assignment[models.RoleBullResearcher])

	settings.Assignment[models.RoleBullResearcher] = config.ProModel
	require.NoError(t, store.Save(settings))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ProModel, reloaded.Assignment[models.RoleBullResearcher])
	// Untouched roles keep their defaults.
	assert.Equal(t, config.FlashModel, reloaded.Assignment[models.RoleBearResearcher])
}

func TestSettingsStoreFillsMissingRoles(t *testing.T) {
	dir := t.TempDir()
	store := NewSettingsStore(dir)

	// A sparse file only pins one role.
	sparse := ModelSettings{Assignment: map[models.Role]string{
		models.RoleTechnicalAnalyst: config.ProModel,
	}}
	require.NoError(t, store.Save(sparse))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Assignment, len(models.AllRoles()))
	assert.Equal(t, config.ProModel, loaded.Assignment[models.RoleTechnicalAnalyst])
	assert.Equal(t, config.ProModel, loaded.Assignment[models.RoleFundManager])
}
