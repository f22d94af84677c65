package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
)

func newSettings(t *testing.T) (SettingsService, repository.SettingsRepository) {
	t.Helper()
	db, _ := newTestEnv(t)
	repo := repository.NewSettingsRepository(db)
	return NewSettingsService(repo), repo
}

func TestSettingsDefaults(t *testing.T) {
	svc, _ := newSettings(t)
	ctx := context.Background()

	assert.Equal(t, "Order by Phone", svc.Get(ctx, SettingFormTitle, ""))
	assert.Equal(t, "yes", svc.Get(ctx, SettingEnableAnalytics, ""))
	assert.Equal(t, "hide", svc.Get(ctx, SettingOutOfStockBehavior, ""))
	// caller-supplied default wins over the built-in when nothing stored
	assert.Equal(t, "custom", svc.Get(ctx, SettingFormTitle, "custom"))
	assert.Equal(t, "", svc.Get(ctx, "unknown_key", ""))
}

func TestSettingsSetAndGet(t *testing.T) {
	svc, _ := newSettings(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, SettingFormTitle, "Call Us"))
	assert.Equal(t, "Call Us", svc.Get(ctx, SettingFormTitle, ""))
	// stored value also beats the caller-supplied default
	assert.Equal(t, "Call Us", svc.Get(ctx, SettingFormTitle, "other"))
}

func TestSettingsSetMultiple(t *testing.T) {
	svc, _ := newSettings(t)
	ctx := context.Background()

	require.NoError(t, svc.SetMultiple(ctx, map[string]string{
		SettingFormTitle:      "Call Us",
		SettingFormButtonText: "Ring Ring",
	}))
	assert.Equal(t, "Call Us", svc.Get(ctx, SettingFormTitle, ""))
	assert.Equal(t, "Ring Ring", svc.Get(ctx, SettingFormButtonText, ""))
	// untouched keys keep defaults
	assert.Equal(t, "yes", svc.Get(ctx, SettingEnableAnalytics, ""))
}

func TestSettingsLegacyKeyPrecedence(t *testing.T) {
	svc, repo := newSettings(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, SettingFormTitle, "From Document"))
	// legacy flat key written by an older deployment wins
	require.NoError(t, repo.Upsert(ctx, "phone_order_form_title", "From Legacy"))

	assert.Equal(t, "From Legacy", svc.Get(ctx, SettingFormTitle, ""))

	all := svc.GetAll(ctx)
	assert.Equal(t, "From Legacy", all[SettingFormTitle])
}

func TestSettingsGetAllMergesDefaults(t *testing.T) {
	svc, _ := newSettings(t)
	all := svc.GetAll(context.Background())
	assert.Len(t, all, len(settingsDefaults))
	assert.Equal(t, "Order Now", all[SettingFormButtonText])
}

func TestSettingsSurvivesReload(t *testing.T) {
	db, _ := newTestEnv(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	first := NewSettingsService(repo)
	require.NoError(t, first.Set(ctx, SettingFormTitle, "Persisted"))

	// a fresh service instance over the same store sees the write
	second := NewSettingsService(repo)
	assert.Equal(t, "Persisted", second.Get(ctx, SettingFormTitle, ""))
}
