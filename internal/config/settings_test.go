package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewSettingsHolderUsesDefaultsWithoutFile(t *testing.T) {
	holder, err := NewSettingsHolder(Config{DataDir: t.TempDir(), SettingsPath: ""}, zaptest.NewLogger(t))
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, "USD", got.DefaultCurrency)
	assert.Equal(t, "en", got.DefaultLanguage)
	assert.Empty(t, holder.File())
	assert.Contains(t, got.WhatsAppTemplates["en"]["shipped"], "{trackingNumber}")
}

func TestNewSettingsHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	content := `settings:
  defaultCurrency: MAD
  defaultLanguage: fr
  orderNumberPrefix: "CMD-"
  shippingZones:
    - name: North
      cities: [Tangier, Tetouan]
      fee: "35.00"
      estimatedDays: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewSettingsHolder(Config{DataDir: dir, SettingsPath: path}, zaptest.NewLogger(t))
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, "MAD", got.DefaultCurrency)
	assert.Equal(t, "CMD-", got.OrderNumberPrefix)
	require.Len(t, got.ShippingZones, 1)
	assert.Equal(t, []string{"Tangier", "Tetouan"}, got.ShippingZones[0].Cities)
	assert.Equal(t, path, holder.File())
}

func TestNewSettingsHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  defaultCurrency: EURO\n"), 0o600))

	_, err := NewSettingsHolder(Config{DataDir: dir, SettingsPath: path}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSettingsHolderNotifiesListeners(t *testing.T) {
	holder := NewStaticSettingsHolder(DefaultSettings())
	var seen string
	holder.OnChange(func(s SettingsDefaults) { seen = s.DefaultCurrency })

	next := DefaultSettings()
	next.DefaultCurrency = "EUR"
	holder.Set(next)

	assert.Equal(t, "EUR", seen)
	assert.Equal(t, "EUR", holder.Get().DefaultCurrency)
}
