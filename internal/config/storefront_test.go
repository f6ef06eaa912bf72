package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreConfigHolderDefaults(t *testing.T) {
	var holder *StoreConfigHolder
	assert.Equal(t, 12, holder.Get().Catalog.DefaultSearchLimit)

	holder = NewStaticStoreConfigHolder(StoreConfig{
		Catalog:  CatalogConfig{DefaultSearchLimit: 30},
		Tracking: TrackingConfig{ShippedLocation: "hub", DeliveredLocation: "door"},
	})
	assert.Equal(t, 30, holder.Get().Catalog.DefaultSearchLimit)
	assert.Equal(t, "hub", holder.Get().Tracking.ShippedLocation)
}

func TestValidateStoreConfig(t *testing.T) {
	assert.NoError(t, validateStoreConfig(DefaultStoreConfig()))

	cfg := DefaultStoreConfig()
	cfg.Catalog.DefaultSearchLimit = 0
	assert.Error(t, validateStoreConfig(cfg))

	cfg = DefaultStoreConfig()
	cfg.Tracking.ShippedLocation = " "
	assert.Error(t, validateStoreConfig(cfg))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example.com/")
	t.Setenv("RATE_LIMIT_TOKEN_BURST", "9")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "https://cdn.example.com", cfg.MediaBaseURL)
	assert.Equal(t, 9, cfg.RateLimit.TokenBurst)
}
