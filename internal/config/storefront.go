package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StoreConfig holds catalog and tracking tunables that can change without a restart.
type StoreConfig struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Tracking TrackingConfig `mapstructure:"tracking"`
}

type CatalogConfig struct {
	DefaultSearchLimit int `mapstructure:"defaultSearchLimit"`
}

type TrackingConfig struct {
	ShippedLocation   string `mapstructure:"shippedLocation"`
	DeliveredLocation string `mapstructure:"deliveredLocation"`
	MissingLocation   string `mapstructure:"missingLocation"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Catalog: CatalogConfig{
			DefaultSearchLimit: 12,
		},
		Tracking: TrackingConfig{
			ShippedLocation:   "distribution center",
			DeliveredLocation: "customer address",
			MissingLocation:   "not informed",
		},
	}
}

type StoreConfigHolder struct {
	current atomic.Value // holds StoreConfig
}

// NewStaticStoreConfigHolder returns a holder that never reloads.
func NewStaticStoreConfigHolder(cfg StoreConfig) *StoreConfigHolder {
	holder := &StoreConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewStoreConfigHolder(log *zap.Logger) (*StoreConfigHolder, error) {
	log = log.Named("config.storefront")
	v := viper.New()

	v.SetConfigName("storefront")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreConfig()
	v.SetDefault("store.catalog.defaultSearchLimit", defaults.Catalog.DefaultSearchLimit)
	v.SetDefault("store.tracking.shippedLocation", defaults.Tracking.ShippedLocation)
	v.SetDefault("store.tracking.deliveredLocation", defaults.Tracking.DeliveredLocation)
	v.SetDefault("store.tracking.missingLocation", defaults.Tracking.MissingLocation)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg StoreConfig
	if err := v.UnmarshalKey("store", &cfg); err != nil {
		return nil, err
	}
	if err := validateStoreConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticStoreConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StoreConfig
		if err := v.UnmarshalKey("store", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateStoreConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *StoreConfigHolder) Get() StoreConfig {
	if h == nil {
		return DefaultStoreConfig()
	}
	cfg, ok := h.current.Load().(StoreConfig)
	if !ok {
		return DefaultStoreConfig()
	}
	return cfg
}

func validateStoreConfig(cfg StoreConfig) error {
	if cfg.Catalog.DefaultSearchLimit <= 0 {
		return errors.New("store.catalog.defaultSearchLimit must be positive")
	}
	if strings.TrimSpace(cfg.Tracking.ShippedLocation) == "" {
		return errors.New("store.tracking.shippedLocation cannot be empty")
	}
	if strings.TrimSpace(cfg.Tracking.DeliveredLocation) == "" {
		return errors.New("store.tracking.deliveredLocation cannot be empty")
	}
	return nil
}
