/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package pdfapi

import (
	"fmt"
	"time"

	"github.com/pdffacil/pdfgate/config"
)

const cfgDefaultKeyPrefix = "api"

const (
	cfgKeyConversionTimeout = "conversionTimeout"
	cfgKeyCache             = "cache"
	cfgKeyCacheMaxEntries   = "cache.maxEntries"
	cfgKeyCacheTTL          = "cache.ttl"
)

// Default values of the API configuration.
const (
	DefaultConversionTimeout = time.Minute
	DefaultCacheMaxEntries   = 64
	DefaultCacheTTL          = 10 * time.Minute
)

// CacheConfig represents parameters of the conversion result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached conversion results. Zero disables caching.
	MaxEntries int                 `mapstructure:"maxEntries" yaml:"maxEntries" json:"maxEntries"`
	TTL        config.TimeDuration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

// Config represents a set of configuration parameters for the conversion API.
type Config struct {
	// ConversionTimeout limits the time spent on a single conversion.
	ConversionTimeout config.TimeDuration `mapstructure:"conversionTimeout" yaml:"conversionTimeout" json:"conversionTimeout"`
	Cache             CacheConfig         `mapstructure:"cache" yaml:"cache" json:"cache"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:         cfgDefaultKeyPrefix,
		ConversionTimeout: config.TimeDuration(DefaultConversionTimeout),
		Cache: CacheConfig{
			MaxEntries: DefaultCacheMaxEntries,
			TTL:        config.TimeDuration(DefaultCacheTTL),
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyConversionTimeout, DefaultConversionTimeout)
	dp.SetDefault(cfgKeyCacheMaxEntries, DefaultCacheMaxEntries)
	dp.SetDefault(cfgKeyCacheTTL, DefaultCacheTTL)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	timeout, err := dp.GetDuration(cfgKeyConversionTimeout)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return dp.WrapKeyErr(cfgKeyConversionTimeout, fmt.Errorf("should be > 0"))
	}
	c.ConversionTimeout = config.TimeDuration(timeout)

	c.Cache = CacheConfig{MaxEntries: DefaultCacheMaxEntries, TTL: config.TimeDuration(DefaultCacheTTL)}
	if err = dp.UnmarshalKey(cfgKeyCache, &c.Cache, config.WithTextUnmarshalerHook()); err != nil {
		return err
	}
	if c.Cache.MaxEntries < 0 {
		return dp.WrapKeyErr(cfgKeyCacheMaxEntries, fmt.Errorf("should be >= 0"))
	}
	if c.Cache.TTL < 0 {
		return dp.WrapKeyErr(cfgKeyCacheTTL, fmt.Errorf("should be >= 0"))
	}
	return nil
}
