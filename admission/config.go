/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdffacil/pdfgate/config"
)

const cfgDefaultKeyPrefix = "admission"

const (
	cfgKeyLimits         = "limits"
	cfgKeyMaxPayloadSize = "maxPayloadSize"
	cfgKeyWindow         = "window"
	cfgKeySweepInterval  = "sweepInterval"
)

// Config represents a set of configuration parameters for the admission Controller.
// Configuration is read once at startup and is not reloadable.
type Config struct {
	// Limits is the maximum number of requests per window for every operation.
	// Operations from DefaultLimits are always present, configuration may only override their values
	// or add new operations. Zero limit means the operation is always rejected.
	Limits Limits `mapstructure:"limits" yaml:"limits" json:"limits"`

	// MaxPayloadSize is the upload size ceiling applied to every operation.
	MaxPayloadSize config.ByteSize `mapstructure:"maxPayloadSize" yaml:"maxPayloadSize" json:"maxPayloadSize"`

	// Window is the length of the rolling window.
	Window config.TimeDuration `mapstructure:"window" yaml:"window" json:"window"`

	// SweepInterval determines how often the usage of all clients is swept.
	// Zero disables periodic sweeping, expired usage is then purged only on the client's next request.
	SweepInterval config.TimeDuration `mapstructure:"sweepInterval" yaml:"sweepInterval" json:"sweepInterval"`

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
		keyPrefix:      cfgDefaultKeyPrefix,
		Limits:         DefaultLimits(),
		MaxPayloadSize: DefaultMaxPayloadSize,
		Window:         config.TimeDuration(DefaultWindow),
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyMaxPayloadSize, config.ByteSize(DefaultMaxPayloadSize).String())
	dp.SetDefault(cfgKeyWindow, DefaultWindow)
	dp.SetDefault(cfgKeySweepInterval, 0)
}

// Set sets configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	rawLimits, err := dp.GetStringMapInt(cfgKeyLimits)
	if err != nil {
		return err
	}
	c.Limits = DefaultLimits()
	for op, limit := range rawLimits {
		op = strings.ToLower(strings.TrimSpace(op))
		if op == "" {
			return dp.WrapKeyErr(cfgKeyLimits, fmt.Errorf("operation name cannot be empty"))
		}
		if limit < 0 {
			return dp.WrapKeyErr(cfgKeyLimits+"."+op, fmt.Errorf("should be >= 0"))
		}
		c.Limits[Operation(op)] = limit
	}

	if c.MaxPayloadSize, err = dp.GetByteSize(cfgKeyMaxPayloadSize); err != nil {
		return err
	}
	if c.MaxPayloadSize == 0 {
		return dp.WrapKeyErr(cfgKeyMaxPayloadSize, fmt.Errorf("should be > 0"))
	}

	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeyWindow); err != nil {
		return err
	}
	if dur <= 0 {
		return dp.WrapKeyErr(cfgKeyWindow, fmt.Errorf("should be > 0"))
	}
	c.Window = config.TimeDuration(dur)

	if dur, err = dp.GetDuration(cfgKeySweepInterval); err != nil {
		return err
	}
	if dur < 0 {
		return dp.WrapKeyErr(cfgKeySweepInterval, fmt.Errorf("should be >= 0"))
	}
	c.SweepInterval = config.TimeDuration(dur)

	return nil
}
