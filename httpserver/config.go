/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"time"

	"github.com/pdffacil/pdfgate/config"
	"github.com/pdffacil/pdfgate/internal/ratelimit"
)

const cfgDefaultKeyPrefix = "server"

const (
	cfgKeyServerAddress                 = "address"
	cfgKeyServerTimeoutsWrite           = "timeouts.write"
	cfgKeyServerTimeoutsRead            = "timeouts.read"
	cfgKeyServerTimeoutsReadHeader      = "timeouts.readHeader"
	cfgKeyServerTimeoutsIdle            = "timeouts.idle"
	cfgKeyServerTimeoutsShutdown        = "timeouts.shutdown"
	cfgKeyServerLimitsMaxBodySize       = "limits.maxBodySize"
	cfgKeyServerLogRequestStart         = "log.requestStart"
	cfgKeyServerLogRequestHeaders       = "log.requestHeaders"
	cfgKeyServerLogExcludedEndpoints    = "log.excludedEndpoints"
	cfgKeyServerLogAddRequestInfo       = "log.addRequestInfo"
	cfgKeyServerLogSlowRequestThreshold = "log.slowRequestThreshold"
	cfgKeyServerCORSAllowedOrigins      = "cors.allowedOrigins"
	cfgKeyServerCORSAllowCredentials    = "cors.allowCredentials"
	cfgKeyServerRateLimitEnabled        = "rateLimit.enabled"
	cfgKeyServerRateLimitAlg            = "rateLimit.alg"
	cfgKeyServerRateLimitRate           = "rateLimit.rate"
	cfgKeyServerRateLimitBurst          = "rateLimit.burst"
	cfgKeyServerRateLimitMaxKeys        = "rateLimit.maxKeys"
	cfgKeyServerRateLimitDryRun         = "rateLimit.dryRun"
)

const (
	defaultServerAddress            = ":8000"
	defaultServerTimeoutsWrite      = time.Minute * 2
	defaultServerTimeoutsRead       = time.Second * 30
	defaultServerTimeoutsReadHeader = time.Second * 10
	defaultServerTimeoutsIdle       = time.Minute
	defaultServerTimeoutsShutdown   = time.Second * 5
	defaultSlowRequestThreshold     = time.Second * 5

	// Uploads are limited by the admission controller, the body limit only cuts off bodies
	// that are much larger than any acceptable upload.
	defaultServerLimitsMaxBodySize = 16 * 1024 * 1024

	defaultRateLimitRate    = 10
	defaultRateLimitBurst   = 20
	defaultRateLimitMaxKeys = 10000
)

// DefaultCORSAllowedOrigins are the origins of the public web frontend.
var DefaultCORSAllowedOrigins = []string{"https://pdffacil.com", "http://pdffacil.com"}

// Config represents a set of configuration parameters for HTTPServer.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	Address   string          `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Limits    LimitsConfig    `mapstructure:"limits" yaml:"limits" json:"limits"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors" json:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{
		keyPrefix: opts.keyPrefix,
		Address:   defaultServerAddress,
		Timeouts: TimeoutsConfig{
			Write:      config.TimeDuration(defaultServerTimeoutsWrite),
			Read:       config.TimeDuration(defaultServerTimeoutsRead),
			ReadHeader: config.TimeDuration(defaultServerTimeoutsReadHeader),
			Idle:       config.TimeDuration(defaultServerTimeoutsIdle),
			Shutdown:   config.TimeDuration(defaultServerTimeoutsShutdown),
		},
		Limits: LimitsConfig{
			MaxBodySize: defaultServerLimitsMaxBodySize,
		},
		Log: LogConfig{
			SlowRequestThreshold: config.TimeDuration(defaultSlowRequestThreshold),
		},
		CORS: CORSConfig{
			AllowedOrigins:   append([]string(nil), DefaultCORSAllowedOrigins...),
			AllowCredentials: true,
		},
		RateLimit: RateLimitConfig{
			Alg:     ratelimit.AlgLeakyBucket.String(),
			Rate:    defaultRateLimitRate,
			Burst:   defaultRateLimitBurst,
			MaxKeys: defaultRateLimitMaxKeys,
		},
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

// SetProviderDefaults sets default configuration values for HTTPServer in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyServerAddress, defaultServerAddress)

	dp.SetDefault(cfgKeyServerTimeoutsWrite, defaultServerTimeoutsWrite)
	dp.SetDefault(cfgKeyServerTimeoutsRead, defaultServerTimeoutsRead)
	dp.SetDefault(cfgKeyServerTimeoutsReadHeader, defaultServerTimeoutsReadHeader)
	dp.SetDefault(cfgKeyServerTimeoutsIdle, defaultServerTimeoutsIdle)
	dp.SetDefault(cfgKeyServerTimeoutsShutdown, defaultServerTimeoutsShutdown)

	dp.SetDefault(cfgKeyServerLimitsMaxBodySize, config.ByteSize(defaultServerLimitsMaxBodySize).String())

	dp.SetDefault(cfgKeyServerLogRequestStart, false)
	dp.SetDefault(cfgKeyServerLogAddRequestInfo, false)
	dp.SetDefault(cfgKeyServerLogSlowRequestThreshold, defaultSlowRequestThreshold)

	dp.SetDefault(cfgKeyServerCORSAllowedOrigins, DefaultCORSAllowedOrigins)
	dp.SetDefault(cfgKeyServerCORSAllowCredentials, true)

	dp.SetDefault(cfgKeyServerRateLimitEnabled, false)
	dp.SetDefault(cfgKeyServerRateLimitAlg, ratelimit.AlgLeakyBucket.String())
	dp.SetDefault(cfgKeyServerRateLimitRate, defaultRateLimitRate)
	dp.SetDefault(cfgKeyServerRateLimitBurst, defaultRateLimitBurst)
	dp.SetDefault(cfgKeyServerRateLimitMaxKeys, defaultRateLimitMaxKeys)
	dp.SetDefault(cfgKeyServerRateLimitDryRun, false)
}

// TimeoutsConfig represents a set of configuration parameters for HTTPServer relating to timeouts.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// Set sets timeout server configuration values from config.DataProvider.
func (t *TimeoutsConfig) Set(dp config.DataProvider) error {
	for _, item := range []struct {
		key string
		dst *config.TimeDuration
	}{
		{cfgKeyServerTimeoutsWrite, &t.Write},
		{cfgKeyServerTimeoutsRead, &t.Read},
		{cfgKeyServerTimeoutsReadHeader, &t.ReadHeader},
		{cfgKeyServerTimeoutsIdle, &t.Idle},
		{cfgKeyServerTimeoutsShutdown, &t.Shutdown},
	} {
		dur, err := dp.GetDuration(item.key)
		if err != nil {
			return err
		}
		if dur < 0 {
			return dp.WrapKeyErr(item.key, fmt.Errorf("should be >= 0"))
		}
		*item.dst = config.TimeDuration(dur)
	}
	return nil
}

// LimitsConfig represents a set of configuration parameters for HTTPServer relating to limits.
type LimitsConfig struct {
	// MaxBodySize is the maximum size of the request body. Zero means no limit.
	MaxBodySize config.ByteSize `mapstructure:"maxBodySize" yaml:"maxBodySize" json:"maxBodySize"`
}

// Set sets limit server configuration values from config.DataProvider.
func (l *LimitsConfig) Set(dp config.DataProvider) error {
	var err error
	if l.MaxBodySize, err = dp.GetByteSize(cfgKeyServerLimitsMaxBodySize); err != nil {
		return err
	}
	return nil
}

// LogConfig represents a set of configuration parameters for HTTPServer relating to logging.
type LogConfig struct {
	RequestStart           bool                `mapstructure:"requestStart" yaml:"requestStart" json:"requestStart"`
	RequestHeaders         []string            `mapstructure:"requestHeaders" yaml:"requestHeaders" json:"requestHeaders"`
	ExcludedEndpoints      []string            `mapstructure:"excludedEndpoints" yaml:"excludedEndpoints" json:"excludedEndpoints"`
	AddRequestInfoToLogger bool                `mapstructure:"addRequestInfo" yaml:"addRequestInfo" json:"addRequestInfo"`
	SlowRequestThreshold   config.TimeDuration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// Set sets log server configuration values from config.DataProvider.
func (l *LogConfig) Set(dp config.DataProvider) error {
	var err error

	if l.RequestStart, err = dp.GetBool(cfgKeyServerLogRequestStart); err != nil {
		return err
	}
	if l.RequestHeaders, err = dp.GetStringSlice(cfgKeyServerLogRequestHeaders); err != nil {
		return err
	}
	if l.ExcludedEndpoints, err = dp.GetStringSlice(cfgKeyServerLogExcludedEndpoints); err != nil {
		return err
	}
	if l.AddRequestInfoToLogger, err = dp.GetBool(cfgKeyServerLogAddRequestInfo); err != nil {
		return err
	}

	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeyServerLogSlowRequestThreshold); err != nil {
		return err
	}
	l.SlowRequestThreshold = config.TimeDuration(dur)

	return nil
}

// CORSConfig represents the cross-origin policy for browser clients.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins" json:"allowedOrigins"`
	AllowCredentials bool     `mapstructure:"allowCredentials" yaml:"allowCredentials" json:"allowCredentials"`
}

// Set sets CORS configuration values from config.DataProvider.
func (c *CORSConfig) Set(dp config.DataProvider) error {
	var err error
	if c.AllowedOrigins, err = dp.GetStringSlice(cfgKeyServerCORSAllowedOrigins); err != nil {
		return err
	}
	if c.AllowCredentials, err = dp.GetBool(cfgKeyServerCORSAllowCredentials); err != nil {
		return err
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" && c.AllowCredentials {
			return dp.WrapKeyErr(cfgKeyServerCORSAllowedOrigins,
				fmt.Errorf("wildcard origin cannot be used together with credentials"))
		}
	}
	return nil
}

// RateLimitConfig represents a per-client burst rate limit that is applied before the daily quota.
type RateLimitConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Alg     string `mapstructure:"alg" yaml:"alg" json:"alg"`
	// Rate is the number of requests per second.
	Rate    int  `mapstructure:"rate" yaml:"rate" json:"rate"`
	Burst   int  `mapstructure:"burst" yaml:"burst" json:"burst"`
	MaxKeys int  `mapstructure:"maxKeys" yaml:"maxKeys" json:"maxKeys"`
	DryRun  bool `mapstructure:"dryRun" yaml:"dryRun" json:"dryRun"`
}

// Set sets rate limit configuration values from config.DataProvider.
func (r *RateLimitConfig) Set(dp config.DataProvider) error {
	var err error

	if r.Enabled, err = dp.GetBool(cfgKeyServerRateLimitEnabled); err != nil {
		return err
	}
	if r.Alg, err = dp.GetStringFromSet(cfgKeyServerRateLimitAlg,
		[]string{ratelimit.AlgLeakyBucket.String(), ratelimit.AlgSlidingWindow.String()}, true); err != nil {
		return err
	}

	for _, item := range []struct {
		key string
		dst *int
		min int
	}{
		{cfgKeyServerRateLimitRate, &r.Rate, 1},
		{cfgKeyServerRateLimitBurst, &r.Burst, 0},
		{cfgKeyServerRateLimitMaxKeys, &r.MaxKeys, 0},
	} {
		if *item.dst, err = dp.GetInt(item.key); err != nil {
			return err
		}
		if *item.dst < item.min {
			return dp.WrapKeyErr(item.key, fmt.Errorf("should be >= %d", item.min))
		}
	}

	if r.DryRun, err = dp.GetBool(cfgKeyServerRateLimitDryRun); err != nil {
		return err
	}
	return nil
}

// Set sets HTTPServer configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Address, err = dp.GetString(cfgKeyServerAddress); err != nil {
		return err
	}
	if c.Address == "" {
		return dp.WrapKeyErr(cfgKeyServerAddress, fmt.Errorf("cannot be empty"))
	}

	if err = c.Timeouts.Set(dp); err != nil {
		return err
	}
	if err = c.Limits.Set(dp); err != nil {
		return err
	}
	if err = c.Log.Set(dp); err != nil {
		return err
	}
	if err = c.CORS.Set(dp); err != nil {
		return err
	}
	return c.RateLimit.Set(dp)
}
