// Package config loads rank export settings from a config file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/apamidi800/rank-export/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g.
// RANKEXPORT_API_ACCESS_TOKEN for api.access_token.
const EnvPrefix = "RANKEXPORT"

// DateLayout is the format of api.start_date and api.end_date.
const DateLayout = "20060102"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config is the complete export configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig describes the endpoint and the fixed query parameters.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	AccessToken string        `mapstructure:"access_token"`
	StartDate   string        `mapstructure:"start_date"`
	EndDate     string        `mapstructure:"end_date"`
	Engine      string        `mapstructure:"engine"`
	Market      string        `mapstructure:"market"`
	Devices     []string      `mapstructure:"devices"`
	Limit       int           `mapstructure:"limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DefaultsConfig holds the values filled into records lacking them.
type DefaultsConfig struct {
	Device string `mapstructure:"device"`
	Engine string `mapstructure:"engine"`
}

// OutputConfig selects the CSV file and its columns.
type OutputConfig struct {
	Path                string `mapstructure:"path"`
	EngineDeviceColumns bool   `mapstructure:"engine_device_columns"`
}

// CacheConfig enables the Redis page cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// MetricsConfig enables the Pushgateway push when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LogConfig holds the zerolog level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// SetDefaults registers every key with its default.
// Keys must be known to viper for AutomaticEnv to reach them on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.access_token", "")
	v.SetDefault("api.start_date", "")
	v.SetDefault("api.end_date", "")
	v.SetDefault("api.engine", "")
	v.SetDefault("api.market", "")
	v.SetDefault("api.devices", []string{})
	v.SetDefault("api.limit", 100)
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("defaults.device", "m")
	v.SetDefault("defaults.engine", "google")

	v.SetDefault("output.path", "all_calls.csv")
	v.SetDefault("output.engine_device_columns", true)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", time.Hour)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "rank_export")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// NewViper returns a viper instance with defaults and environment lookup
// set up. configFile is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.Devices = splitList(cfg.API.Devices)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the export cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalid)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: api.base_url must be an absolute URL", ErrInvalid)
	}

	if c.API.Limit <= 0 {
		return fmt.Errorf("%w: api.limit must be positive, got %d", ErrInvalid, c.API.Limit)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalid)
	}

	start, err := parseDate("api.start_date", c.API.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("api.end_date", c.API.EndDate)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("%w: api.start_date %s is after api.end_date %s", ErrInvalid, c.API.StartDate, c.API.EndDate)
	}

	if c.Output.Path == "" {
		return fmt.Errorf("%w: output.path is required", ErrInvalid)
	}

	if c.Cache.RedisDB < 0 {
		return fmt.Errorf("%w: cache.redis_db must not be negative", ErrInvalid)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}

	return nil
}

func parseDate(key, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYYMMDD, got %q", ErrInvalid, key, value)
	}
	return t, nil
}

// splitList flattens comma separated entries, as given in one env var.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
