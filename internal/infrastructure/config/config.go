package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the irrigation services.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Cache     CacheConfig     `yaml:"cache"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// CloudConfig describes the remote irrigation service.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`

	// Token is sent verbatim as a bearer token. It is never refreshed.
	Token string `yaml:"token"`

	// RequestTimeout is the per-request timeout in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	DeviceID string `yaml:"device_id"`
}

// Cache policies.
const (
	CachePolicyAlways = "always"
	CachePolicyTTL    = "ttl"
)

// CacheConfig selects how refreshable resources reuse their last snapshot.
type CacheConfig struct {
	Policy string `yaml:"policy"`

	// TTL in seconds; only read when Policy is "ttl".
	TTL int `yaml:"ttl"`
}

// BridgeConfig contains the MQTT/InfluxDB irrigation bridge settings.
type BridgeConfig struct {
	Enabled       bool    `yaml:"enabled"`
	PollSchedule  string  `yaml:"poll_schedule"`
	TopicPrefix   string  `yaml:"topic_prefix"`
	RainThreshold float64 `yaml:"rain_threshold"`
	Units         string  `yaml:"units"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SimulatorConfig contains settings for the local cloud simulator.
type SimulatorConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Seed creates a demo device on an empty database.
	Seed     bool   `yaml:"seed"`
	DeviceID string `yaml:"device_id"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. A .env file next to the YAML file, if present (never overrides the real environment)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: IRRIGATION_SECTION_KEY
// For example: IRRIGATION_CLOUD_TOKEN, IRRIGATION_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates unset environment variables from an optional .env file.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Garden",
			Timezone: "UTC",
		},
		Cloud: CloudConfig{
			BaseURL:        "http://localhost:8090/",
			RequestTimeout: 10,
		},
		Cache: CacheConfig{
			Policy: CachePolicyAlways,
		},
		Bridge: BridgeConfig{
			PollSchedule:  "@every 30s",
			TopicPrefix:   "irrigation",
			RainThreshold: 0.25,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "irrigationd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Simulator: SimulatorConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Seed: true,
		},
		Database: DatabaseConfig{
			Path:        "./data/irrigationsim.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IRRIGATION_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud
	if v := os.Getenv("IRRIGATION_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("IRRIGATION_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}
	if v := os.Getenv("IRRIGATION_CLOUD_DEVICE_ID"); v != "" {
		cfg.Cloud.DeviceID = v
	}

	// Cache
	if v := os.Getenv("IRRIGATION_CACHE_POLICY"); v != "" {
		cfg.Cache.Policy = v
	}
	if v := os.Getenv("IRRIGATION_CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTL = n
		}
	}

	// MQTT
	if v := os.Getenv("IRRIGATION_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("IRRIGATION_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("IRRIGATION_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("IRRIGATION_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("IRRIGATION_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("IRRIGATION_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("IRRIGATION_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Site.Timezone != "" {
		if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("site.timezone %q is not a known location", c.Site.Timezone))
		}
	}

	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}
	if c.Cloud.RequestTimeout <= 0 {
		errs = append(errs, "cloud.request_timeout must be positive")
	}

	switch c.Cache.Policy {
	case CachePolicyAlways:
	case CachePolicyTTL:
		if c.Cache.TTL <= 0 {
			errs = append(errs, "cache.ttl must be positive when cache.policy is ttl")
		}
	default:
		errs = append(errs, "cache.policy must be always or ttl")
	}

	if c.Bridge.Enabled {
		if c.Cloud.DeviceID == "" {
			errs = append(errs, "cloud.device_id is required when the bridge is enabled (set IRRIGATION_CLOUD_DEVICE_ID)")
		}
		if _, err := cron.ParseStandard(c.Bridge.PollSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("bridge.poll_schedule is invalid: %v", err))
		}
		if strings.Trim(c.Bridge.TopicPrefix, "/") == "" {
			errs = append(errs, "bridge.topic_prefix is required")
		}
		if c.Bridge.RainThreshold < 0 || c.Bridge.RainThreshold > 1 {
			errs = append(errs, "bridge.rain_threshold must be between 0 and 1")
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Simulator.Port < 1 || c.Simulator.Port > 65535 {
		errs = append(errs, "simulator.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the cloud request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Cloud.RequestTimeout) * time.Second
}

// GetCacheTTL returns the cache TTL as a Duration.
func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// GetLocation returns the site time zone, falling back to UTC.
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil || c.Site.Timezone == "" {
		return time.UTC
	}
	return loc
}
