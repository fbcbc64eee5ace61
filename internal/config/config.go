package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"roomrenting/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Booking    BookingConfig    `yaml:"booking"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Server     ServerConfig     `yaml:"server"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// APIConfig describes how the client reaches the rental API.
type APIConfig struct {
	BaseURL         string          `yaml:"base_url"`
	TimeoutSeconds  int             `yaml:"timeout_seconds"`
	CacheTTLSeconds int             `yaml:"cache_ttl_seconds"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	Store    string `yaml:"store"` // file, redis, memory
	Path     string `yaml:"path"`
	TTLHours int    `yaml:"ttl_hours"`
	Profile  string `yaml:"profile"`
}

type BookingConfig struct {
	CompensateOnPaymentFailure bool `yaml:"compensate_on_payment_failure"`
	CompensationRetries        int  `yaml:"compensation_retries"`
	CompensationBackoffMs      int  `yaml:"compensation_backoff_ms"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

// ServerConfig configures the development stub of the rental API.
type ServerConfig struct {
	Port          int             `yaml:"port"`
	DatabasePath  string          `yaml:"database_path"`
	JWTSecret     string          `yaml:"jwt_secret"`
	TokenTTLHours int             `yaml:"token_ttl_hours"`
	SeedPath      string          `yaml:"seed_path"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Load reads the YAML file at configPath, expanding ${VAR} references from the
// environment and an optional .env file in the working directory.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base_url %q is not an absolute URL", c.API.BaseURL)
	}

	switch c.Session.Store {
	case SessionStoreFile, SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Address == "" {
			return errors.New("session.store=redis requires redis.address")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	if c.API.RateLimit.RPS < 0 || c.Server.RateLimit.RPS < 0 {
		return errors.New("rate_limit.rps must not be negative")
	}
	if c.Booking.CompensationRetries < 0 || c.Booking.CompensationBackoffMs < 0 {
		return errors.New("booking compensation retries and backoff must not be negative")
	}

	return nil
}

// ValidateServer checks the settings only the stub API needs.
func (c *Config) ValidateServer() error {
	if c.Server.DatabasePath == "" {
		return errors.New("server database_path is required")
	}
	if c.Server.JWTSecret == "" || c.Server.JWTSecret == "CHANGE_ME" {
		return errors.New("server jwt_secret is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "roomrenting"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = models.DefaultAPITimeout
	}
	if c.API.CacheTTLSeconds == 0 {
		c.API.CacheTTLSeconds = models.DefaultCacheTTL
	}
	if c.Session.Store == "" {
		c.Session.Store = SessionStoreFile
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = models.DefaultSessionTTLHours
	}
	if c.Session.Profile == "" {
		c.Session.Profile = "default"
	}
	if c.Session.Store == SessionStoreFile && c.Session.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Session.Path = dir + "/roomrenting/session.json"
		} else {
			c.Session.Path = ".roomrenting-session.json"
		}
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.TokenTTLHours == 0 {
		c.Server.TokenTTLHours = models.DefaultSessionTTLHours
	}
	if c.Booking.CompensationBackoffMs == 0 {
		c.Booking.CompensationBackoffMs = 200
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c APIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
