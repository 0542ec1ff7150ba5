package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the publishing orchestrator.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Generation   GenerationConfig   `yaml:"generation"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings for distributed locking. Redis is
// optional; without it the orchestrator falls back to PG advisory locks.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GenerationConfig holds content-generation collaborator settings.
type GenerationConfig struct {
	// Provider selects the backend: "anthropic" (direct API) or "bedrock"
	// (AWS, data stays in-account).
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ReviewEnabled  bool   `yaml:"review_enabled"`
}

// Timeout returns the per-call generation timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// OrchestratorConfig holds tick, lease, and retry tuning.
type OrchestratorConfig struct {
	TickSeconds             int  `yaml:"tick_seconds"`
	Workers                 int  `yaml:"workers"`
	LeaseTTLSeconds         int  `yaml:"lease_ttl_seconds"`
	MaxAttempts             int  `yaml:"max_attempts"`
	BackoffBaseSeconds      int  `yaml:"backoff_base_seconds"`
	BackoffMaxSeconds       int  `yaml:"backoff_max_seconds"`
	RecoveryIntervalSeconds int  `yaml:"recovery_interval_seconds"`
	// CompleteCancelsPending decides whether auto-completing a campaign
	// cancels its still-pending posts or leaves them schedulable.
	CompleteCancelsPending bool `yaml:"complete_cancels_pending"`
}

// Tick returns the orchestrator poll interval.
func (o OrchestratorConfig) Tick() time.Duration {
	return time.Duration(o.TickSeconds) * time.Second
}

// LeaseTTL returns the post lease duration.
func (o OrchestratorConfig) LeaseTTL() time.Duration {
	return time.Duration(o.LeaseTTLSeconds) * time.Second
}

// BackoffBase returns the first-retry backoff delay.
func (o OrchestratorConfig) BackoffBase() time.Duration {
	return time.Duration(o.BackoffBaseSeconds) * time.Second
}

// BackoffMax returns the backoff cap.
func (o OrchestratorConfig) BackoffMax() time.Duration {
	return time.Duration(o.BackoffMaxSeconds) * time.Second
}

// RecoveryInterval returns how often the lease recovery worker scans.
func (o OrchestratorConfig) RecoveryInterval() time.Duration {
	return time.Duration(o.RecoveryIntervalSeconds) * time.Second
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "anthropic"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "claude-sonnet-4-20250514"
	}
	if c.Generation.APIKeyEnv == "" {
		c.Generation.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if c.Generation.TimeoutSeconds == 0 {
		c.Generation.TimeoutSeconds = 60
	}
	if c.Orchestrator.TickSeconds == 0 {
		c.Orchestrator.TickSeconds = 30
	}
	if c.Orchestrator.Workers == 0 {
		c.Orchestrator.Workers = 4
	}
	if c.Orchestrator.LeaseTTLSeconds == 0 {
		c.Orchestrator.LeaseTTLSeconds = 120
	}
	if c.Orchestrator.MaxAttempts == 0 {
		c.Orchestrator.MaxAttempts = 3
	}
	if c.Orchestrator.BackoffBaseSeconds == 0 {
		c.Orchestrator.BackoffBaseSeconds = 60
	}
	if c.Orchestrator.BackoffMaxSeconds == 0 {
		c.Orchestrator.BackoffMaxSeconds = 900
	}
	if c.Orchestrator.RecoveryIntervalSeconds == 0 {
		c.Orchestrator.RecoveryIntervalSeconds = 120
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		// Missing config file is fine when everything comes from env
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if provider := os.Getenv("GENERATION_PROVIDER"); provider != "" {
		cfg.Generation.Provider = provider
	}
	if model := os.Getenv("GENERATION_MODEL"); model != "" {
		cfg.Generation.Model = model
	}

	return cfg, nil
}
