package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Playback PlaybackConfig
	Sweep    SweepConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"rewards_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`

	// ConnectRetries bounds startup connection attempts before giving up.
	ConnectRetries int `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// RedisConfig holds Redis configuration for the settlement idempotency store.
type RedisConfig struct {
	Addr           string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password       string `envconfig:"REDIS_PASSWORD" default:""`
	DB             int    `envconfig:"REDIS_DB" default:"0"`
	IdempotencyTTL int    `envconfig:"IDEMPOTENCY_TTL" default:"86400"` // seconds
}

// PlaybackConfig holds ad playback tracking configuration.
type PlaybackConfig struct {
	TickIntervalMs     int `envconfig:"PLAYBACK_TICK_INTERVAL_MS" default:"100"`
	FallbackDurationMs int `envconfig:"PLAYBACK_FALLBACK_DURATION_MS" default:"30000"`
	SessionTTL         int `envconfig:"PLAYBACK_SESSION_TTL" default:"900"` // seconds
	ProbeTimeout       int `envconfig:"PLAYBACK_PROBE_TIMEOUT" default:"5"` // seconds
}

// TickInterval returns the progress tick period.
func (c PlaybackConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// FallbackDuration returns the ad duration assumed when resolution fails.
func (c PlaybackConfig) FallbackDuration() time.Duration {
	return time.Duration(c.FallbackDurationMs) * time.Millisecond
}

// SessionIdleTTL returns how long an abandoned playback session survives
// before the janitor drops it.
func (c PlaybackConfig) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// SweepConfig holds background sweep configuration.
type SweepConfig struct {
	Interval int `envconfig:"SWEEP_INTERVAL" default:"60"` // seconds
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
