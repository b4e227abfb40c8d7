// Package config loads process configuration: built-in defaults, then an
// optional YAML file named by TOLLGATE_CONFIG, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	strutil "tollgate/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server    Server          `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Programs  ProgramsConfig  `yaml:"programs"`
	Auth      AuthConfig      `yaml:"auth"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string `yaml:"addr"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

// LedgerConfig selects the ledger backend.
type LedgerConfig struct {
	// Backend is "memory" or "postgres".
	Backend   string        `yaml:"backend"`
	DSN       string        `yaml:"dsn"`
	Schema    string        `yaml:"schema"`
	TxTimeout time.Duration `yaml:"tx_timeout"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the outbox relay. Relay is disabled when Brokers
// is empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	BatchSize     int           `yaml:"batch_size"`
}

// ProgramsConfig holds the base58 program ids records are derived under.
type ProgramsConfig struct {
	Governance string `yaml:"governance"`
	Token      string `yaml:"token"`
}

type AuthConfig struct {
	Audience    string        `yaml:"audience"`
	MaxTokenTTL time.Duration `yaml:"max_token_ttl"`
	// AdminTokenHash is a bcrypt hash of the admin token.
	AdminTokenHash string `yaml:"admin_token_hash"`
}

type MetadataConfig struct {
	// URL of the metadata registry. Empty uses the in-process registry.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig bounds requests per caller on the signed API. Reads and
// writes are counted in separate windows.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"`
	ReadsPerWindow  int           `yaml:"reads_per_window"`
	WritesPerWindow int           `yaml:"writes_per_window"`
	Window          time.Duration `yaml:"window"`
}

// Default program ids for local development. Real deployments set their own.
const (
	DefaultGovernanceProgram = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"
	DefaultTokenProgram      = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080", Environment: "dev", LogLevel: "info"},
		Ledger: LedgerConfig{Backend: "memory", TxTimeout: 5 * time.Second},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{Topic: "tollgate.audit", RelayInterval: time.Second, BatchSize: 100},
		Programs: ProgramsConfig{
			Governance: DefaultGovernanceProgram,
			Token:      DefaultTokenProgram,
		},
		Auth:     AuthConfig{Audience: "tollgate", MaxTokenTTL: 5 * time.Minute},
		Metadata: MetadataConfig{Timeout: 5 * time.Second},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			ReadsPerWindow:  600,
			WritesPerWindow: 60,
			Window:          time.Minute,
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- path is an operator supplied flag/env value
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv is Load with the file path taken from TOLLGATE_CONFIG.
func FromEnv() (Config, error) {
	return Load(os.Getenv("TOLLGATE_CONFIG"))
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Addr, "TOLLGATE_ADDR")
	setString(&cfg.Server.Environment, "TOLLGATE_ENV")
	setString(&cfg.Server.LogLevel, "TOLLGATE_LOG_LEVEL")

	setString(&cfg.Ledger.Backend, "TOLLGATE_LEDGER_BACKEND")
	setString(&cfg.Ledger.DSN, "DATABASE_URL")
	setString(&cfg.Ledger.Schema, "TOLLGATE_DB_SCHEMA")
	setDuration(&cfg.Ledger.TxTimeout, "TOLLGATE_LEDGER_TX_TIMEOUT")

	setString(&cfg.Redis.URL, "REDIS_URL")
	setInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strutil.SplitList(v)
	}
	setString(&cfg.Kafka.Topic, "KAFKA_AUDIT_TOPIC")
	setDuration(&cfg.Kafka.RelayInterval, "TOLLGATE_RELAY_INTERVAL")

	setString(&cfg.Programs.Governance, "TOLLGATE_GOVERNANCE_PROGRAM")
	setString(&cfg.Programs.Token, "TOLLGATE_TOKEN_PROGRAM")

	setString(&cfg.Auth.Audience, "TOLLGATE_TOKEN_AUDIENCE")
	setDuration(&cfg.Auth.MaxTokenTTL, "TOLLGATE_MAX_TOKEN_TTL")
	setString(&cfg.Auth.AdminTokenHash, "TOLLGATE_ADMIN_TOKEN_HASH")

	setString(&cfg.Metadata.URL, "METADATA_REGISTRY_URL")
	setDuration(&cfg.Metadata.Timeout, "METADATA_REGISTRY_TIMEOUT")

	setBool(&cfg.RateLimit.Enabled, "TOLLGATE_RATELIMIT_ENABLED")
	setInt(&cfg.RateLimit.ReadsPerWindow, "TOLLGATE_RATELIMIT_READS")
	setInt(&cfg.RateLimit.WritesPerWindow, "TOLLGATE_RATELIMIT_WRITES")
	setDuration(&cfg.RateLimit.Window, "TOLLGATE_RATELIMIT_WINDOW")
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case "memory":
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Programs.Governance == "" || c.Programs.Token == "" {
		return fmt.Errorf("programs.governance and programs.token are required")
	}
	if c.Auth.Audience == "" {
		return fmt.Errorf("auth.audience is required")
	}
	if c.Auth.MaxTokenTTL <= 0 {
		return fmt.Errorf("auth.max_token_ttl must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.ReadsPerWindow <= 0 || c.RateLimit.WritesPerWindow <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit limits and window must be positive when enabled")
	}
	if len(c.Kafka.Brokers) > 0 && c.Ledger.Backend != "postgres" {
		return fmt.Errorf("kafka relay requires the postgres ledger backend")
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Server.Environment == "prod" || c.Server.Environment == "production"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
