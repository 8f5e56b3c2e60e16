// Package config defines the configuration structures of the ClubDues
// service.  Only plain data types and validation live in this file; loading
// is in loader.go and fallbacks in defaults.go.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SlowRequest     time.Duration `mapstructure:"slow_request"`
	// PayRateLimit and PayRateBurst throttle the public pay endpoints per
	// client IP.  A zero rate disables throttling.
	PayRateLimit float64 `mapstructure:"pay_rate_limit"`
	PayRateBurst int     `mapstructure:"pay_rate_burst"`
	// PublicBaseURL prefixes pay links: <base>/membership_pay?mid=..&code=..
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Driver is "postgres" (lib/pq) or "pgx" (jackc/pgx stdlib).
	Driver           string        `mapstructure:"driver"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxConns         int           `mapstructure:"max_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	MigrationPath    string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// PlanCacheTTL bounds how long a plan snapshot stays cached.
	PlanCacheTTL time.Duration `mapstructure:"plan_cache_ttl"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	GroupID     string   `mapstructure:"group_id"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	MaxRetries  int      `mapstructure:"max_retries"`
	// SASLMechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512; empty disables SASL.
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
}

// MinIOConfig holds object storage parameters for payment proofs.
type MinIOConfig struct {
	Endpoint            string        `mapstructure:"endpoint"`
	AccessKey           string        `mapstructure:"access_key"`
	SecretKey           string        `mapstructure:"secret_key"`
	UseSSL              bool          `mapstructure:"use_ssl"`
	Region              string        `mapstructure:"region"`
	Bucket              string        `mapstructure:"bucket"`
	MaxProofBytes       int64         `mapstructure:"max_proof_bytes"`
	AllowedContentTypes []string      `mapstructure:"allowed_content_types"`
	PresignExpiry       time.Duration `mapstructure:"presign_expiry"`
}

// AuthConfig guards the admin API.
type AuthConfig struct {
	JWTSecret string   `mapstructure:"jwt_secret"`
	Issuer    string   `mapstructure:"issuer"`
	AdminRole string   `mapstructure:"admin_role"`
	APIKeys   []string `mapstructure:"api_keys"`
}

// ReconciliationConfig tunes the membership engine.
type ReconciliationConfig struct {
	// AtomicDecisions wraps the submission, installment and membership writes
	// of validate/reject in one database transaction.
	AtomicDecisions bool `mapstructure:"atomic_decisions"`
	// DecisionLock serialises validate/reject per membership through Redis.
	DecisionLock    bool          `mapstructure:"decision_lock"`
	DecisionLockTTL time.Duration `mapstructure:"decision_lock_ttl"`
	// UpToDateMessage is stored as payLinkDisabledReason once nothing is due.
	UpToDateMessage string `mapstructure:"up_to_date_message"`
	// UnderReviewMessage is stored when a new submission disables the link.
	UnderReviewMessage string `mapstructure:"under_review_message"`
}

// WorkerConfig holds background worker parameters.
type WorkerConfig struct {
	SweepSchedule  string        `mapstructure:"sweep_schedule"`
	SweepBatchSize int           `mapstructure:"sweep_batch_size"`
	SweepTimeout   time.Duration `mapstructure:"sweep_timeout"`
}

// LogConfig holds logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	MinIO          MinIOConfig          `mapstructure:"minio"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Worker         WorkerConfig         `mapstructure:"worker"`
	Log            LogConfig            `mapstructure:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.PublicBaseURL != "" {
		u, err := url.Parse(c.Server.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: server.public_base_url %q must be an absolute URL", c.Server.PublicBaseURL)
		}
	}

	// Database
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("config: database.driver %q is invalid; expected postgres|pgx", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
		switch c.Kafka.SASLMechanism {
		case "", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("config: kafka.sasl_mechanism %q is not supported", c.Kafka.SASLMechanism)
		}
	}

	// MinIO
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required")
	}
	if c.MinIO.MaxProofBytes <= 0 {
		return fmt.Errorf("config: minio.max_proof_bytes must be positive, got %d", c.MinIO.MaxProofBytes)
	}

	// Reconciliation
	if c.Reconciliation.DecisionLock && !c.Redis.Enabled {
		return fmt.Errorf("config: reconciliation.decision_lock requires redis.enabled")
	}
	if strings.TrimSpace(c.Reconciliation.UpToDateMessage) == "" {
		return fmt.Errorf("config: reconciliation.up_to_date_message must not be empty")
	}

	// Worker
	if c.Worker.SweepBatchSize < 1 {
		return fmt.Errorf("config: worker.sweep_batch_size must be >= 1, got %d", c.Worker.SweepBatchSize)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
