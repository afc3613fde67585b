package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by ProfileBackend, CredentialBackend and AuditBackend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const (
	envPrefix = "CAMPUSID"

	defaultAdminCode     = "ADMIN123x"
	defaultJWTSigningKey = "dev-secret-key-change-in-production"
)

// Config is the full runtime configuration. Every key can be set through a
// CAMPUSID_-prefixed environment variable (nested keys use underscores, e.g.
// CAMPUSID_REDIS_URL) or a YAML file.
type Config struct {
	Addr          string `mapstructure:"addr"`
	RegulatedMode bool   `mapstructure:"regulated_mode"`
	LogLevel      string `mapstructure:"log_level"`

	AdminCode string `mapstructure:"admin_code"`

	ProfileBackend    string `mapstructure:"profile_backend"`
	CredentialBackend string `mapstructure:"credential_backend"`
	AuditBackend      string `mapstructure:"audit_backend"`

	DatabaseURL string      `mapstructure:"database_url"`
	Redis       RedisConfig `mapstructure:"redis"`

	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	IDTokenTTL    time.Duration `mapstructure:"id_token_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`

	KafkaBrokers string `mapstructure:"kafka_brokers"`
	AuditTopic   string `mapstructure:"audit_topic"`
	AuditBuffer  int    `mapstructure:"audit_buffer"`

	// ReconcileSchedule is a cron expression; empty disables the scheduled sweep.
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`

	Lockout LockoutConfig `mapstructure:"lockout"`
}

// LockoutConfig throttles repeated sign-in failures per email and client IP.
// Records live in Redis when redis.url is set, otherwise in Postgres when the
// credential backend is Postgres, otherwise in memory.
type LockoutConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Attempts          int           `mapstructure:"attempts"`
	Window            time.Duration `mapstructure:"window"`
	HardLockThreshold int           `mapstructure:"hard_lock_threshold"`
	HardLockDuration  time.Duration `mapstructure:"hard_lock_duration"`
}

// RedisConfig configures the Redis profile store connection.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SetDefaults registers default values on v. Keys must be known to viper for
// AutomaticEnv to pick them up during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("regulated_mode", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_code", defaultAdminCode)
	v.SetDefault("profile_backend", BackendMemory)
	v.SetDefault("credential_backend", BackendMemory)
	v.SetDefault("audit_backend", BackendMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("jwt_signing_key", defaultJWTSigningKey)
	v.SetDefault("id_token_ttl", time.Hour)
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("audit_topic", "campusid.audit")
	v.SetDefault("audit_buffer", 1024)
	v.SetDefault("reconcile_schedule", "")
	v.SetDefault("lockout.enabled", true)
	v.SetDefault("lockout.attempts", 5)
	v.SetDefault("lockout.window", 15*time.Minute)
	v.SetDefault("lockout.hard_lock_threshold", 10)
	v.SetDefault("lockout.hard_lock_duration", 15*time.Minute)
}

// Load reads configuration from the environment and, when file is not
// empty, from that YAML file. Environment values win over the file.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	return Load(viper.New(), "")
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if !oneOf(c.ProfileBackend, BackendMemory, BackendRedis, BackendPostgres) {
		errs = append(errs, fmt.Errorf("profile_backend %q: want memory, redis or postgres", c.ProfileBackend))
	}
	if !oneOf(c.CredentialBackend, BackendMemory, BackendPostgres) {
		errs = append(errs, fmt.Errorf("credential_backend %q: want memory or postgres", c.CredentialBackend))
	}
	if !oneOf(c.AuditBackend, BackendMemory, BackendPostgres) {
		errs = append(errs, fmt.Errorf("audit_backend %q: want memory or postgres", c.AuditBackend))
	}
	if c.NeedsPostgres() && c.DatabaseURL == "" {
		errs = append(errs, errors.New("database_url is required for postgres backends"))
	}
	if c.ProfileBackend == BackendRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required for the redis profile backend"))
	}
	if c.AdminCode == "" {
		errs = append(errs, errors.New("admin_code must not be empty"))
	}
	if c.Lockout.Enabled && (c.Lockout.Attempts <= 0 || c.Lockout.HardLockThreshold <= 0 ||
		c.Lockout.Window <= 0 || c.Lockout.HardLockDuration <= 0) {
		errs = append(errs, errors.New("lockout thresholds and durations must be positive"))
	}
	if c.IDTokenTTL <= 0 {
		errs = append(errs, errors.New("id_token_ttl must be positive"))
	}
	if c.RegulatedMode {
		if c.JWTSigningKey == defaultJWTSigningKey {
			errs = append(errs, errors.New("regulated_mode requires a non-default jwt_signing_key"))
		}
		if c.AdminCode == defaultAdminCode {
			errs = append(errs, errors.New("regulated_mode requires a non-default admin_code"))
		}
	}
	return errors.Join(errs...)
}

// NeedsPostgres reports whether any backend is Postgres.
func (c Config) NeedsPostgres() bool {
	return c.ProfileBackend == BackendPostgres ||
		c.CredentialBackend == BackendPostgres ||
		c.AuditBackend == BackendPostgres
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
