package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Logger     LoggerConfig     `yaml:"logger"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Redis      RedisConfig      `yaml:"redis"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Audit      AuditConfig      `yaml:"audit"`
}

// AuditConfig controls the periodic bed occupancy audit.
type AuditConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalMinutes int           `yaml:"interval_minutes"`
	Interval        time.Duration `yaml:"-"`
	// Repair reconciles drift instead of only reporting it.
	Repair bool `yaml:"repair"`
}

// WorkerPoolConfig holds the configuration for the push notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
// Push is disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	Mode            string  `yaml:"mode"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

// DatabaseConfig holds the database connection configuration.
// DSNs starting with "postgres://" or "host=" use PostgreSQL, "sqlite:" or "file:" use SQLite.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// AuthConfig holds session token and password hashing settings.
type AuthConfig struct {
	JWTSecret             string        `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int           `yaml:"access_token_ttl_minutes"`
	AccessTokenTTL        time.Duration `yaml:"-"`
	BcryptCost            int           `yaml:"bcrypt_cost"`
}

// LoggerConfig holds structured logging settings.
type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// RealtimeConfig holds change feed settings.
type RealtimeConfig struct {
	KeepaliveSeconds int           `yaml:"keepalive_seconds"`
	Keepalive        time.Duration `yaml:"-"`
}

// RedisConfig enables the cross-instance change relay.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Load reads the configuration from the given path.
// A .env file in the working directory, if present, is loaded first and
// HOSTEL_* variables override the YAML values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOSTEL_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("HOSTEL_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("HOSTEL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("HOSTEL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			slog.Warn("ignoring invalid HOSTEL_SERVER_PORT", "value", v)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Auth.AccessTokenTTLMinutes <= 0 {
		cfg.Auth.AccessTokenTTLMinutes = 60
	}
	cfg.Auth.AccessTokenTTL = time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute
	if cfg.Auth.BcryptCost <= 0 {
		cfg.Auth.BcryptCost = 12
	}

	if cfg.Realtime.KeepaliveSeconds <= 0 {
		cfg.Realtime.KeepaliveSeconds = 30
	}
	cfg.Realtime.Keepalive = time.Duration(cfg.Realtime.KeepaliveSeconds) * time.Second

	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "hostel:changes"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Audit.IntervalMinutes <= 0 {
		cfg.Audit.IntervalMinutes = 60
	}
	cfg.Audit.Interval = time.Duration(cfg.Audit.IntervalMinutes) * time.Minute

	if cfg.WorkerPool.Size <= 0 {
		slog.Info("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
