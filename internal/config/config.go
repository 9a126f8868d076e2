package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		// DSN accepts a postgres connection string or a sqlite file path.
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	JWT struct {
		Secret           string `yaml:"secret"`
		UserExpiryHours  int    `yaml:"user_expiry_hours"`
		AdminExpiryHours int    `yaml:"admin_expiry_hours"`
	} `yaml:"jwt"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`

	Redis struct {
		// Addr enables the redis login limiter when non-empty.
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Bootstrap struct {
		// AdminUsername/AdminPassword seed the first admin account on an
		// empty database.
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`
}

// UserTokenExpiry returns the user JWT lifetime.
func (c *Config) UserTokenExpiry() time.Duration {
	hours := c.JWT.UserExpiryHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// AdminTokenExpiry returns the admin JWT lifetime.
func (c *Config) AdminTokenExpiry() time.Duration {
	hours := c.JWT.AdminExpiryHours
	if hours <= 0 {
		hours = 8
	}
	return time.Duration(hours) * time.Hour
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	host := c.Server.Host
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Load reads the config file at path, applies defaults and environment
// overrides, and validates the result. A missing file is not an error; the
// service can run entirely from environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
			}
		case os.IsNotExist(errRead):
			// fall through to env-only configuration
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, fmt.Errorf("config: database dsn is required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: jwt secret is required")
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MESSDESK_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_PORT")); v != "" {
		if port, errAtoi := strconv.Atoi(v); errAtoi == nil {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_JWT_SECRET")); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_REDIS_PASSWORD")); v != "" {
		cfg.Redis.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_BOOTSTRAP_ADMIN_USERNAME")); v != "" {
		cfg.Bootstrap.AdminUsername = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSDESK_BOOTSTRAP_ADMIN_PASSWORD")); v != "" {
		cfg.Bootstrap.AdminPassword = v
	}
}

// applyDefaults fills unset fields with sane defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
}
