// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Database driver: "postgres" or "mysql"
	DBDriver string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MySQL connection
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLName     string

	// Valkey (Redis-compatible session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	SessionTTL     time.Duration

	// Uploaded assets
	AssetBackend   string // "local" or "s3"
	AssetDir       string
	AssetURLPrefix string
	AssetMaxBytes  int64
	AssetDefaults  []string // placeholder references that are never deleted

	// S3-compatible object storage
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Draft preview links
	PreviewSecret string
	PreviewTTL    time.Duration

	// Login attempts allowed per IP per minute
	LoginRateLimit int
	// Honour X-Forwarded-For / X-Real-IP; enable only behind a trusted proxy.
	TrustProxy bool

	// Request body ceiling, uploads included
	MaxBodyBytes int64
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first when present; real environment variables win over it.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBDriver: envOrDefault("DB_DRIVER", "postgres"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "newsdesk"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "newsdesk"),

		MySQLHost:     envOrDefault("MYSQL_HOST", "localhost"),
		MySQLPort:     envOrDefault("MYSQL_PORT", "3306"),
		MySQLUser:     envOrDefault("MYSQL_USER", "newsdesk"),
		MySQLPassword: envOrDefault("MYSQL_PASSWORD", "changeme"),
		MySQLName:     envOrDefault("MYSQL_DATABASE", "newsdesk"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AssetBackend:   envOrDefault("ASSET_BACKEND", "local"),
		AssetDir:       envOrDefault("ASSET_DIR", "uploads"),
		AssetURLPrefix: envOrDefault("ASSET_URL_PREFIX", "/uploads"),
		AssetDefaults:  splitList(envOrDefault("ASSET_DEFAULTS", "/static/img/default-avatar.png,/static/img/placeholder.jpg")),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "newsdesk-assets"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		PreviewSecret: os.Getenv("PREVIEW_SECRET"),
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PreviewTTL, err = durationOrDefault("PREVIEW_TTL", 48*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AssetMaxBytes, err = int64OrDefault("ASSET_MAX_BYTES", 5<<20); err != nil {
		return nil, err
	}
	limit, err := int64OrDefault("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	cfg.LoginRateLimit = int(limit)
	if cfg.MaxBodyBytes, err = int64OrDefault("MAX_BODY_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		if cfg.TrustProxy, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("TRUST_PROXY must be true or false, got %q", v)
		}
	}

	switch cfg.DBDriver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", cfg.DBDriver)
	}
	switch cfg.AssetBackend {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("ASSET_BACKEND must be local or s3, got %q", cfg.AssetBackend)
	}

	if cfg.Env == "production" {
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.DBDriver == "mysql" && cfg.MySQLPassword == "changeme" {
			return nil, fmt.Errorf("MYSQL_PASSWORD must be set in production")
		}
		if cfg.PreviewSecret == "" {
			return nil, fmt.Errorf("PREVIEW_SECRET must be set in production")
		}
	}
	if cfg.PreviewSecret == "" {
		cfg.PreviewSecret = "dev-preview-secret"
	}

	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		// clientFoundRows makes UPDATE report matched rows, so an update
		// that changes nothing is not mistaken for a missing row.
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&clientFoundRows=true",
			c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLName,
		)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return c.ValkeyHost + ":" + c.ValkeyPort
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func int64OrDefault(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
