package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/mod/semver"
)

// ErrInvalidConfig is returned by Validate for any unusable setting.
var ErrInvalidConfig = errors.New("invalid configuration")

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PublishConfig controls the optional upload of the artifact set after a build.
type PublishConfig struct {
	Enabled bool
	// Prefix is prepended to every object key (e.g. "site/").
	Prefix string
	MinIO  MinIOConfig
}

// AppConfig is the centralized configuration struct for the build.
// Every field has a default, so a run with an empty environment writes the
// fixed artifact set into the working directory.
type AppConfig struct {
	OutputDir   string
	Version     string
	Timezone    string
	MetricsFile string
	Publish     PublishConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		OutputDir:   getEnv("BUILD_OUTPUT_DIR", "."),
		Version:     getEnv("BUILD_VERSION", "1.0.0"),
		Timezone:    getEnv("BUILD_TIMEZONE", "UTC"),
		MetricsFile: getEnv("BUILD_METRICS_FILE", ""),
		Publish: PublishConfig{
			Enabled: getEnvBool("PUBLISH_ENABLED", false),
			Prefix:  getEnv("PUBLISH_PREFIX", ""),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
	}
}

// Validate reports the first unusable setting, wrapped in ErrInvalidConfig.
func (c *AppConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output dir is empty", ErrInvalidConfig)
	}
	if v := "v" + c.Version; !semver.IsValid(v) || semver.Canonical(v) != v {
		return fmt.Errorf("%w: version %q is not MAJOR.MINOR.PATCH", ErrInvalidConfig, c.Version)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	if c.Publish.Enabled {
		m := c.Publish.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return fmt.Errorf("%w: publishing requires MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET", ErrInvalidConfig)
		}
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
