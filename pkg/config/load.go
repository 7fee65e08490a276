package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It starts from Default, decodes the file on top, validates the result and
// returns any errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Fields explicitly set to empty values in the file fall back to defaults
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GATECONTROL_SECTION_FIELD (e.g., GATECONTROL_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from Default.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format GATECONTROL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("GATECONTROL_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("GATECONTROL_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("GATECONTROL_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("GATECONTROL_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if val := os.Getenv("GATECONTROL_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	// Storage overrides
	envString("GATECONTROL_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("GATECONTROL_STORAGE_FILE_PATH", &cfg.Storage.File.Path)
	envString("GATECONTROL_STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("GATECONTROL_STORAGE_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)

	// Publish overrides
	envString("GATECONTROL_PUBLISH_ROOT", &cfg.Publish.Root)
	envString("GATECONTROL_PUBLISH_FILE_NAME", &cfg.Publish.FileName)
	envBool("GATECONTROL_PUBLISH_S3_ENABLED", &cfg.Publish.S3.Enabled)
	envString("GATECONTROL_PUBLISH_S3_BUCKET", &cfg.Publish.S3.Bucket)
	envString("GATECONTROL_PUBLISH_S3_REGION", &cfg.Publish.S3.Region)
	envString("GATECONTROL_PUBLISH_S3_PREFIX", &cfg.Publish.S3.Prefix)
	envString("GATECONTROL_PUBLISH_S3_ENDPOINT", &cfg.Publish.S3.Endpoint)
	envBool("GATECONTROL_PUBLISH_S3_PATH_STYLE", &cfg.Publish.S3.PathStyle)
	envBool("GATECONTROL_PUBLISH_GIT_ENABLED", &cfg.Publish.Git.Enabled)
	envString("GATECONTROL_PUBLISH_GIT_PATH", &cfg.Publish.Git.Path)
	envBool("GATECONTROL_PUBLISH_RELOAD_ENABLED", &cfg.Publish.Reload.Enabled)
	envString("GATECONTROL_PUBLISH_RELOAD_SIGNAL", &cfg.Publish.Reload.Signal)

	// Audit overrides
	envBool("GATECONTROL_AUDIT_INDEX_ENABLED", &cfg.Audit.Index.Enabled)
	envString("GATECONTROL_AUDIT_INDEX_PATH", &cfg.Audit.Index.Path)

	// Drift overrides
	envBool("GATECONTROL_DRIFT_ENABLED", &cfg.Drift.Enabled)
	envString("GATECONTROL_DRIFT_SCHEDULE", &cfg.Drift.Schedule)
	envBool("GATECONTROL_DRIFT_WATCH", &cfg.Drift.Watch)
	envDuration("GATECONTROL_DRIFT_DEBOUNCE", &cfg.Drift.Debounce)

	// Telemetry overrides
	envString("GATECONTROL_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("GATECONTROL_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("GATECONTROL_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("GATECONTROL_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// envBool and envDuration ignore values that do not parse.
func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
