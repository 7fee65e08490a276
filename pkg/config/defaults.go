package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:5080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(10 << 20) // 10MB

	// Storage defaults
	DefaultStorageBackend     = "file"
	DefaultStorageFilePath    = "data/db.json"
	DefaultStorageSQLitePath  = "data/gatecontrol.db"
	DefaultStorageBusyTimeout = 5 * time.Second

	// Publish defaults
	DefaultPublishRoot     = "data/published"
	DefaultPublishFileName = "ocelot.json"
	DefaultS3Region        = "us-east-1"
	DefaultS3Prefix        = "gatecontrol/"
	DefaultGitPath         = "data/published-history"
	DefaultGitAuthorName   = "GateControl"
	DefaultGitAuthorEmail  = "gatecontrol@localhost"
	DefaultReloadSignal    = "HUP"

	// Audit defaults
	DefaultAuditIndexPath = "data/audit.db"

	// Drift defaults
	DefaultDriftSchedule = "*/5 * * * *"
	DefaultDriftDebounce = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "gatecontrol"
	DefaultMetricsSubsystem = ""
)

// Default returns a configuration with every default applied, including
// boolean fields whose default is true. LoadConfig decodes YAML on top of
// it so that an omitted boolean keeps its default while an explicit false
// is honoured.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
// Boolean defaults are owned by Default.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.File.Path == "" {
		cfg.Storage.File.Path = DefaultStorageFilePath
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultStorageSQLitePath
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultStorageBusyTimeout
	}

	// Publish defaults
	if cfg.Publish.Root == "" {
		cfg.Publish.Root = DefaultPublishRoot
	}
	if cfg.Publish.FileName == "" {
		cfg.Publish.FileName = DefaultPublishFileName
	}
	if cfg.Publish.S3.Region == "" {
		cfg.Publish.S3.Region = DefaultS3Region
	}
	if cfg.Publish.S3.Prefix == "" {
		cfg.Publish.S3.Prefix = DefaultS3Prefix
	}
	if cfg.Publish.Git.Path == "" {
		cfg.Publish.Git.Path = DefaultGitPath
	}
	if cfg.Publish.Git.AuthorName == "" {
		cfg.Publish.Git.AuthorName = DefaultGitAuthorName
	}
	if cfg.Publish.Git.AuthorEmail == "" {
		cfg.Publish.Git.AuthorEmail = DefaultGitAuthorEmail
	}
	if cfg.Publish.Reload.Signal == "" {
		cfg.Publish.Reload.Signal = DefaultReloadSignal
	}

	// Audit defaults
	if cfg.Audit.Index.Path == "" {
		cfg.Audit.Index.Path = DefaultAuditIndexPath
	}

	// Drift defaults
	if cfg.Drift.Schedule == "" {
		cfg.Drift.Schedule = DefaultDriftSchedule
	}
	if cfg.Drift.Debounce == 0 {
		cfg.Drift.Debounce = DefaultDriftDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
