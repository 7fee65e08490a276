package config

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder starting from Default.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *Default()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithStorageBackend sets the storage backend.
func (b *ConfigBuilder) WithStorageBackend(backend string) *ConfigBuilder {
	b.cfg.Storage.Backend = backend
	return b
}

// WithDrift enables drift checks on schedule.
func (b *ConfigBuilder) WithDrift(schedule string) *ConfigBuilder {
	b.cfg.Drift.Enabled = true
	b.cfg.Drift.Schedule = schedule
	return b
}

// WithLogLevel sets the log level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}
