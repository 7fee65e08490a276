package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "valid default",
			modify: func(*Config) {},
		},
		{
			name:      "empty listen address",
			modify:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "listen address without port",
			modify:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			modify:    func(c *Config) { c.Server.ReadTimeout = -1 },
			wantField: "server.read_timeout",
		},
		{
			name:      "unknown backend",
			modify:    func(c *Config) { c.Storage.Backend = "etcd" },
			wantField: "storage.backend",
		},
		{
			name:      "postgres without dsn",
			modify:    func(c *Config) { c.Storage.Backend = "postgres" },
			wantField: "storage.postgres.dsn",
		},
		{
			name:      "file name with separator",
			modify:    func(c *Config) { c.Publish.FileName = "a/ocelot.json" },
			wantField: "publish.file_name",
		},
		{
			name:      "s3 without bucket",
			modify:    func(c *Config) { c.Publish.S3.Enabled = true },
			wantField: "publish.s3.bucket",
		},
		{
			name: "s3 relative endpoint",
			modify: func(c *Config) {
				c.Publish.S3.Enabled = true
				c.Publish.S3.Bucket = "b"
				c.Publish.S3.Endpoint = "minio:9000"
			},
			wantField: "publish.s3.endpoint",
		},
		{
			name: "bad cron schedule",
			modify: func(c *Config) {
				c.Drift.Enabled = true
				c.Drift.Schedule = "every minute"
			},
			wantField: "drift.schedule",
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad log format",
			modify:    func(c *Config) { c.Telemetry.Logging.Format = "console" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "metrics path without slash",
			modify:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig().Build()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "b: worse") {
		t.Errorf("unexpected multi error message %q", got)
	}
}

func TestConfigBuilder(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress("0.0.0.0:1234").
		WithStorageBackend("sqlite").
		WithDrift("@every 1m").
		WithLogLevel("debug").
		Build()

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected builder config to be valid, got %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || !cfg.Drift.Enabled {
		t.Errorf("builder overrides not applied: %+v", cfg)
	}
}
