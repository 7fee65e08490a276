// Package config provides configuration management for GateControl.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("gatecontrol.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GATECONTROL_SECTION_FIELD.
// For example:
//
//   - GATECONTROL_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GATECONTROL_STORAGE_BACKEND overrides storage.backend
//   - GATECONTROL_PUBLISH_ROOT overrides publish.root
//   - GATECONTROL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// The CLI initializes a process-wide configuration once:
//
//	if err := config.Initialize(path); err != nil {
//	    return err
//	}
//	cfg := config.GetConfig()
//
// Library packages receive their section explicitly and never read the
// singleton.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:5080"
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "/var/lib/gatecontrol/state.db"
//
//	publish:
//	  root: "/etc/ocelot"
//	  git:
//	    enabled: true
//	  reload:
//	    enabled: true
//
//	drift:
//	  enabled: true
//	  schedule: "*/10 * * * *"
//	  watch: true
//
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "text"
package config
