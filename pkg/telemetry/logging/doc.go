// Package logging configures structured logging for GateControl on top of
// log/slog.
//
// Components obtain their logger with
//
//	logger := slog.Default().With("component", "publisher")
//
// after the CLI has installed the configured handler with Setup. Request
// scoped fields (request id, actor, environment) are attached to the
// context by the API middleware and added to every record logged through
// the slog *Context methods.
//
// Attributes whose key names a credential (dsn, password, secret, token)
// are written as [REDACTED].
package logging
