// Package server runs the GateControl HTTP API.
//
// Server wraps net/http.Server with the timeouts from config.ServerConfig
// and a graceful shutdown bounded by ShutdownTimeout:
//
//	srv := server.New(&cfg.Server, api.NewRouter(apiCfg))
//	if err := srv.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled, Shutdown is called, or the listener
// fails. Signal handling belongs to the caller; the CLI cancels ctx on
// SIGINT and SIGTERM.
package server
