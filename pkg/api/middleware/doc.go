// Package middleware provides HTTP middleware for the GateControl API.
//
// The chain installed by the API router, outermost first:
//
//	Recovery -> RequestID -> Logging -> Metrics -> CORS -> Actor -> BodyLimit
//
// Recovery turns handler panics into a JSON 500 response. RequestID reads or
// generates X-Request-ID and stores it in the logging context. Metrics
// labels requests by the chi route pattern, never the raw path. Actor copies
// the X-Actor header into the context so store mutations attribute audit
// entries to the caller.
package middleware
