package api

import (
	"log/slog"
	"net/http"

	"gatecontrol-hq/gatecontrol/pkg/api/middleware"
	"gatecontrol-hq/gatecontrol/pkg/drift"
	"gatecontrol-hq/gatecontrol/pkg/generator"
	"gatecontrol-hq/gatecontrol/pkg/importer"
	"gatecontrol-hq/gatecontrol/pkg/publisher"
	"gatecontrol-hq/gatecontrol/pkg/store"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/health"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
	"gatecontrol-hq/gatecontrol/pkg/validator"

	"github.com/go-chi/chi/v5"
)

// Config wires the API to the control plane components.
type Config struct {
	Store     *store.Store
	Publisher *publisher.Publisher
	Importer  *importer.Importer
	Drift     *drift.Detector

	// Health serves /health and /ready. Optional.
	Health *health.Checker

	// Metrics records HTTP metrics and, when MetricsPath is set, is served
	// there. Optional.
	Metrics     *metrics.Collector
	MetricsPath string

	// MaxBodyBytes caps request bodies. Zero disables the cap.
	MaxBodyBytes int64

	Version   string
	Commit    string
	BuildTime string

	Logger *slog.Logger
}

// Handler serves the control plane API.
type Handler struct {
	store     *store.Store
	generator *generator.Generator
	validator *validator.Validator
	publisher *publisher.Publisher
	importer  *importer.Importer
	drift     *drift.Detector
	logger    *slog.Logger
}

// NewRouter builds the chi router with middleware and every endpoint.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		store:     cfg.Store,
		generator: generator.New(cfg.Store),
		validator: cfg.Publisher.Validator(),
		publisher: cfg.Publisher,
		importer:  cfg.Importer,
		drift:     cfg.Drift,
		logger:    logger.With("component", "api"),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.Actor,
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.LivenessHandler())
		r.Get("/ready", cfg.Health.ReadinessHandler())
	}
	r.Get("/version", health.VersionHandler(cfg.Version, cfg.Commit, cfg.BuildTime))
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		mountResource(r, "/environments", h.environments(), func(r chi.Router) {
			r.Get("/ocelot", h.ocelot)
			r.Get("/validate", h.validate)
			r.Post("/publish", h.publish)
			r.Get("/publish-history", h.environmentPublishHistory)
			r.Get("/drift", h.checkDrift)
		})
		mountResource(r, "/services", h.services())
		mountResource(r, "/routes", h.routes())
		mountResource(r, "/change-requests", h.changeRequests(), func(r chi.Router) {
			r.Put("/status", h.updateChangeRequestStatus)
		})

		r.Get("/publish-history", h.publishHistory)
		r.Get("/audit-logs", h.auditLogs)
		r.Post("/import/ocelot", h.importOcelot)
		r.Get("/observability/overview", h.overview)
	})

	return r
}
