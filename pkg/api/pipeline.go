package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"gatecontrol-hq/gatecontrol/pkg/publisher"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ocelot(w http.ResponseWriter, r *http.Request) {
	doc, err := h.generator.Build(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// validate always answers 200. An unknown environment is an
// ENVIRONMENT_NOT_FOUND issue in the report.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	report, err := h.validator.ValidateEnvironment(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// publishBody is the optional body of a publish request. The environment
// comes from the path.
type publishBody struct {
	Actor           string   `json:"actor"`
	ChangeRequestID string   `json:"changeRequestId"`
	TargetNodes     []string `json:"targetNodes"`
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var body publishBody
	if err := decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.publisher.Publish(r.Context(), publisher.Request{
		EnvironmentID:   chi.URLParam(r, "id"),
		Actor:           body.Actor,
		ChangeRequestID: body.ChangeRequestID,
		TargetNodes:     body.TargetNodes,
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("publish %s: %w", rec.ID, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) checkDrift(w http.ResponseWriter, r *http.Request) {
	report, err := h.drift.Check(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// importOcelot creates an environment with services and routes from an
// Ocelot document. ?environmentName= names the new environment.
func (h *Handler) importOcelot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.importer.Import(r.Context(), data, r.URL.Query().Get("environmentName"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
