package api

import (
	"context"
	"net/http"

	"gatecontrol-hq/gatecontrol/pkg/model"

	"github.com/go-chi/chi/v5"
)

// resource describes the CRUD surface of one entity collection.
type resource[T model.Entity] struct {
	kind string

	fresh  func() T
	setID  func(*T, string)
	envOf  func(T) string
	list   func() []T
	get    func(id string) (T, bool)
	upsert func(ctx context.Context, item T) (T, error)
	remove func(ctx context.Context, id string) (bool, error)

	h *Handler
}

// mountResource registers the CRUD routes for res under pattern. Each item
// function adds routes below /{id}.
func mountResource[T model.Entity](r chi.Router, pattern string, res resource[T], item ...func(chi.Router)) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", res.handleList)
		r.Post("/", res.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", res.handleGet)
			r.Put("/", res.handleUpdate)
			r.Delete("/", res.handleDelete)
			for _, fn := range item {
				fn(r)
			}
		})
	})
}

// handleList returns every item, optionally restricted by ?environmentId=
// for environment-scoped collections.
func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	items := res.list()
	envID := r.URL.Query().Get("environmentId")
	if envID == "" || res.envOf == nil {
		writeJSON(w, http.StatusOK, items)
		return
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if res.envOf(item) == envID {
			out = append(out, item)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := res.get(id)
	if !ok {
		res.h.writeError(w, r, notFound(res.kind, id))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	res.save(w, r, "")
}

func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	res.save(w, r, chi.URLParam(r, "id"))
}

// save decodes onto a defaulted item so omitted fields keep their defaults.
// A non-empty id overrides the body's id.
func (res resource[T]) save(w http.ResponseWriter, r *http.Request, id string) {
	item := res.fresh()
	if err := decode(r, &item); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	if id != "" {
		res.setID(&item, id)
	}
	saved, err := res.upsert(r.Context(), item)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := res.remove(r.Context(), id)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	if !ok {
		res.h.writeError(w, r, notFound(res.kind, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) environments() resource[model.Environment] {
	return resource[model.Environment]{
		kind:   "environment",
		fresh:  model.NewEnvironment,
		setID:  func(e *model.Environment, id string) { e.ID = id },
		list:   h.store.Environments,
		get:    h.store.Environment,
		upsert: h.store.UpsertEnvironment,
		remove: h.store.DeleteEnvironment,
		h:      h,
	}
}

func (h *Handler) services() resource[model.Service] {
	return resource[model.Service]{
		kind:   "service",
		fresh:  model.NewService,
		setID:  func(s *model.Service, id string) { s.ID = id },
		envOf:  func(s model.Service) string { return s.EnvironmentID },
		list:   h.store.Services,
		get:    h.store.Service,
		upsert: h.store.UpsertService,
		remove: h.store.DeleteService,
		h:      h,
	}
}

func (h *Handler) routes() resource[model.Route] {
	return resource[model.Route]{
		kind:   "route",
		fresh:  model.NewRoute,
		setID:  func(rt *model.Route, id string) { rt.ID = id },
		envOf:  func(rt model.Route) string { return rt.EnvironmentID },
		list:   h.store.Routes,
		get:    h.store.Route,
		upsert: h.store.UpsertRoute,
		remove: h.store.DeleteRoute,
		h:      h,
	}
}

func (h *Handler) changeRequests() resource[model.ChangeRequest] {
	return resource[model.ChangeRequest]{
		kind:   "change request",
		fresh:  model.NewChangeRequest,
		setID:  func(c *model.ChangeRequest, id string) { c.ID = id },
		envOf:  func(c model.ChangeRequest) string { return c.EnvironmentID },
		list:   h.store.ChangeRequests,
		get:    h.store.ChangeRequest,
		upsert: h.store.UpsertChangeRequest,
		remove: h.store.DeleteChangeRequest,
		h:      h,
	}
}

type statusChange struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

func (h *Handler) updateChangeRequestStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusChange
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	cr, ok, err := h.store.UpdateChangeRequestStatus(r.Context(), id, req.Status, req.Actor, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, notFound("change request", id))
		return
	}
	writeJSON(w, http.StatusOK, cr)
}
