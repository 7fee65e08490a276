package api

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/audit"
	"gatecontrol-hq/gatecontrol/pkg/model"

	"github.com/go-chi/chi/v5"
)

// overviewPublishes is the number of recent publishes in the overview.
const overviewPublishes = 5

func newestPublishesFirst(records []model.PublishRecord) []model.PublishRecord {
	slices.SortStableFunc(records, func(a, b model.PublishRecord) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return records
}

func (h *Handler) publishHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newestPublishesFirst(h.store.PublishHistory()))
}

func (h *Handler) environmentPublishHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Environment(id); !ok {
		h.writeError(w, r, notFound("environment", id))
		return
	}
	writeJSON(w, http.StatusOK, newestPublishesFirst(h.store.PublishHistoryFor(id)))
}

// auditLogs returns audit entries newest first. Optional query parameters
// entityType, entityId, actor, action, since (RFC 3339) and limit narrow the
// result; without limit every matching entry is returned.
func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries := h.store.AuditLogs()
	if filter.Limit == 0 {
		filter.Limit = max(len(entries), 1)
	}
	out := filter.Apply(entries)
	slices.SortStableFunc(out, func(a, b model.AuditLogEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	writeJSON(w, http.StatusOK, out)
}

func parseAuditFilter(r *http.Request) (*audit.Filter, error) {
	q := r.URL.Query()
	filter := &audit.Filter{
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		Actor:      q.Get("actor"),
		Action:     q.Get("action"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid since %q", errBadRequest, v)
		}
		filter.Since = &since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("%w: invalid limit %q", errBadRequest, v)
		}
		filter.Limit = limit
	}
	return filter, nil
}

// Overview summarizes the model for dashboards.
type Overview struct {
	Environments   int              `json:"environments"`
	Services       int              `json:"services"`
	Routes         int              `json:"routes"`
	ChangeRequests map[string]int   `json:"changeRequests"`
	LastPublishes  []PublishSummary `json:"lastPublishes"`
}

// PublishSummary is the short form of a PublishRecord.
type PublishSummary struct {
	EnvironmentID string    `json:"environmentId"`
	PublishedAt   time.Time `json:"publishedAt"`
	Status        string    `json:"status"`
	ConfigHash    string    `json:"configHash"`
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.buildOverview())
}

func (h *Handler) buildOverview() Overview {
	// One snapshot keeps the counts consistent with each other.
	agg := h.store.Snapshot()
	ov := Overview{
		Environments:   len(agg.Environments),
		Services:       len(agg.Services),
		Routes:         len(agg.Routes),
		ChangeRequests: map[string]int{},
		LastPublishes:  []PublishSummary{},
	}
	for _, cr := range agg.ChangeRequests {
		ov.ChangeRequests[cmp.Or(cr.Status, model.ChangeRequestDraft)]++
	}
	history := newestPublishesFirst(agg.PublishHistory)
	for _, p := range history[:min(len(history), overviewPublishes)] {
		ov.LastPublishes = append(ov.LastPublishes, PublishSummary{
			EnvironmentID: p.EnvironmentID,
			PublishedAt:   p.PublishedAt,
			Status:        p.Status,
			ConfigHash:    p.ConfigHash,
		})
	}
	return ov
}
