package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/api/middleware"
	"gatecontrol-hq/gatecontrol/pkg/config"
	"gatecontrol-hq/gatecontrol/pkg/drift"
	"gatecontrol-hq/gatecontrol/pkg/importer"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/publisher"
	"gatecontrol-hq/gatecontrol/pkg/store"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/health"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
)

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *store.Store
	writer  *publisher.FileWriter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	snap, err := store.NewFileSnapshotter(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("NewFileSnapshotter() failed: %v", err)
	}
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	s, err := store.New(context.Background(), snap, store.WithMetrics(collector))
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	writer := publisher.NewFileWriter(filepath.Join(dir, "published"), "ocelot.json")
	pub := publisher.New(s, writer, publisher.WithMetrics(collector))

	checker := health.New(time.Second)
	checker.RegisterCheck("store", health.PingCheck(s))
	checker.RegisterCheck("publish_root", health.WritableDirCheck(writer.Root()))

	h := NewRouter(Config{
		Store:        s,
		Publisher:    pub,
		Importer:     importer.New(s),
		Drift:        drift.NewDetector(s, writer, collector),
		Health:       checker,
		Metrics:      collector,
		MetricsPath:  "/metrics",
		MaxBodyBytes: 1 << 20,
		Version:      "test",
	})
	return &testEnv{t: t, handler: h, store: s, writer: writer}
}

func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("json.Marshal() failed: %v", err)
		}
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// seed creates an environment with a service and a route through the API.
func (e *testEnv) seed(validRoute bool) (model.Environment, model.Service, model.Route) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/environments", map[string]any{"name": "dev", "baseUrl": "https://dev.example.com"})
	expectStatus(e.t, rec, http.StatusOK)
	env := decodeBody[model.Environment](e.t, rec)

	rec = e.do(http.MethodPost, "/api/services", map[string]any{
		"environmentId": env.ID,
		"name":          "Orders",
		"hosts":         []map[string]any{{"host": "orders", "port": 8080}},
	})
	expectStatus(e.t, rec, http.StatusOK)
	svc := decodeBody[model.Service](e.t, rec)

	serviceID := svc.ID
	if !validRoute {
		serviceID = "missing"
	}
	rec = e.do(http.MethodPost, "/api/routes", map[string]any{
		"environmentId":          env.ID,
		"upstreamPathTemplate":   "/orders/{everything}",
		"downstreamPathTemplate": "/api/orders/{everything}",
		"downstreamServiceId":    serviceID,
	})
	expectStatus(e.t, rec, http.StatusOK)
	route := decodeBody[model.Route](e.t, rec)
	return env, svc, route
}

func TestEntityCRUD(t *testing.T) {
	e := newTestEnv(t)
	env, svc, route := e.seed(true)

	if env.ID == "" || env.DiscoveryProviderType != model.DefaultDiscoveryProviderType {
		t.Errorf("environment defaults not applied: %+v", env)
	}
	if !route.IsActive || len(route.UpstreamMethods) != 1 || route.UpstreamMethods[0] != "GET" {
		t.Errorf("route defaults not applied: %+v", route)
	}

	t.Run("get", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/api/services/"+svc.ID, nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[model.Service](t, rec); got.Name != "Orders" {
			t.Errorf("Name = %q, want Orders", got.Name)
		}
	})

	t.Run("update uses path id", func(t *testing.T) {
		rec := e.do(http.MethodPut, "/api/environments/"+env.ID, map[string]any{"id": "other", "name": "development"})
		expectStatus(t, rec, http.StatusOK)
		got := decodeBody[model.Environment](t, rec)
		if got.ID != env.ID || got.Name != "development" {
			t.Errorf("unexpected environment %+v", got)
		}
		if n := len(e.store.Environments()); n != 1 {
			t.Errorf("environments = %d, want 1", n)
		}
	})

	t.Run("list filtered by environment", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/api/routes?environmentId="+env.ID, nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[[]model.Route](t, rec); len(got) != 1 {
			t.Errorf("routes = %d, want 1", len(got))
		}
		rec = e.do(http.MethodGet, "/api/routes?environmentId=nope", nil)
		if got := decodeBody[[]model.Route](t, rec); len(got) != 0 {
			t.Errorf("routes = %d, want 0", len(got))
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := e.do(http.MethodDelete, "/api/routes/"+route.ID, nil)
		expectStatus(t, rec, http.StatusNoContent)
		rec = e.do(http.MethodDelete, "/api/routes/"+route.ID, nil)
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		for _, path := range []string{"/api/environments/x", "/api/services/x", "/api/routes/x", "/api/change-requests/x"} {
			rec := e.do(http.MethodGet, path, nil)
			if rec.Code != http.StatusNotFound {
				t.Errorf("GET %s = %d, want 404", path, rec.Code)
			}
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/api/services", "{not json")
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestEntityByID(t *testing.T) {
	e := newTestEnv(t)
	env, svc, route := e.seed(true)

	rec := e.do(http.MethodPost, "/api/change-requests", map[string]any{"environmentId": env.ID, "title": "Add orders"})
	expectStatus(t, rec, http.StatusOK)
	cr := decodeBody[model.ChangeRequest](t, rec)

	// Children before the environment they belong to.
	tests := []struct {
		collection string
		id         string
		update     map[string]any
	}{
		{collection: "routes", id: route.ID, update: map[string]any{"environmentId": env.ID, "upstreamPathTemplate": "/v2/orders", "downstreamPathTemplate": "/orders"}},
		{collection: "services", id: svc.ID, update: map[string]any{"environmentId": env.ID, "name": "Billing"}},
		{collection: "change-requests", id: cr.ID, update: map[string]any{"environmentId": env.ID, "title": "Add billing"}},
		{collection: "environments", id: env.ID, update: map[string]any{"name": "development"}},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			path := "/api/" + tt.collection + "/" + tt.id

			rec := e.do(http.MethodGet, path, nil)
			expectStatus(t, rec, http.StatusOK)
			if got := decodeBody[map[string]any](t, rec); got["id"] != tt.id {
				t.Errorf("GET id = %v, want %s", got["id"], tt.id)
			}

			rec = e.do(http.MethodPut, path, tt.update)
			expectStatus(t, rec, http.StatusOK)
			if got := decodeBody[map[string]any](t, rec); got["id"] != tt.id {
				t.Errorf("PUT id = %v, want %s", got["id"], tt.id)
			}

			rec = e.do(http.MethodDelete, path, nil)
			expectStatus(t, rec, http.StatusNoContent)

			for _, method := range []string{http.MethodGet, http.MethodDelete} {
				rec = e.do(method, path, nil)
				expectStatus(t, rec, http.StatusNotFound)
				body := decodeBody[middleware.ErrorResponse](t, rec)
				if !strings.Contains(body.Error, tt.id) {
					t.Errorf("%s after delete: error %q does not name %s", method, body.Error, tt.id)
				}
			}
		})
	}

	if n := len(e.store.Environments()); n != 0 {
		t.Errorf("environments = %d, want 0", n)
	}
}

func TestActorHeaderAttributesAudit(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(http.MethodPost, "/api/environments", map[string]any{"name": "dev"}, "X-Actor", "alice")
	expectStatus(t, rec, http.StatusOK)

	logs := e.store.AuditLogs()
	if len(logs) != 1 || logs[0].Actor != "alice" {
		t.Fatalf("unexpected audit entries %+v", logs)
	}
	if want := rec.Header().Get("X-Request-ID"); logs[0].CorrelationID != want {
		t.Errorf("CorrelationID = %q, want request id %q", logs[0].CorrelationID, want)
	}
}

func TestChangeRequestStatus(t *testing.T) {
	e := newTestEnv(t)
	env, _, _ := e.seed(true)

	rec := e.do(http.MethodPost, "/api/change-requests", map[string]any{"environmentId": env.ID, "title": "Add orders"})
	expectStatus(t, rec, http.StatusOK)
	cr := decodeBody[model.ChangeRequest](t, rec)
	if cr.Status != model.ChangeRequestDraft {
		t.Fatalf("Status = %q, want Draft", cr.Status)
	}

	tests := []struct {
		name   string
		id     string
		body   any
		want   int
		status string
	}{
		{name: "approve", id: cr.ID, body: statusChange{Status: "approved", Actor: "bob"}, want: http.StatusOK, status: model.ChangeRequestApproved},
		{name: "invalid status", id: cr.ID, body: statusChange{Status: "shipped"}, want: http.StatusBadRequest},
		{name: "unknown id", id: "nope", body: statusChange{Status: "Approved"}, want: http.StatusNotFound},
		{name: "malformed", id: cr.ID, body: "[", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPut, "/api/change-requests/"+tt.id+"/status", tt.body)
			expectStatus(t, rec, tt.want)
			if tt.status != "" {
				got := decodeBody[model.ChangeRequest](t, rec)
				if got.Status != tt.status || got.ApprovedBy != "bob" || got.ApprovedAt == nil {
					t.Errorf("unexpected change request %+v", got)
				}
			}
		})
	}
}

func TestOcelotAndValidate(t *testing.T) {
	e := newTestEnv(t)
	env, _, _ := e.seed(true)

	rec := e.do(http.MethodGet, "/api/environments/"+env.ID+"/ocelot", nil)
	expectStatus(t, rec, http.StatusOK)
	doc := decodeBody[map[string]any](t, rec)
	routes, _ := doc["Routes"].([]any)
	if len(routes) != 1 {
		t.Fatalf("Routes = %v, want one route", doc["Routes"])
	}
	global, _ := doc["GlobalConfiguration"].(map[string]any)
	if global["BaseUrl"] != "https://dev.example.com" {
		t.Errorf("BaseUrl = %v", global["BaseUrl"])
	}

	rec = e.do(http.MethodGet, "/api/environments/missing/ocelot", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = e.do(http.MethodGet, "/api/environments/"+env.ID+"/validate", nil)
	expectStatus(t, rec, http.StatusOK)
	report := decodeBody[map[string]any](t, rec)
	if report["isValid"] != true || report["configHash"] == "" {
		t.Errorf("unexpected report %v", report)
	}

	rec = e.do(http.MethodGet, "/api/environments/missing/validate", nil)
	expectStatus(t, rec, http.StatusOK)
	report = decodeBody[map[string]any](t, rec)
	if report["isValid"] != false {
		t.Errorf("expected invalid report for unknown environment, got %v", report)
	}
}

func TestPublish(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		e := newTestEnv(t)
		env, _, _ := e.seed(true)

		rec := e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", map[string]any{"actor": "carol", "targetNodes": []string{}})
		expectStatus(t, rec, http.StatusOK)
		got := decodeBody[model.PublishRecord](t, rec)
		if got.Status != model.PublishSucceeded || got.PublishedBy != "carol" || got.ConfigHash == "" {
			t.Errorf("unexpected record %+v", got)
		}
		if _, err := os.Stat(e.writer.Path(env.ID)); err != nil {
			t.Errorf("published file missing: %v", err)
		}
	})

	t.Run("validation failure is 200", func(t *testing.T) {
		e := newTestEnv(t)
		env, _, _ := e.seed(false)

		rec := e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
		expectStatus(t, rec, http.StatusOK)
		got := decodeBody[model.PublishRecord](t, rec)
		if got.Status != model.PublishFailed || got.Result != publisher.ResultValidationFailed || got.ConfigHash != "" {
			t.Errorf("unexpected record %+v", got)
		}
		if len(got.ValidationIssues) == 0 {
			t.Error("expected validation issues on the record")
		}
	})

	t.Run("empty upstream is rejected", func(t *testing.T) {
		e := newTestEnv(t)
		rec := e.do(http.MethodPost, "/api/environments", map[string]any{"name": "dev"})
		expectStatus(t, rec, http.StatusOK)
		env := decodeBody[model.Environment](t, rec)
		rec = e.do(http.MethodPost, "/api/routes", map[string]any{
			"environmentId":          env.ID,
			"upstreamPathTemplate":   "",
			"downstreamPathTemplate": "/orders",
			"downstreamHostAndPorts": []map[string]any{{"host": "orders", "port": 80}},
		})
		expectStatus(t, rec, http.StatusOK)

		rec = e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
		expectStatus(t, rec, http.StatusOK)
		got := decodeBody[model.PublishRecord](t, rec)
		if got.Status != model.PublishFailed {
			t.Fatalf("Status = %q, want Failed", got.Status)
		}
		codes := make([]string, 0, len(got.ValidationIssues))
		for _, issue := range got.ValidationIssues {
			codes = append(codes, issue.Code)
		}
		if !slices.Contains(codes, "UPSTREAM_REQUIRED") {
			t.Errorf("issue codes = %v, want UPSTREAM_REQUIRED", codes)
		}
		if _, err := os.Stat(e.writer.Path(env.ID)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected no published file, got err=%v", err)
		}
	})

	t.Run("write failure is 500", func(t *testing.T) {
		e := newTestEnv(t)
		env, _, _ := e.seed(true)
		if err := os.WriteFile(e.writer.Root(), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}

		rec := e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
		expectStatus(t, rec, http.StatusInternalServerError)
		history := e.store.PublishHistory()
		if len(history) != 1 || history[0].Status != model.PublishFailed {
			t.Errorf("expected one failed record, got %+v", history)
		}
	})
}

func TestHistoryNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	env, _, _ := e.seed(true)

	for range 3 {
		rec := e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
		expectStatus(t, rec, http.StatusOK)
		time.Sleep(2 * time.Millisecond)
	}

	for _, path := range []string{"/api/publish-history", "/api/environments/" + env.ID + "/publish-history"} {
		rec := e.do(http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusOK)
		records := decodeBody[[]model.PublishRecord](t, rec)
		if len(records) != 3 {
			t.Fatalf("%s: records = %d, want 3", path, len(records))
		}
		for i := 1; i < len(records); i++ {
			if records[i].PublishedAt.After(records[i-1].PublishedAt) {
				t.Errorf("%s: records not newest first", path)
			}
		}
		// the newest publish points back at the previous success
		if records[0].RollbackReference != records[1].ID {
			t.Errorf("%s: RollbackReference = %q, want %q", path, records[0].RollbackReference, records[1].ID)
		}
	}

	rec := e.do(http.MethodGet, "/api/environments/missing/publish-history", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = e.do(http.MethodGet, "/api/audit-logs", nil)
	expectStatus(t, rec, http.StatusOK)
	entries := decodeBody[[]model.AuditLogEntry](t, rec)
	if len(entries) != len(e.store.AuditLogs()) {
		t.Fatalf("audit entries = %d, want %d", len(entries), len(e.store.AuditLogs()))
	}
	if entries[0].Action != "Publish" {
		t.Errorf("newest entry action = %q, want Publish", entries[0].Action)
	}
}

func TestAuditLogFilters(t *testing.T) {
	e := newTestEnv(t)
	e.seed(true)

	tests := []struct {
		name  string
		query string
		want  int
		code  int
	}{
		{name: "entity type", query: "?entityType=route", want: 1, code: http.StatusOK},
		{name: "limit", query: "?limit=2", want: 2, code: http.StatusOK},
		{name: "actor", query: "?actor=nobody", want: 0, code: http.StatusOK},
		{name: "bad limit", query: "?limit=-1", code: http.StatusBadRequest},
		{name: "bad since", query: "?since=yesterday", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodGet, "/api/audit-logs"+tt.query, nil)
			expectStatus(t, rec, tt.code)
			if tt.code != http.StatusOK {
				return
			}
			if got := decodeBody[[]model.AuditLogEntry](t, rec); len(got) != tt.want {
				t.Errorf("entries = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDrift(t *testing.T) {
	e := newTestEnv(t)
	env, _, _ := e.seed(true)

	rec := e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = e.do(http.MethodGet, "/api/environments/"+env.ID+"/drift", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[drift.Report](t, rec); got.Drifted() {
		t.Errorf("expected no drift after publish, got %+v", got)
	}

	if err := os.WriteFile(e.writer.Path(env.ID), []byte(`{"Routes":[]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	rec = e.do(http.MethodGet, "/api/environments/"+env.ID+"/drift", nil)
	if got := decodeBody[drift.Report](t, rec); !got.Tampered {
		t.Errorf("expected tampering, got %+v", got)
	}

	rec = e.do(http.MethodGet, "/api/environments/missing/drift", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestImportOcelot(t *testing.T) {
	e := newTestEnv(t)
	doc := `{
  "Routes": [
    {"UpstreamPathTemplate": "/a", "DownstreamPathTemplate": "/a", "DownstreamHostAndPorts": [{"Host": "svc", "Port": 80}]},
    {"UpstreamPathTemplate": "/b", "DownstreamPathTemplate": "/b", "DownstreamHostAndPorts": [{"Host": "svc", "Port": 80}]}
  ],
  "GlobalConfiguration": {"BaseUrl": "https://gw.example.com"}
}`

	rec := e.do(http.MethodPost, "/api/import/ocelot?environmentName=legacy", doc)
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[map[string]any](t, rec)
	if got["success"] != true || got["routesImported"] != float64(2) || got["servicesCreated"] != float64(1) {
		t.Errorf("unexpected result %v", got)
	}
	envs := e.store.Environments()
	if len(envs) != 1 || envs[0].Name != "legacy" {
		t.Errorf("unexpected environments %+v", envs)
	}

	rec = e.do(http.MethodPost, "/api/import/ocelot", "not json")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestOverview(t *testing.T) {
	e := newTestEnv(t)
	env, _, _ := e.seed(true)
	e.do(http.MethodPost, "/api/change-requests", map[string]any{"environmentId": env.ID, "title": "a"})
	for range 7 {
		e.do(http.MethodPost, "/api/environments/"+env.ID+"/publish", nil)
	}

	rec := e.do(http.MethodGet, "/api/observability/overview", nil)
	expectStatus(t, rec, http.StatusOK)
	ov := decodeBody[Overview](t, rec)
	if ov.Environments != 1 || ov.Services != 1 || ov.Routes != 1 {
		t.Errorf("unexpected counts %+v", ov)
	}
	if ov.ChangeRequests[model.ChangeRequestDraft] != 1 {
		t.Errorf("ChangeRequests = %v", ov.ChangeRequests)
	}
	if len(ov.LastPublishes) != overviewPublishes {
		t.Errorf("LastPublishes = %d, want %d", len(ov.LastPublishes), overviewPublishes)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/version", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := e.do(http.MethodGet, tt.path, nil)
			expectStatus(t, rec, tt.want)
		})
	}

	rec := e.do(http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), "gatecontrol_http_requests_total") {
		t.Error("metrics output should include HTTP request counters")
	}
}

func TestBodyLimit(t *testing.T) {
	e := newTestEnv(t)
	big := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := e.do(http.MethodPost, "/api/environments", big)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)
}
