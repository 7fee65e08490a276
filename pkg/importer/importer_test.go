package importer

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	snap, err := store.NewFileSnapshotter(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("NewFileSnapshotter() failed: %v", err)
	}
	s, err := store.New(context.Background(), snap)
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}
	return s
}

const sampleDocument = `{
  "Routes": [
    {
      "DownstreamPathTemplate": "/api/orders/{everything}",
      "DownstreamScheme": "http",
      "DownstreamHostAndPorts": [{"Host": "orders-service.local", "Port": 8080}],
      "UpstreamPathTemplate": "/orders/{everything}",
      "UpstreamHttpMethod": ["GET", "POST"],
      "AuthenticationOptions": {"AuthenticationProviderKey": "Bearer", "AllowedScopes": ["orders"]},
      "RateLimitOptions": {"EnableRateLimiting": true, "Period": "1m"},
      "FileCacheOptions": {"TtlSeconds": 30}
    },
    {
      "DownstreamPathTemplate": "/api/orders/{id}",
      "DownstreamHostAndPorts": [{"Host": "orders-service.local", "Port": 8080}],
      "UpstreamPathTemplate": "/orders/{id}",
      "RouteKey": "order-by-id",
      "Priority": 3,
      "RateLimitOptions": {"EnableRateLimiting": false, "Limit": 5},
      "CacheOptions": {"TtlSeconds": 0}
    },
    {
      "DownstreamPathTemplate": "/",
      "UpstreamPathTemplate": "/inventory",
      "ServiceName": "inventory-api"
    },
    {
      "DownstreamPathTemplate": "/",
      "UpstreamPathTemplate": "/stock",
      "ServiceName": "inventory-api"
    },
    null,
    {"UpstreamPathTemplate": 42}
  ],
  "GlobalConfiguration": {
    "BaseUrl": "https://gateway.example.com",
    "ServiceDiscoveryProvider": {"Type": "Consul"}
  }
}`

func TestImport(t *testing.T) {
	s := newStore(t)
	im := New(s)

	result, err := im.Import(context.Background(), []byte(sampleDocument), "legacy")
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if !result.EnvironmentCreated || result.EnvironmentID == "" {
		t.Errorf("environment not reported: %+v", result)
	}
	if result.RoutesImported != 4 {
		t.Errorf("expected 4 routes, got %d", result.RoutesImported)
	}
	if result.ServicesCreated != 2 {
		t.Errorf("expected 2 services, got %d", result.ServicesCreated)
	}
	if len(result.Errors) != 1 || result.Success() {
		t.Errorf("expected one route error, got %v", result.Errors)
	}

	env, ok := s.Environment(result.EnvironmentID)
	if !ok {
		t.Fatal("environment not stored")
	}
	if env.Name != "legacy" || env.BaseURL != "https://gateway.example.com" || env.DiscoveryProviderType != "Consul" {
		t.Errorf("unexpected environment: %+v", env)
	}

	view, _ := s.EnvironmentView(env.ID)
	first := view.Routes[0]
	if first.RouteKey != "orders-everything" {
		t.Errorf("unexpected derived route key %q", first.RouteKey)
	}
	if auth, ok := first.Policies.Auth.Get(); !ok || auth.Scheme != "Bearer" {
		t.Errorf("auth policy not imported: %+v", first.Policies.Auth)
	}
	if rl, ok := first.Policies.RateLimit.Get(); !ok || rl.Limit != DefaultRateLimit || rl.Period != "1m" {
		t.Errorf("rate limit not imported with default limit: %+v", first.Policies.RateLimit)
	}
	if c, ok := first.Policies.Cache.Get(); !ok || c.TTLSeconds != 30 {
		t.Errorf("file cache options not imported: %+v", first.Policies.Cache)
	}
	if len(first.UpstreamMethods) != 2 {
		t.Errorf("expected 2 methods, got %v", first.UpstreamMethods)
	}

	second := view.Routes[1]
	if second.RouteKey != "order-by-id" || second.Priority != 3 {
		t.Errorf("unexpected second route: %+v", second)
	}
	if second.UpstreamMethods[0] != "GET" || second.DownstreamScheme != "https" {
		t.Errorf("defaults not applied: %+v", second)
	}
	if second.Policies.RateLimit.IsPresent() || second.Policies.Cache.IsPresent() {
		t.Error("disabled rate limit and zero ttl must stay absent")
	}
	if second.DownstreamServiceID != first.DownstreamServiceID {
		t.Error("same host:port should share one service")
	}

	svc, ok := view.Service(first.DownstreamServiceID)
	if !ok {
		t.Fatal("host service not created")
	}
	if svc.Name != "Orders Service" || svc.DefaultScheme != "http" || svc.Tags[0] != "imported" {
		t.Errorf("unexpected host service: %+v", svc)
	}

	sd, ok := view.Service(view.Routes[2].DownstreamServiceID)
	if !ok || !sd.UseServiceDiscovery || sd.ServiceDiscoveryName != "inventory-api" || len(sd.Tags) != 2 {
		t.Errorf("unexpected discovery service: %+v", sd)
	}
	if view.Routes[3].DownstreamServiceID != sd.ID {
		t.Error("same discovery name should share one service")
	}
	if view.Routes[2].DownstreamHostAndPorts != nil {
		t.Error("discovery route should not carry explicit hosts")
	}
}

func TestImport_Defaults(t *testing.T) {
	s := newStore(t)
	result, err := New(s).Import(context.Background(), []byte(`{"reroutes":[{"downstreamHostAndPorts":[{"host":"api.internal","port":443}]}]}`), "")
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if result.RoutesImported != 1 {
		t.Fatalf("expected legacy ReRoutes to import, got %+v", result)
	}

	env, _ := s.Environment(result.EnvironmentID)
	if env.Name != DefaultEnvironmentName || env.BaseURL != DefaultBaseURL || env.DiscoveryProviderType != model.DefaultDiscoveryProviderType {
		t.Errorf("unexpected defaults: %+v", env)
	}
	svc := s.Services()[0]
	if svc.DefaultScheme != "https" || svc.Name != "Api" {
		t.Errorf("unexpected service: %+v", svc)
	}
	r := s.Routes()[0]
	if r.UpstreamPathTemplate != "/" || r.DownstreamPathTemplate != "/" {
		t.Errorf("expected path defaults, got %+v", r)
	}
}

func TestImport_NoRoutes(t *testing.T) {
	s := newStore(t)
	result, err := New(s).Import(context.Background(), []byte(`{"GlobalConfiguration":{}}`), "x")
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "No Routes found in configuration" {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if !result.EnvironmentCreated {
		t.Error("environment is created even without routes")
	}
}

func TestImport_Malformed(t *testing.T) {
	tests := []string{`{"Routes": [`, `[1,2]`, `null`, `"text"`}
	for _, input := range tests {
		_, err := New(newStore(t)).Import(context.Background(), []byte(input), "")
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("Import(%q): expected ErrMalformedInput, got %v", input, err)
		}
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Result{RoutesImported: 2})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if got["success"] != true {
		t.Errorf("expected success=true, got %v", got["success"])
	}
	if errs, ok := got["errors"].([]any); !ok || len(errs) != 0 {
		t.Errorf("expected empty errors array, got %v", got["errors"])
	}
}

func TestHelpers(t *testing.T) {
	names := map[string]string{
		"orders-service.local": "Orders Service",
		"api":                  "Api",
		"IAM-gateway":          "IAM Gateway",
	}
	for in, want := range names {
		if got := ServiceName(in); got != want {
			t.Errorf("ServiceName(%q) = %q, want %q", in, got, want)
		}
	}

	keys := map[string]string{
		"/api/orders/{everything}": "api-orders",
		"/{catchAll}":              "catchall",
		"/":                        "",
	}
	for in, want := range keys {
		if got := RouteKey(in); got != want {
			t.Errorf("RouteKey(%q) = %q, want %q", in, got, want)
		}
	}
}
