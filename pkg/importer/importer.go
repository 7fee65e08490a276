// Package importer turns an existing Ocelot configuration document into
// control-plane entities: one new environment, one service per distinct
// downstream host:port or discovery name, and one route per document route.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// ErrMalformedInput is returned when the document is not a JSON object.
var ErrMalformedInput = errors.New("malformed ocelot document")

// Defaults applied to values missing from the imported document.
const (
	DefaultEnvironmentName = "Imported"
	DefaultBaseURL         = "http://localhost:5000"
	DefaultRateLimit       = 100
	defaultHost            = "localhost"
	defaultPort            = 80
)

// Store is the part of the entity store the importer writes to.
type Store interface {
	UpsertEnvironment(ctx context.Context, env model.Environment) (model.Environment, error)
	UpsertService(ctx context.Context, svc model.Service) (model.Service, error)
	UpsertRoute(ctx context.Context, route model.Route) (model.Route, error)
}

// Result summarizes an import.
type Result struct {
	EnvironmentCreated bool     `json:"environmentCreated"`
	EnvironmentID      string   `json:"environmentId,omitempty"`
	RoutesImported     int      `json:"routesImported"`
	ServicesCreated    int      `json:"servicesCreated"`
	Errors             []string `json:"errors"`
}

// Success reports whether the import finished without errors.
func (r Result) Success() bool { return len(r.Errors) == 0 }

// MarshalJSON includes the derived success flag.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	p := plain(r)
	if p.Errors == nil {
		p.Errors = []string{}
	}
	return json.Marshal(struct {
		plain
		Success bool `json:"success"`
	}{p, r.Success()})
}

// Importer imports Ocelot documents into a Store.
type Importer struct {
	store  Store
	logger *slog.Logger
}

// New creates an Importer.
func New(store Store) *Importer {
	return &Importer{
		store:  store,
		logger: slog.Default().With("component", "importer"),
	}
}

// document mirrors the parts of ocelot.json the importer reads. Field
// matching is case-insensitive.
type document struct {
	Routes              []json.RawMessage `json:"Routes"`
	ReRoutes            []json.RawMessage `json:"ReRoutes"`
	GlobalConfiguration *struct {
		BaseURL                  *string `json:"BaseUrl"`
		ServiceDiscoveryProvider *struct {
			Type *string `json:"Type"`
		} `json:"ServiceDiscoveryProvider"`
	} `json:"GlobalConfiguration"`
}

type hostAndPort struct {
	Host *string `json:"Host"`
	Port *int    `json:"Port"`
}

type cacheOptions struct {
	TTLSeconds int `json:"TtlSeconds"`
}

type route struct {
	UpstreamPathTemplate   *string        `json:"UpstreamPathTemplate"`
	DownstreamPathTemplate *string        `json:"DownstreamPathTemplate"`
	UpstreamHTTPMethod     []*string      `json:"UpstreamHttpMethod"`
	DownstreamHostAndPorts []*hostAndPort `json:"DownstreamHostAndPorts"`
	DownstreamScheme       *string        `json:"DownstreamScheme"`
	ServiceName            string         `json:"ServiceName"`
	RouteKey               *string        `json:"RouteKey"`
	Priority               *int           `json:"Priority"`
	RequestIDKey           string         `json:"RequestIdKey"`
	AuthenticationOptions  *struct {
		AuthenticationProviderKey string    `json:"AuthenticationProviderKey"`
		AllowedScopes             []*string `json:"AllowedScopes"`
	} `json:"AuthenticationOptions"`
	RateLimitOptions *struct {
		EnableRateLimiting bool   `json:"EnableRateLimiting"`
		Period             string `json:"Period"`
		Limit              *int   `json:"Limit"`
	} `json:"RateLimitOptions"`
	FileCacheOptions *cacheOptions `json:"FileCacheOptions"`
	CacheOptions     *cacheOptions `json:"CacheOptions"`
}

// Import parses data and creates the entities it describes. environmentName
// defaults to "Imported". Problems with individual routes are collected in
// Result.Errors; only a malformed document or a store failure is an error.
func (im *Importer) Import(ctx context.Context, data []byte, environmentName string) (Result, error) {
	result := Result{Errors: []string{}}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return result, fmt.Errorf("%w: document is null", ErrMalformedInput)
	}

	if environmentName == "" {
		environmentName = DefaultEnvironmentName
	}
	env, err := im.store.UpsertEnvironment(ctx, environmentFrom(doc, environmentName))
	if err != nil {
		return result, err
	}
	result.EnvironmentID = env.ID
	result.EnvironmentCreated = true

	routes := doc.Routes
	if routes == nil {
		routes = doc.ReRoutes
	}
	if len(routes) == 0 {
		result.Errors = append(result.Errors, "No Routes found in configuration")
		return result, nil
	}

	services := map[string]string{}
	for _, raw := range routes {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		r, err := im.parseRoute(ctx, raw, env.ID, services)
		if err != nil {
			result.Errors = append(result.Errors, "Failed to parse route: "+err.Error())
			continue
		}
		if _, err := im.store.UpsertRoute(ctx, r); err != nil {
			return result, err
		}
		result.RoutesImported++
	}
	result.ServicesCreated = len(services)

	im.logger.InfoContext(ctx, "ocelot document imported",
		"environment", env.ID,
		"routes", result.RoutesImported,
		"services", result.ServicesCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

func environmentFrom(doc document, name string) model.Environment {
	env := model.NewEnvironment()
	env.Name = name
	env.BaseURL = DefaultBaseURL
	if g := doc.GlobalConfiguration; g != nil {
		if g.BaseURL != nil {
			env.BaseURL = *g.BaseURL
		}
		if sd := g.ServiceDiscoveryProvider; sd != nil && sd.Type != nil && *sd.Type != "" {
			env.DiscoveryProviderType = *sd.Type
		}
	}
	return env
}

// parseRoute decodes one route. services maps "host:port" and
// "sd:<name>" keys to the ids of services created during this import.
func (im *Importer) parseRoute(ctx context.Context, raw json.RawMessage, envID string, services map[string]string) (model.Route, error) {
	var src route
	if err := json.Unmarshal(raw, &src); err != nil {
		return model.Route{}, err
	}

	r := model.NewRoute()
	r.EnvironmentID = envID
	r.Description = "Imported from Ocelot config"
	r.UpstreamPathTemplate = stringOr(src.UpstreamPathTemplate, "/")
	r.DownstreamPathTemplate = stringOr(src.DownstreamPathTemplate, "/")
	r.DownstreamScheme = stringOr(src.DownstreamScheme, model.DefaultScheme)
	r.RequestIDKey = src.RequestIDKey
	if src.Priority != nil {
		r.Priority = *src.Priority
	}

	methods := compact(src.UpstreamHTTPMethod)
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	r.UpstreamMethods = methods

	switch {
	case len(src.DownstreamHostAndPorts) > 0:
		var hosts []model.HostAndPort
		for _, hp := range src.DownstreamHostAndPorts {
			if hp == nil {
				continue
			}
			h := model.HostAndPort{Host: stringOr(hp.Host, defaultHost), Port: defaultPort}
			if hp.Port != nil {
				h.Port = *hp.Port
			}
			hosts = append(hosts, h)

			key := h.Host + ":" + strconv.Itoa(h.Port)
			if _, ok := services[key]; !ok {
				svc, err := im.store.UpsertService(ctx, serviceFromHost(h, envID))
				if err != nil {
					return model.Route{}, err
				}
				services[key] = svc.ID
			}
			r.DownstreamServiceID = services[key]
		}
		if len(hosts) > 0 {
			r.DownstreamHostAndPorts = hosts
		}
	case src.ServiceName != "":
		key := "sd:" + src.ServiceName
		if _, ok := services[key]; !ok {
			svc, err := im.store.UpsertService(ctx, serviceFromDiscovery(src.ServiceName, envID))
			if err != nil {
				return model.Route{}, err
			}
			services[key] = svc.ID
		}
		r.DownstreamServiceID = services[key]
	}

	if a := src.AuthenticationOptions; a != nil && a.AuthenticationProviderKey != "" {
		r.Policies.Auth = model.Some(model.AuthPolicy{
			Scheme:        a.AuthenticationProviderKey,
			AllowedScopes: compact(a.AllowedScopes),
		})
	}
	if rl := src.RateLimitOptions; rl != nil && rl.EnableRateLimiting {
		limit := DefaultRateLimit
		if rl.Limit != nil {
			limit = *rl.Limit
		}
		r.Policies.RateLimit = model.Some(model.RateLimitPolicy{
			EnableRateLimiting: true,
			Period:             rl.Period,
			Limit:              limit,
		})
	}
	cache := src.FileCacheOptions
	if cache == nil {
		cache = src.CacheOptions
	}
	if cache != nil && cache.TTLSeconds > 0 {
		r.Policies.Cache = model.Some(model.CachePolicy{TTLSeconds: cache.TTLSeconds})
	}

	if src.RouteKey != nil {
		r.RouteKey = *src.RouteKey
	} else {
		r.RouteKey = RouteKey(r.UpstreamPathTemplate)
	}
	return r, nil
}

func serviceFromHost(h model.HostAndPort, envID string) model.Service {
	svc := model.NewService()
	svc.EnvironmentID = envID
	svc.Name = ServiceName(h.Host)
	svc.DefaultScheme = "http"
	if h.Port == 443 {
		svc.DefaultScheme = "https"
	}
	svc.Hosts = []model.HostAndPort{h}
	svc.Tags = []string{"imported"}
	return svc
}

func serviceFromDiscovery(name, envID string) model.Service {
	svc := model.NewService()
	svc.EnvironmentID = envID
	svc.Name = ServiceName(name)
	svc.UseServiceDiscovery = true
	svc.ServiceDiscoveryName = name
	svc.Tags = []string{"imported", "service-discovery"}
	return svc
}

// ServiceName derives a display name from a host: "orders-service.local"
// becomes "Orders Service".
func ServiceName(host string) string {
	label, _, _ := strings.Cut(host, ".")
	words := strings.Fields(strings.ReplaceAll(label, "-", " "))
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// titleWord upper-cases the first letter and lower-cases the rest. Words
// written entirely in capitals are kept as acronyms.
func titleWord(w string) string {
	if w == strings.ToUpper(w) && w != strings.ToLower(w) {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// RouteKey derives a key from the first two segments of an upstream path:
// "/api/orders/{everything}" becomes "api-orders".
func RouteKey(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	key := strings.Join(segments, "-")
	key = strings.NewReplacer("{", "", "}", "").Replace(key)
	return strings.ToLower(key)
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func compact(items []*string) []string {
	out := []string{}
	for _, s := range items {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}
