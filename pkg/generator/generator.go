package generator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// ErrEnvironmentNotFound is returned by Build for an unknown environment.
var ErrEnvironmentNotFound = fmt.Errorf("environment %w", model.ErrNotFound)

// ViewSource provides consistent snapshots of one environment.
type ViewSource interface {
	EnvironmentView(envID string) (model.EnvironmentView, bool)
}

// Generator builds documents from the live model.
type Generator struct {
	source ViewSource
}

// New creates a Generator reading from source.
func New(source ViewSource) *Generator {
	return &Generator{source: source}
}

// Build compiles the environment with envID.
func (g *Generator) Build(envID string) (*Document, error) {
	view, ok := g.source.EnvironmentView(envID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, envID)
	}
	return Compile(view), nil
}

// Compile translates an environment view into a document. Only active
// routes are emitted, in insertion order.
func Compile(view model.EnvironmentView) *Document {
	doc := &Document{
		Routes: []Route{},
		GlobalConfiguration: GlobalConfiguration{
			BaseURL:      view.Environment.BaseURL,
			RequestIDKey: RequestIDHeader,
		},
	}

	for _, r := range view.Routes {
		if !r.IsActive {
			continue
		}
		doc.Routes = append(doc.Routes, compileRoute(r, view))
	}
	return doc
}

func compileRoute(r model.Route, view model.EnvironmentView) Route {
	out := Route{
		DownstreamPathTemplate: r.DownstreamPathTemplate,
		DownstreamScheme:       r.DownstreamScheme,
		DownstreamHostAndPorts: hostsFor(r, view),
		UpstreamPathTemplate:   r.UpstreamPathTemplate,
		UpstreamHTTPMethod:     nonNil(r.UpstreamMethods),
		Priority:               r.Priority,
		RequestIDKey:           r.RequestIDKey,
	}

	if auth, ok := r.Policies.Auth.Get(); ok {
		out.AuthenticationOptions = &AuthenticationOptions{
			AuthenticationProviderKey: auth.Scheme,
			AllowedScopes:             nonNil(auth.AllowedScopes),
		}
	}
	if rl, ok := r.Policies.RateLimit.Get(); ok {
		out.RateLimitOptions = &RateLimitOptions{
			EnableRateLimiting: rl.EnableRateLimiting,
			Period:             rl.Period,
			Limit:              rl.Limit,
		}
	}
	if cache, ok := r.Policies.Cache.Get(); ok {
		out.CacheOptions = &CacheOptions{TTLSeconds: cache.TTLSeconds}
	}
	return out
}

// hostsFor resolves downstream targets: the route's explicit list when set,
// else the referenced service's hosts, else nothing.
func hostsFor(r model.Route, view model.EnvironmentView) []HostAndPort {
	src := r.DownstreamHostAndPorts
	if src == nil {
		if svc, ok := view.Service(r.DownstreamServiceID); ok {
			src = svc.Hosts
		}
	}
	out := make([]HostAndPort, 0, len(src))
	for _, h := range src {
		out = append(out, HostAndPort{Host: h.Host, Port: h.Port})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

// Marshal returns the canonical serialization of doc.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BuildAndHash compiles envID and returns the serialized document and its
// hash.
func (g *Generator) BuildAndHash(envID string) ([]byte, string, error) {
	doc, err := g.Build(envID)
	if err != nil {
		return nil, "", err
	}
	data, err := Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	return data, Hash(data), nil
}
