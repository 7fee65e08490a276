package model

import "slices"

// DefaultRoutePriority is the priority of new routes.
const DefaultRoutePriority = 1

// Route maps an upstream request pattern to a downstream target.
//
// A route resolves its downstream target either through DownstreamServiceID
// or through an explicit DownstreamHostAndPorts list. A nil list means "not
// set" and is preserved as JSON null; an empty list is kept distinct.
type Route struct {
	ID                     string        `json:"id"`
	EnvironmentID          string        `json:"environmentId"`
	RouteKey               string        `json:"routeKey"`
	Description            string        `json:"description"`
	IsActive               bool          `json:"isActive"`
	UpstreamPathTemplate   string        `json:"upstreamPathTemplate"`
	UpstreamMethods        []string      `json:"upstreamMethods"`
	DownstreamPathTemplate string        `json:"downstreamPathTemplate"`
	DownstreamScheme       string        `json:"downstreamScheme"`
	DownstreamServiceID    string        `json:"downstreamServiceId,omitempty"`
	DownstreamHostAndPorts []HostAndPort `json:"downstreamHostAndPorts"`
	Priority               int           `json:"priority"`
	RequestIDKey           string        `json:"requestIdKey,omitempty"`
	Policies               RoutePolicies `json:"policies"`
}

// RoutePolicies groups the optional per-route policies. Each one is either
// present or absent and is never defaulted.
type RoutePolicies struct {
	Auth      Optional[AuthPolicy]      `json:"auth,omitzero"`
	RateLimit Optional[RateLimitPolicy] `json:"rateLimit,omitzero"`
	Cache     Optional[CachePolicy]     `json:"cache,omitzero"`
}

// DefaultAuthScheme is the scheme of an AuthPolicy built with NewAuthPolicy.
const DefaultAuthScheme = "oidc"

// AuthPolicy requires an authenticated caller.
type AuthPolicy struct {
	Scheme        string   `json:"scheme"`
	AllowedScopes []string `json:"allowedScopes"`
}

// NewAuthPolicy returns an AuthPolicy using the default scheme.
func NewAuthPolicy(scopes ...string) AuthPolicy {
	if scopes == nil {
		scopes = []string{}
	}
	return AuthPolicy{Scheme: DefaultAuthScheme, AllowedScopes: scopes}
}

// RateLimitPolicy limits request rate per client.
type RateLimitPolicy struct {
	EnableRateLimiting bool   `json:"enableRateLimiting"`
	Period             string `json:"period"`
	Limit              int    `json:"limit"`
}

// CachePolicy enables response caching.
type CachePolicy struct {
	TTLSeconds int `json:"ttlSeconds"`
}

// NewRoute returns an active Route with default scheme, priority and methods.
func NewRoute() Route {
	return Route{
		IsActive:         true,
		UpstreamMethods:  []string{"GET"},
		DownstreamScheme: DefaultScheme,
		Priority:         DefaultRoutePriority,
	}
}

// GetID implements Entity.
func (r Route) GetID() string { return r.ID }

// Clone returns a deep copy.
func (r Route) Clone() Route {
	r.UpstreamMethods = slices.Clone(r.UpstreamMethods)
	r.DownstreamHostAndPorts = slices.Clone(r.DownstreamHostAndPorts)
	if auth, ok := r.Policies.Auth.Get(); ok {
		auth.AllowedScopes = slices.Clone(auth.AllowedScopes)
		r.Policies.Auth = Some(auth)
	}
	return r
}
