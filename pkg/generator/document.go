package generator

// RequestIDHeader is the correlation header written into every document.
const RequestIDHeader = "X-Correlation-ID"

// Document is the root of an ocelot.json configuration.
type Document struct {
	Routes              []Route             `json:"Routes"`
	GlobalConfiguration GlobalConfiguration `json:"GlobalConfiguration"`
}

// Route is one gateway route.
type Route struct {
	DownstreamPathTemplate string                 `json:"DownstreamPathTemplate"`
	DownstreamScheme       string                 `json:"DownstreamScheme"`
	DownstreamHostAndPorts []HostAndPort          `json:"DownstreamHostAndPorts"`
	UpstreamPathTemplate   string                 `json:"UpstreamPathTemplate"`
	UpstreamHTTPMethod     []string               `json:"UpstreamHttpMethod"`
	Priority               int                    `json:"Priority"`
	RequestIDKey           string                 `json:"RequestIdKey,omitempty"`
	AuthenticationOptions  *AuthenticationOptions `json:"AuthenticationOptions,omitempty"`
	RateLimitOptions       *RateLimitOptions      `json:"RateLimitOptions,omitempty"`
	CacheOptions           *CacheOptions          `json:"CacheOptions,omitempty"`
}

// HostAndPort is a downstream endpoint.
type HostAndPort struct {
	Host string `json:"Host"`
	Port int    `json:"Port"`
}

// AuthenticationOptions requires an authenticated caller.
type AuthenticationOptions struct {
	AuthenticationProviderKey string   `json:"AuthenticationProviderKey"`
	AllowedScopes             []string `json:"AllowedScopes"`
}

// RateLimitOptions limits request rate.
type RateLimitOptions struct {
	EnableRateLimiting bool   `json:"EnableRateLimiting"`
	Period             string `json:"Period"`
	Limit              int    `json:"Limit"`
}

// CacheOptions enables response caching.
type CacheOptions struct {
	TTLSeconds int `json:"TtlSeconds"`
}

// GlobalConfiguration holds gateway-wide settings.
type GlobalConfiguration struct {
	BaseURL      string `json:"BaseUrl"`
	RequestIDKey string `json:"RequestIdKey"`
}
