package model

import "slices"

// DefaultScheme is the scheme used for services and routes unless set.
const DefaultScheme = "https"

// HostAndPort is a single downstream endpoint.
type HostAndPort struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Service is a named downstream backend.
type Service struct {
	ID            string        `json:"id"`
	EnvironmentID string        `json:"environmentId"`
	Name          string        `json:"name"`
	DefaultScheme string        `json:"defaultScheme"`
	Hosts         []HostAndPort `json:"hosts"`
	Tags          []string      `json:"tags"`

	HealthEndpoint string `json:"healthEndpoint,omitempty"`

	// UseServiceDiscovery marks services resolved by the gateway's discovery
	// provider. Hosts may then be empty.
	UseServiceDiscovery  bool   `json:"useServiceDiscovery"`
	ServiceDiscoveryName string `json:"serviceDiscoveryName,omitempty"`
}

// NewService returns a Service with default settings.
func NewService() Service {
	return Service{
		DefaultScheme: DefaultScheme,
		Hosts:         []HostAndPort{},
		Tags:          []string{},
	}
}

// GetID implements Entity.
func (s Service) GetID() string { return s.ID }

// Clone returns a deep copy.
func (s Service) Clone() Service {
	s.Hosts = slices.Clone(s.Hosts)
	s.Tags = slices.Clone(s.Tags)
	return s
}
