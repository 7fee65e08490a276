package model

import (
	"encoding/json"
	"slices"
)

// DefaultDiscoveryProviderType is the discovery provider for new environments.
const DefaultDiscoveryProviderType = "static"

// Environment is a deployment target such as dev, staging or prod. It owns
// services and routes by foreign key.
type Environment struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	BaseURL               string          `json:"baseUrl"`
	DiscoveryProviderType string          `json:"discoveryProviderType"`
	SettingsJSON          json.RawMessage `json:"settingsJson,omitempty"`
}

// NewEnvironment returns an Environment with default settings.
func NewEnvironment() Environment {
	return Environment{
		DiscoveryProviderType: DefaultDiscoveryProviderType,
		SettingsJSON:          json.RawMessage("{}"),
	}
}

// GetID implements Entity.
func (e Environment) GetID() string { return e.ID }

// Clone returns a deep copy.
func (e Environment) Clone() Environment {
	e.SettingsJSON = slices.Clone(e.SettingsJSON)
	return e
}

// EnvironmentView is a consistent snapshot of one environment with the
// services and routes that belong to it, in insertion order.
type EnvironmentView struct {
	Environment Environment
	Services    []Service
	Routes      []Route
}

// Service returns the service with the given id if it belongs to the view.
func (v EnvironmentView) Service(id string) (Service, bool) {
	return Find(v.Services, id)
}
