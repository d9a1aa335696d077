package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegistryConfig represents the configuration structure for the model registry.
// This is the format used in fwexpert.yaml under "model_registry".
type RegistryConfig struct {
	Capabilities map[string]*CapabilityConfig `json:"capabilities" yaml:"capabilities"`
	Endpoints    map[string]*EndpointConfig   `json:"endpoints" yaml:"endpoints"`
	Defaults     *DefaultsConfig              `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// LoadFromFile loads a registry configuration from a YAML file.
// The file may contain a "model_registry" key or the registry config directly.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a registry from YAML data.
// Accepts either a full config with "model_registry" key or just the registry config.
func LoadFromYAML(data []byte) (*Registry, error) {
	// First try to parse as a full config with model_registry key
	var fullConfig struct {
		ModelRegistry *RegistryConfig `yaml:"model_registry"`
	}
	if err := yaml.Unmarshal(data, &fullConfig); err == nil && fullConfig.ModelRegistry != nil {
		return RegistryFromConfig(fullConfig.ModelRegistry), nil
	}

	// Try parsing as just the registry config
	var regConfig RegistryConfig
	if err := yaml.Unmarshal(data, &regConfig); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}

	return RegistryFromConfig(&regConfig), nil
}

// RegistryFromConfig converts a RegistryConfig to a Registry.
func RegistryFromConfig(cfg *RegistryConfig) *Registry {
	// Convert string keys to Capability type
	caps := make(map[Capability]*CapabilityConfig, len(cfg.Capabilities))
	for k, v := range cfg.Capabilities {
		cap := ParseCapability(k)
		if cap == "" {
			// Use the string directly as capability for unknown types
			cap = Capability(k)
		}
		caps[cap] = v
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = &DefaultsConfig{Model: "default"}
	}

	return &Registry{
		capabilities: caps,
		endpoints:    cfg.Endpoints,
		defaults:     defaults,
	}
}

// ToConfig converts a Registry to a RegistryConfig for serialization.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]*CapabilityConfig, len(r.capabilities))
	for k, v := range r.capabilities {
		caps[string(k)] = v
	}

	return &RegistryConfig{
		Capabilities: caps,
		Endpoints:    r.endpoints,
		Defaults:     r.defaults,
	}
}

// MergeFromConfig merges configuration into an existing registry.
// Existing entries are overwritten by the new config.
func (r *Registry) MergeFromConfig(cfg *RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capabilities == nil {
		r.capabilities = make(map[Capability]*CapabilityConfig)
	}
	if r.endpoints == nil {
		r.endpoints = make(map[string]*EndpointConfig)
	}

	for k, v := range cfg.Capabilities {
		cap := ParseCapability(k)
		if cap == "" {
			cap = Capability(k)
		}
		r.capabilities[cap] = v
	}

	for k, v := range cfg.Endpoints {
		r.endpoints[k] = v
	}

	if cfg.Defaults != nil {
		r.defaults = cfg.Defaults
	}
}
