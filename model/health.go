package model

import (
	"sync"
	"time"
)

// EndpointHealth is a snapshot of one endpoint's circuit state. The
// analyzer and generator consult this before each call so a dead
// endpoint does not stall an analysis run.
type EndpointHealth struct {
	// Available indicates if the endpoint is currently usable.
	Available bool `json:"available"`

	// LastSuccess is the time of the last successful request.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// LastFailure is the time of the last failed request.
	LastFailure time.Time `json:"last_failure,omitempty"`

	// FailureCount is the number of consecutive failures.
	FailureCount int `json:"failure_count"`

	// CircuitOpen indicates if the circuit breaker has tripped.
	CircuitOpen bool `json:"circuit_open"`

	// CircuitOpenedAt is when the circuit was opened.
	CircuitOpenedAt time.Time `json:"circuit_opened_at,omitempty"`
}

// HealthConfig configures the circuit breaker.
type HealthConfig struct {
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long to wait before trying a failed endpoint again.
	RecoveryTimeout time.Duration

	// HalfOpenRequests is how many test requests to allow when recovering.
	HalfOpenRequests int
}

// DefaultHealthConfig returns sensible defaults for health tracking.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// healthState owns all per-endpoint circuit bookkeeping behind a single
// mutex. Registry methods delegate here.
type healthState struct {
	mu       sync.Mutex
	config   HealthConfig
	statuses map[string]*EndpointHealth
}

func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		statuses: make(map[string]*EndpointHealth),
	}
}

func (h *healthState) markSuccess(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := h.locked(name)
	status.LastSuccess = time.Now()
	status.FailureCount = 0
	status.Available = true
	status.CircuitOpen = false
}

func (h *healthState) markFailure(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := h.locked(name)
	status.LastFailure = time.Now()
	status.FailureCount++

	if status.FailureCount >= h.config.FailureThreshold {
		status.CircuitOpen = true
		status.CircuitOpenedAt = time.Now()
		status.Available = false
	}
}

// available reports whether the endpoint may be tried. An open circuit
// past the recovery timeout admits one half-open probe.
func (h *healthState) available(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	status, ok := h.statuses[name]
	if !ok || !status.CircuitOpen {
		return true
	}
	return time.Since(status.CircuitOpenedAt) > h.config.RecoveryTimeout
}

// snapshot returns a copy of the endpoint's state, nil when untracked.
func (h *healthState) snapshot(name string) *EndpointHealth {
	h.mu.Lock()
	defer h.mu.Unlock()

	status, ok := h.statuses[name]
	if !ok {
		return nil
	}
	copied := *status
	return &copied
}

func (h *healthState) reset(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.statuses, name)
}

// locked returns the entry for name, creating it fresh and available.
// Caller must hold h.mu.
func (h *healthState) locked(name string) *EndpointHealth {
	if status, ok := h.statuses[name]; ok {
		return status
	}
	status := &EndpointHealth{Available: true}
	h.statuses[name] = status
	return status
}

// healthTracker returns the registry's health state, creating it with
// defaults on first use.
func (r *Registry) healthTracker() *healthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health == nil {
		r.health = newHealthState(DefaultHealthConfig())
	}
	return r.health
}

// MarkEndpointSuccess records a successful request to an endpoint.
func (r *Registry) MarkEndpointSuccess(name string) {
	r.healthTracker().markSuccess(name)
}

// MarkEndpointFailure records a failed request to an endpoint.
func (r *Registry) MarkEndpointFailure(name string) {
	r.healthTracker().markFailure(name)
}

// IsEndpointAvailable checks if an endpoint is available for requests.
func (r *Registry) IsEndpointAvailable(name string) bool {
	return r.healthTracker().available(name)
}

// GetEndpointHealth returns the health status for an endpoint, nil when
// no request has been recorded for it.
func (r *Registry) GetEndpointHealth(name string) *EndpointHealth {
	return r.healthTracker().snapshot(name)
}

// GetAvailableFallbackChain returns the fallback chain filtered to only
// available endpoints. When every endpoint has an open circuit the full
// chain is returned so the caller still has something to try.
func (r *Registry) GetAvailableFallbackChain(cap Capability) []string {
	chain := r.GetFallbackChain(cap)
	h := r.healthTracker()

	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if h.available(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return chain
	}
	return available
}

// SetHealthConfig updates the circuit breaker configuration.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.health == nil {
		r.health = newHealthState(cfg)
	} else {
		r.health.mu.Lock()
		r.health.config = cfg
		r.health.mu.Unlock()
	}
}

// ResetEndpointHealth clears the health status for an endpoint.
func (r *Registry) ResetEndpointHealth(name string) {
	r.healthTracker().reset(name)
}
