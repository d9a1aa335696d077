// Package model provides capability-based model selection for pipeline stages.
// Instead of hardcoding model names, callers specify capabilities (analysis,
// generation) and the registry resolves them to available models with
// fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "claude-sonnet", callers specify "analysis" or "generation".
type Capability string

const (
	// CapabilityAnalysis is for deep source comprehension during knowledge extraction.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityRetrieval is for lightweight knowledge selection and summarization.
	CapabilityRetrieval Capability = "retrieval"

	// CapabilityGeneration is for test script synthesis.
	CapabilityGeneration Capability = "generation"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// StageCapabilities maps pipeline stages to their default capability.
// Used when no explicit capability or model is specified.
var StageCapabilities = map[string]Capability{
	"analyze":  CapabilityAnalysis,
	"ingest":   CapabilityAnalysis,
	"retrieve": CapabilityRetrieval,
	"generate": CapabilityGeneration,
}

// CapabilityForStage returns the default capability for a pipeline stage.
// Returns CapabilityFast as fallback for unknown stages.
func CapabilityForStage(stage string) Capability {
	if cap, ok := StageCapabilities[stage]; ok {
		return cap
	}
	return CapabilityFast
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAnalysis, CapabilityRetrieval, CapabilityGeneration, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
