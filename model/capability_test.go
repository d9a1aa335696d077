package model

import "testing"

func TestCapabilityForStage(t *testing.T) {
	tests := []struct {
		stage    string
		expected Capability
	}{
		{"analyze", CapabilityAnalysis},
		{"ingest", CapabilityAnalysis},
		{"retrieve", CapabilityRetrieval},
		{"generate", CapabilityGeneration},
		// Fallback
		{"unknown-stage", CapabilityFast},
		{"", CapabilityFast},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			got := CapabilityForStage(tt.stage)
			if got != tt.expected {
				t.Errorf("CapabilityForStage(%q) = %q, want %q", tt.stage, got, tt.expected)
			}
		})
	}
}

func TestCapabilityIsValid(t *testing.T) {
	tests := []struct {
		cap      Capability
		expected bool
	}{
		{CapabilityAnalysis, true},
		{CapabilityRetrieval, true},
		{CapabilityGeneration, true},
		{CapabilityFast, true},
		{Capability("invalid"), false},
		{Capability(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cap), func(t *testing.T) {
			got := tt.cap.IsValid()
			if got != tt.expected {
				t.Errorf("Capability(%q).IsValid() = %v, want %v", tt.cap, got, tt.expected)
			}
		})
	}
}

func TestParseCapability(t *testing.T) {
	tests := []struct {
		input    string
		expected Capability
	}{
		{"analysis", CapabilityAnalysis},
		{"retrieval", CapabilityRetrieval},
		{"generation", CapabilityGeneration},
		{"fast", CapabilityFast},
		{"invalid", ""},
		{"", ""},
		{"ANALYSIS", ""}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCapability(tt.input)
			if got != tt.expected {
				t.Errorf("ParseCapability(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCapabilityString(t *testing.T) {
	tests := []struct {
		cap      Capability
		expected string
	}{
		{CapabilityAnalysis, "analysis"},
		{CapabilityRetrieval, "retrieval"},
		{CapabilityGeneration, "generation"},
		{CapabilityFast, "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.cap.String()
			if got != tt.expected {
				t.Errorf("Capability.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
