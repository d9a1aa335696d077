// Package framework defines the data model for test-automation framework
// knowledge: the closed set of supported framework types, the structured
// knowledge artifact produced by analysis, and the static demo corpus used
// as fallback context.
package framework

import (
	"errors"
	"fmt"
	"time"
)

// Type identifies a supported test-automation framework.
// The set is closed: dispatch on Type is always an exhaustive switch,
// never a string comparison.
type Type string

const (
	// TypePstaff is the Robot Framework style PSTAF framework.
	TypePstaff Type = "pstaff"

	// TypeClient is the pytest style aut-pypdc client framework.
	TypeClient Type = "client"
)

// ErrUnknownType is returned for framework type strings outside the closed set.
var ErrUnknownType = errors.New("unknown framework type")

// Types lists all supported framework types.
func Types() []Type {
	return []Type{TypePstaff, TypeClient}
}

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePstaff:
		return TypePstaff, nil
	case TypeClient:
		return TypeClient, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// String returns the string representation of the framework type.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is a member of the closed set.
func (t Type) IsValid() bool {
	switch t {
	case TypePstaff, TypeClient:
		return true
	}
	return false
}

// Status tracks the lifecycle of a framework's knowledge artifact.
type Status string

const (
	// StatusNotAnalyzed means no analysis has ever completed for this type.
	StatusNotAnalyzed Status = "not_analyzed"

	// StatusAnalyzing means an analysis currently holds the per-type lock.
	StatusAnalyzing Status = "analyzing"

	// StatusAnalyzed means a committed artifact is available.
	StatusAnalyzed Status = "analyzed"

	// StatusStale means the prior artifact is outdated (source changed or
	// an analysis failed after supersession) and should be re-analyzed.
	StatusStale Status = "stale"
)

// MethodInfo documents a single framework method extracted during analysis.
type MethodInfo struct {
	Signature      string   `json:"signature"`
	Purpose        string   `json:"purpose,omitempty"`
	Requires       []string `json:"requires,omitempty"`
	InputFormat    string   `json:"input_format,omitempty"`
	OutputFormat   string   `json:"output_format,omitempty"`
	UsedInPatterns []string `json:"used_in_patterns,omitempty"`
}

// ClassInfo documents a framework class and its key methods.
type ClassInfo struct {
	Purpose    string                `json:"purpose"`
	KeyMethods map[string]MethodInfo `json:"key_methods,omitempty"`
	DependsOn  []string              `json:"depends_on,omitempty"`
}

// MethodRef names a method on a class.
type MethodRef struct {
	Class  string `json:"class"`
	Method string `json:"method"`
	Why    string `json:"why,omitempty"`
}

// Pattern is a canonical test idiom extracted from the framework's example
// suites. Patterns are ordered: earlier patterns take priority during
// context assembly.
type Pattern struct {
	Name            string      `json:"name"`
	ExampleMethod   string      `json:"example_method,omitempty"`
	Description     string      `json:"description,omitempty"`
	RequiredClasses []string    `json:"required_classes,omitempty"`
	RequiredMethods []MethodRef `json:"required_methods,omitempty"`
	Flow            string      `json:"flow,omitempty"`
	Keywords        []string    `json:"keywords,omitempty"`
}

// MandatoryComponents captures the structural conventions every generated
// script must carry: imports, module-level globals, and the class/function
// skeleton lines.
type MandatoryComponents struct {
	Imports       []string `json:"imports,omitempty"`
	GlobalObjects []string `json:"global_objects,omitempty"`
	Structure     []string `json:"structure,omitempty"`
}

// Knowledge is the structured artifact produced by Phase 1 analysis.
type Knowledge struct {
	FrameworkType Type `json:"framework_type"`

	// Classes maps class identifier to its extracted documentation.
	// Keys are unique by construction.
	Classes map[string]ClassInfo `json:"classes"`

	// Patterns is the ordered sequence of canonical test idioms.
	Patterns []Pattern `json:"patterns"`

	Mandatory MandatoryComponents `json:"mandatory_components"`

	// CommonDependencies groups class sets by test family
	// (e.g. "browser_tests", "rest_tests", "all_tests").
	CommonDependencies map[string][]string `json:"common_dependencies,omitempty"`
}

// Merge folds other into k: new classes and dependency groups are added,
// existing entries overwritten; patterns not already present by name are
// appended, preserving k's priority order.
func (k *Knowledge) Merge(other *Knowledge) {
	if other == nil {
		return
	}
	if k.Classes == nil {
		k.Classes = make(map[string]ClassInfo, len(other.Classes))
	}
	for name, info := range other.Classes {
		k.Classes[name] = info
	}

	existing := make(map[string]int, len(k.Patterns))
	for i, p := range k.Patterns {
		existing[p.Name] = i
	}
	for _, p := range other.Patterns {
		if i, ok := existing[p.Name]; ok {
			k.Patterns[i] = p
			continue
		}
		k.Patterns = append(k.Patterns, p)
	}

	if len(other.Mandatory.Imports) > 0 {
		k.Mandatory.Imports = mergeLines(k.Mandatory.Imports, other.Mandatory.Imports)
	}
	if len(other.Mandatory.GlobalObjects) > 0 {
		k.Mandatory.GlobalObjects = mergeLines(k.Mandatory.GlobalObjects, other.Mandatory.GlobalObjects)
	}
	if len(other.Mandatory.Structure) > 0 {
		k.Mandatory.Structure = mergeLines(k.Mandatory.Structure, other.Mandatory.Structure)
	}

	if len(other.CommonDependencies) > 0 {
		if k.CommonDependencies == nil {
			k.CommonDependencies = make(map[string][]string, len(other.CommonDependencies))
		}
		for group, classes := range other.CommonDependencies {
			k.CommonDependencies[group] = classes
		}
	}
}

// mergeLines appends lines from b that are not already present in a.
func mergeLines(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, line := range a {
		seen[line] = true
	}
	for _, line := range b {
		if !seen[line] {
			seen[line] = true
			a = append(a, line)
		}
	}
	return a
}

// IsEmpty reports whether the artifact carries no extracted knowledge.
func (k *Knowledge) IsEmpty() bool {
	return k == nil || (len(k.Classes) == 0 && len(k.Patterns) == 0)
}

// Stats summarises the stored knowledge for a framework type.
// Returned by the knowledge store's stats query; never an error.
type Stats struct {
	FrameworkType    Type      `json:"framework_type"`
	Status           Status    `json:"status"`
	ClassesCount     int       `json:"classes_count"`
	PatternsCount    int       `json:"patterns_count"`
	ArtifactLocation string    `json:"artifact_location,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}
