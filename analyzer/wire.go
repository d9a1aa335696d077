package analyzer

import (
	"sort"

	"github.com/c360studio/fwexpert/framework"
)

// wirePattern is the pattern shape used on the collaborator wire, where
// patterns are keyed by name instead of carrying it.
type wirePattern struct {
	ExampleMethod   string                `json:"example_method,omitempty"`
	Description     string                `json:"description,omitempty"`
	RequiredClasses []string              `json:"required_classes,omitempty"`
	RequiredMethods []framework.MethodRef `json:"required_methods,omitempty"`
	Flow            string                `json:"flow,omitempty"`
	Keywords        []string              `json:"keywords,omitempty"`
}

// wireKnowledge is the JSON shape the analysis prompts request.
type wireKnowledge struct {
	Classes            map[string]framework.ClassInfo `json:"classes"`
	TestPatterns       map[string]wirePattern         `json:"test_patterns"`
	Mandatory          framework.MandatoryComponents  `json:"mandatory_components"`
	CommonDependencies map[string][]string            `json:"common_dependencies,omitempty"`
}

// wireFromKnowledge converts the stored artifact back to the wire shape for
// the incremental merge prompt.
func wireFromKnowledge(k *framework.Knowledge) wireKnowledge {
	w := wireKnowledge{
		Classes:            k.Classes,
		TestPatterns:       make(map[string]wirePattern, len(k.Patterns)),
		Mandatory:          k.Mandatory,
		CommonDependencies: k.CommonDependencies,
	}
	if w.Classes == nil {
		w.Classes = map[string]framework.ClassInfo{}
	}
	for _, p := range k.Patterns {
		w.TestPatterns[p.Name] = wirePattern{
			ExampleMethod:   p.ExampleMethod,
			Description:     p.Description,
			RequiredClasses: p.RequiredClasses,
			RequiredMethods: p.RequiredMethods,
			Flow:            p.Flow,
			Keywords:        p.Keywords,
		}
	}
	return w
}

// toKnowledge converts a parsed wire response to the stored artifact shape.
// Patterns are ordered by name so identical responses produce identical
// artifacts.
func (w wireKnowledge) toKnowledge(ft framework.Type) *framework.Knowledge {
	names := make([]string, 0, len(w.TestPatterns))
	for name := range w.TestPatterns {
		names = append(names, name)
	}
	sort.Strings(names)

	patterns := make([]framework.Pattern, 0, len(names))
	for _, name := range names {
		p := w.TestPatterns[name]
		patterns = append(patterns, framework.Pattern{
			Name:            name,
			ExampleMethod:   p.ExampleMethod,
			Description:     p.Description,
			RequiredClasses: p.RequiredClasses,
			RequiredMethods: p.RequiredMethods,
			Flow:            p.Flow,
			Keywords:        p.Keywords,
		})
	}

	return &framework.Knowledge{
		FrameworkType:      ft,
		Classes:            w.Classes,
		Patterns:           patterns,
		Mandatory:          w.Mandatory,
		CommonDependencies: w.CommonDependencies,
	}
}
