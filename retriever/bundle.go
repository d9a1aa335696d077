package retriever

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/fwexpert/framework"
)

// Source tells a caller where the bundle's context came from.
type Source string

const (
	// SourceKnowledge means the bundle was sliced from an analyzed artifact.
	SourceKnowledge Source = "knowledge"

	// SourceDemo means no analyzed knowledge was available and the static
	// demo corpus stands in.
	SourceDemo Source = "demo"
)

// Bundle is the minimal context slice assembled for one request.
type Bundle struct {
	FrameworkType framework.Type
	Source        Source

	// Patterns are the matched test idioms in rank order.
	Patterns []framework.Pattern

	// ClassNames orders the selected classes; Classes holds their docs.
	ClassNames []string
	Classes    map[string]framework.ClassInfo

	Mandatory framework.MandatoryComponents

	// DemoText is the full demo corpus when Source is SourceDemo.
	DemoText string
}

// Render produces the context text handed to the generator. A demo
// bundle renders as the corpus text unchanged.
func (b *Bundle) Render() string {
	if b.Source == SourceDemo {
		return b.DemoText
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== RELEVANT FRAMEWORK KNOWLEDGE (%s) ===\n", b.FrameworkType)

	if len(b.Patterns) > 0 {
		sb.WriteString("\n## MATCHED TEST PATTERNS\n")
		for _, p := range b.Patterns {
			sb.WriteString(renderPattern(p))
		}
	}

	if len(b.ClassNames) > 0 {
		sb.WriteString("\n## REQUIRED CLASSES\n")
		for _, name := range b.ClassNames {
			sb.WriteString(renderClass(name, b.Classes[name]))
		}
	}

	sb.WriteString(renderMandatory(b.Mandatory))

	return sb.String()
}

func renderPattern(p framework.Pattern) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n### %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", p.Description)
	}
	if p.ExampleMethod != "" {
		fmt.Fprintf(&sb, "Example method: %s\n", p.ExampleMethod)
	}
	if p.Flow != "" {
		fmt.Fprintf(&sb, "Expected flow: %s\n", p.Flow)
	}
	if len(p.RequiredClasses) > 0 {
		fmt.Fprintf(&sb, "Required classes: %s\n", strings.Join(p.RequiredClasses, ", "))
	}
	for _, m := range p.RequiredMethods {
		fmt.Fprintf(&sb, "Required method: %s.%s", m.Class, m.Method)
		if m.Why != "" {
			fmt.Fprintf(&sb, " (%s)", m.Why)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderClass(name string, info framework.ClassInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n### %s\n", name)
	if info.Purpose != "" {
		fmt.Fprintf(&sb, "Purpose: %s\n", info.Purpose)
	}
	if len(info.KeyMethods) > 0 {
		sb.WriteString("Key methods:\n")
		methods := make([]string, 0, len(info.KeyMethods))
		for m := range info.KeyMethods {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			mi := info.KeyMethods[m]
			fmt.Fprintf(&sb, "- %s", mi.Signature)
			if mi.Purpose != "" {
				fmt.Fprintf(&sb, ": %s", mi.Purpose)
			}
			sb.WriteString("\n")
		}
	}
	if len(info.DependsOn) > 0 {
		fmt.Fprintf(&sb, "Depends on: %s\n", strings.Join(info.DependsOn, ", "))
	}
	return sb.String()
}

func renderMandatory(m framework.MandatoryComponents) string {
	if len(m.Imports) == 0 && len(m.GlobalObjects) == 0 && len(m.Structure) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n## MANDATORY STRUCTURE\n")
	if len(m.Imports) > 0 {
		sb.WriteString("\nImports:\n")
		for _, line := range m.Imports {
			fmt.Fprintf(&sb, "%s\n", line)
		}
	}
	if len(m.GlobalObjects) > 0 {
		sb.WriteString("\nGlobal objects:\n")
		for _, line := range m.GlobalObjects {
			fmt.Fprintf(&sb, "%s\n", line)
		}
	}
	if len(m.Structure) > 0 {
		sb.WriteString("\nStructure:\n")
		for _, line := range m.Structure {
			fmt.Fprintf(&sb, "%s\n", line)
		}
	}
	return sb.String()
}
