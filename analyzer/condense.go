package analyzer

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// maxPassthroughBytes caps non-Python content carried into a prompt verbatim.
const maxPassthroughBytes = 16 * 1024

// Condenser reduces Python source to a structural skeleton: imports, module
// globals, class and function signatures with their docstrings. Analysis
// batches stay inside the prompt budget without losing the API surface.
type Condenser struct {
	parser *sitter.Parser
}

// NewCondenser creates a Python source condenser.
func NewCondenser() *Condenser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Condenser{parser: parser}
}

// Condense returns the skeleton for Python files and truncated content for
// anything else. Unparseable Python falls back to truncation.
func (c *Condenser) Condense(ctx context.Context, path, content string) string {
	if !strings.HasSuffix(path, ".py") {
		return truncate(content, maxPassthroughBytes)
	}

	src := []byte(content)
	tree, err := c.parser.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		return truncate(content, maxPassthroughBytes)
	}
	defer tree.Close()

	var out strings.Builder
	c.walkModule(tree.RootNode(), src, &out, "")

	skeleton := out.String()
	if strings.TrimSpace(skeleton) == "" {
		return truncate(content, maxPassthroughBytes)
	}
	return skeleton
}

// walkModule emits skeleton lines for the children of a module or class body.
func (c *Condenser) walkModule(node *sitter.Node, src []byte, out *strings.Builder, indent string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "import_statement", "import_from_statement":
			out.WriteString(indent + child.Content(src) + "\n")

		case "expression_statement":
			// Module-level assignments document the global object pattern
			if indent == "" && isAssignment(child) {
				line := firstLine(child.Content(src))
				out.WriteString(line + "\n")
			}

		case "decorated_definition":
			// Emit decorators, then descend into the wrapped definition
			for j := 0; j < int(child.NamedChildCount()); j++ {
				inner := child.NamedChild(j)
				switch inner.Type() {
				case "decorator":
					out.WriteString(indent + inner.Content(src) + "\n")
				case "function_definition", "class_definition":
					c.emitDefinition(inner, src, out, indent)
				}
			}

		case "function_definition", "class_definition":
			c.emitDefinition(child, src, out, indent)
		}
	}
}

// emitDefinition writes a def/class signature line, its docstring, and for
// classes recurses into the body.
func (c *Condenser) emitDefinition(node *sitter.Node, src []byte, out *strings.Builder, indent string) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}

	switch node.Type() {
	case "function_definition":
		params := ""
		if p := node.ChildByFieldName("parameters"); p != nil {
			params = p.Content(src)
		}
		out.WriteString(indent + "def " + name.Content(src) + params + ":\n")
		c.emitDocstring(node, src, out, indent+"    ")

	case "class_definition":
		super := ""
		if s := node.ChildByFieldName("superclasses"); s != nil {
			super = s.Content(src)
		}
		out.WriteString(indent + "class " + name.Content(src) + super + ":\n")
		c.emitDocstring(node, src, out, indent+"    ")

		if body := node.ChildByFieldName("body"); body != nil {
			c.walkModule(body, src, out, indent+"    ")
		}
	}
	out.WriteString("\n")
}

// emitDocstring writes the leading string literal of a definition body.
func (c *Condenser) emitDocstring(node *sitter.Node, src []byte, out *strings.Builder, indent string) {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return
	}

	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return
	}
	if str := first.NamedChild(0); str.Type() == "string" {
		for _, line := range strings.Split(str.Content(src), "\n") {
			out.WriteString(indent + strings.TrimSpace(line) + "\n")
		}
	}
}

func isAssignment(node *sitter.Node) bool {
	return node.NamedChildCount() > 0 && node.NamedChild(0).Type() == "assignment"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n# ... truncated ..."
}
