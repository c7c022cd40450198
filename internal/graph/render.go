package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pipetriage/pipetriage/internal/models"
)

// Output formats accepted by Render
const (
	FormatJSON    = "json"
	FormatDOT     = "dot"
	FormatMermaid = "mermaid"
)

// ValidateFormat rejects anything Render cannot produce
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatDOT, FormatMermaid:
		return nil
	}
	return fmt.Errorf("unknown graph format: %q (use json, dot, or mermaid)", format)
}

// Render in one of the output formats
func Render(g models.Graph, format string) (string, error) {
	if err := ValidateFormat(format); err != nil {
		return "", err
	}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal graph: %w", err)
		}
		return string(data) + "\n", nil
	case FormatDOT:
		return ToDOT(g), nil
	default:
		return ToMermaid(g), nil
	}
}

// levelColors for DOT fill
var levelColors = map[models.Level]string{
	models.LevelNormal:   "palegreen",
	models.LevelAlert:    "gold",
	models.LevelCritical: "tomato",
}

// ToDOT renders Graphviz source. Layout is left to the renderer.
func ToDOT(g models.Graph) string {
	var b strings.Builder
	b.WriteString("digraph pipetriage {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%s", quote(nodeText(n)))}
		switch n.Type {
		case models.NodeRoot:
			attrs = append(attrs, "shape=ellipse", "fillcolor=lightgray")
		case models.NodeMechanism:
			attrs = append(attrs, "fillcolor=lightblue")
		case models.NodeParameter:
			if n.Level != nil {
				attrs = append(attrs, "fillcolor="+levelColors[*n.Level])
			}
		}
		fmt.Fprintf(&b, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", quote(e.From), quote(e.To))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToMermaid renders a Mermaid flowchart
func ToMermaid(g models.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", mermaidID(n.ID), strings.ReplaceAll(nodeText(n), `"`, "'"))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}
	for _, n := range g.Nodes {
		if n.Level != nil && *n.Level != models.LevelNormal {
			fmt.Fprintf(&b, "  class %s %s\n", mermaidID(n.ID), n.Level.String())
		}
	}
	b.WriteString("  classDef alert fill:#ffd700\n")
	b.WriteString("  classDef critical fill:#ff6347\n")
	return b.String()
}

func nodeText(n models.GraphNode) string {
	if n.Level == nil {
		return n.Label
	}
	return fmt.Sprintf("%s (%s)", n.Label, n.Level.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// mermaidID keeps ids safe for Mermaid (keys are already snake_case)
func mermaidID(id string) string {
	return "n_" + strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, id)
}
