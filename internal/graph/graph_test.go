package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/engine"
	"github.com/pipetriage/pipetriage/internal/models"
)

func evaluate(t *testing.T, readings ...models.Reading) []models.Outcome {
	t.Helper()
	out, err := engine.Evaluate(catalog.MustDefault(), models.NewAssignment(readings...))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return out
}

func hasEdge(g models.Graph, from, to string, typ models.EdgeType) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Type == typ {
			return true
		}
	}
	return false
}

func TestBuild_EvidenceMap(t *testing.T) {
	outcomes := evaluate(t,
		models.Reading{Key: "ph", Value: models.Number(5.5)},
		models.Reading{Key: "deadlegs", Value: models.Bool(true)},
	)
	g := Build(catalog.MustDefault(), outcomes)

	if roots := g.NodesOfType(models.NodeRoot); len(roots) != 1 || roots[0].ID != models.RootNodeID {
		t.Fatalf("expected a single root node, got %+v", roots)
	}

	mechs := g.NodesOfType(models.NodeMechanism)
	if len(mechs) != 6 {
		t.Fatalf("expected 6 mechanism nodes, got %d", len(mechs))
	}
	for _, m := range models.CanonicalMechanisms {
		if !hasEdge(g, models.RootNodeID, string(m), models.EdgeRootMechanism) {
			t.Errorf("missing root -> %s edge", m)
		}
	}

	params := g.NodesOfType(models.NodeParameter)
	if len(params) != 2 {
		t.Fatalf("expected exactly 2 parameter nodes, got %d", len(params))
	}

	ph, ok := g.Node("ph")
	if !ok || ph.Level == nil || *ph.Level != models.LevelAlert {
		t.Errorf("ph node = %+v, want alert", ph)
	}
	deadlegs, ok := g.Node("deadlegs")
	if !ok || deadlegs.Level == nil || *deadlegs.Level != models.LevelAlert {
		t.Errorf("deadlegs node = %+v, want alert", deadlegs)
	}
	if !hasEdge(g, "M1", "ph", models.EdgeMechanismParameter) {
		t.Error("missing M1 -> ph edge")
	}
	if !hasEdge(g, "M2", "deadlegs", models.EdgeMechanismParameter) {
		t.Error("missing M2 -> deadlegs edge")
	}

	if len(g.Nodes) != 1+6+2 {
		t.Errorf("expected 9 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 6+2 {
		t.Errorf("expected 8 edges, got %d", len(g.Edges))
	}
}

func TestBuild_NoOutcomes(t *testing.T) {
	g := Build(catalog.MustDefault(), nil)
	if len(g.Nodes) != 7 || len(g.Edges) != 6 {
		t.Errorf("empty evaluation: %d nodes, %d edges; want 7 and 6", len(g.Nodes), len(g.Edges))
	}
	if len(g.NodesOfType(models.NodeParameter)) != 0 {
		t.Error("no parameter nodes expected")
	}
}

func TestBuild_NormalLevelsKept(t *testing.T) {
	g := Build(catalog.MustDefault(), evaluate(t, models.Reading{Key: "ph", Value: models.Number(7)}))
	ph, ok := g.Node("ph")
	if !ok {
		t.Fatal("evaluated parameter should have a node even when normal")
	}
	if *ph.Level != models.LevelNormal {
		t.Errorf("level = %s, want normal", ph.Level)
	}
}

func TestStructure(t *testing.T) {
	cat := catalog.MustDefault()
	g := Structure(cat)

	params := g.NodesOfType(models.NodeParameter)
	if len(params) != cat.Len() {
		t.Fatalf("expected %d parameter nodes, got %d", cat.Len(), len(params))
	}
	for _, p := range params {
		if p.Level != nil {
			t.Errorf("structure node %s should carry no level", p.ID)
		}
	}
	if !hasEdge(g, "M12", "patron_rotura", models.EdgeMechanismParameter) {
		t.Error("missing M12 -> patron_rotura edge")
	}
	if len(g.Edges) != 6+cat.Len() {
		t.Errorf("expected %d edges, got %d", 6+cat.Len(), len(g.Edges))
	}
}

func TestFromContext(t *testing.T) {
	cat := catalog.MustDefault()

	if _, err := FromContext(cat, nil); !errors.Is(err, ErrNoEvaluation) {
		t.Errorf("nil context: expected ErrNoEvaluation, got %v", err)
	}

	ec := &EvaluationContext{}
	if _, err := FromContext(cat, ec); !errors.Is(err, ErrNoEvaluation) {
		t.Errorf("empty context: expected ErrNoEvaluation, got %v", err)
	}

	a := models.NewAssignment(models.Reading{Key: "pco2", Value: models.Number(2)})
	out, err := engine.Evaluate(cat, a)
	if err != nil {
		t.Fatal(err)
	}
	ec.Record(a, out)

	g, err := FromContext(cat, ec)
	if err != nil {
		t.Fatalf("FromContext failed: %v", err)
	}
	n, ok := g.Node("pco2")
	if !ok || *n.Level != models.LevelCritical {
		t.Errorf("pco2 node = %+v, want critical", n)
	}
}

func TestToDOT(t *testing.T) {
	g := Build(catalog.MustDefault(), evaluate(t, models.Reading{Key: "pco2", Value: models.Number(1.2)}))
	dot := ToDOT(g)

	for _, want := range []string{
		"digraph pipetriage {",
		`"root" -> "M1";`,
		`"M1" -> "pco2";`,
		"fillcolor=tomato",
		"(critical)",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q\n%s", want, dot)
		}
	}
}

func TestToMermaid(t *testing.T) {
	g := Build(catalog.MustDefault(), evaluate(t, models.Reading{Key: "deadlegs", Value: models.Bool(true)}))
	out := ToMermaid(g)

	for _, want := range []string{
		"flowchart LR",
		"n_root --> n_M2",
		"n_M2 --> n_deadlegs",
		"class n_deadlegs alert",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Mermaid output missing %q\n%s", want, out)
		}
	}
}

func TestRender(t *testing.T) {
	g := Build(catalog.MustDefault(), evaluate(t, models.Reading{Key: "ph", Value: models.Number(5)}))

	tests := []struct {
		format string
		want   string
	}{
		{"", `"id": "root"`},
		{"json", `"type": "mechanism_parameter"`},
		{"DOT", "digraph pipetriage"},
		{"mermaid", "flowchart LR"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := Render(g, tt.format)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, out)
			}
		})
	}

	if _, err := Render(g, "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", "json", "DOT", "mermaid"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("svg"); err == nil || !strings.Contains(err.Error(), "svg") {
		t.Errorf("ValidateFormat(svg) = %v", err)
	}
}
