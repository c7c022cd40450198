package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/engine"
	"github.com/pipetriage/pipetriage/internal/graph"
	"github.com/pipetriage/pipetriage/internal/input"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"go.opentelemetry.io/otel/attribute"
)

// --- triage_evaluate ---

// EvaluateTool handles the triage_evaluate MCP tool.
type EvaluateTool struct {
	sess *Session
}

// NewEvaluateTool creates an EvaluateTool bound to a session.
func NewEvaluateTool(sess *Session) *EvaluateTool {
	return &EvaluateTool{sess: sess}
}

// Definition returns the MCP tool definition for triage_evaluate.
func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("triage_evaluate",
		mcp.WithDescription(
			"Evaluate piping inspection readings against the rule catalog. "+
				"Returns per-parameter levels, per-mechanism severity and drivers, "+
				"the dominant mechanism and recommended actions as JSON.",
		),
		mcp.WithString("values",
			mcp.Required(),
			mcp.Description("YAML or JSON mapping of parameter -> number|boolean, e.g. 'ph: 5.5\\ndeadlegs: true'. Key order is kept."),
		),
	)
}

// Handle processes the triage_evaluate tool call.
func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := req.GetString("values", "")
	if strings.TrimSpace(values) == "" {
		return mcp.NewToolResultError("'values' is required"), nil
	}

	report, err := t.sess.evaluate(ctx, values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// evaluate parses, evaluates and records; errors are user facing
func (s *Session) evaluate(ctx context.Context, values string) (*models.Report, error) {
	assignment, err := input.ParseDocument([]byte(values))
	if err != nil {
		return nil, err
	}

	outcomes, err := engine.EvaluateParallel(ctx, s.cat, assignment, s.workers)
	if err != nil {
		var evalErr *engine.EvaluationError
		if errors.As(err, &evalErr) {
			logging.From(ctx).Warn("mcp", "evaluation rejected", "parameter", evalErr.Key)
		}
		return nil, err
	}

	s.Record(assignment, outcomes)
	report := engine.BuildReport(s.cat, assignment, outcomes)

	dominant := ""
	if report.Dominant != nil {
		dominant = string(*report.Dominant)
	}
	otelobs.Annotate(ctx,
		attribute.String(otelobs.AttrDominant, dominant),
		attribute.String(otelobs.AttrCatalog, report.CatalogDigest),
		attribute.Int("pipetriage.parameters", assignment.Len()),
	)
	return report, nil
}

// --- triage_catalog ---

// CatalogTool handles the triage_catalog MCP tool.
type CatalogTool struct {
	sess *Session
}

// NewCatalogTool creates a CatalogTool bound to a session.
func NewCatalogTool(sess *Session) *CatalogTool {
	return &CatalogTool{sess: sess}
}

// Definition returns the MCP tool definition for triage_catalog.
func (t *CatalogTool) Definition() mcp.Tool {
	return mcp.NewTool("triage_catalog",
		mcp.WithDescription(
			"List every parameter the triage engine understands, grouped by mechanism, "+
				"with its unit, alert/critical criterion and advisory.",
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'markdown'"),
			mcp.Enum("json", "markdown"),
		),
	)
}

// Handle processes the triage_catalog tool call.
func (t *CatalogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch format := req.GetString("format", "json"); format {
	case "", "json":
		data, err := json.MarshalIndent(catalogDocument(t.sess.cat), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling catalog: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	case "markdown":
		return mcp.NewToolResultText(fmt.Sprintf("## Triage catalog: %s\n\n", t.sess.cat.Name()) +
			catalog.Markdown(t.sess.cat.ReferenceTable(), "###")), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q (use json or markdown)", format)), nil
	}
}

type catalogDoc struct {
	Name     string                     `json:"name"`
	Digest   string                     `json:"digest"`
	Sections []catalog.ReferenceSection `json:"sections"`
}

func catalogDocument(cat *catalog.Catalog) catalogDoc {
	return catalogDoc{Name: cat.Name(), Digest: cat.Digest(), Sections: cat.ReferenceTable()}
}

// --- triage_graph ---

// GraphTool handles the triage_graph MCP tool.
type GraphTool struct {
	sess *Session
}

// NewGraphTool creates a GraphTool bound to a session.
func NewGraphTool(sess *Session) *GraphTool {
	return &GraphTool{sess: sess}
}

// Definition returns the MCP tool definition for triage_graph.
func (t *GraphTool) Definition() mcp.Tool {
	return mcp.NewTool("triage_graph",
		mcp.WithDescription(
			"Render the root -> mechanism -> parameter dependency graph. "+
				"With 'values', graphs that evaluation; with 'structure', the whole catalog; "+
				"otherwise the last triage_evaluate result.",
		),
		mcp.WithString("values",
			mcp.Description("Optional YAML or JSON readings to evaluate and graph"),
		),
		mcp.WithBoolean("structure",
			mcp.Description("Graph every catalog parameter without levels"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default), 'dot' or 'mermaid'"),
			mcp.Enum(graph.FormatJSON, graph.FormatDOT, graph.FormatMermaid),
		),
	)
}

// Handle processes the triage_graph tool call.
func (t *GraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := req.GetString("format", graph.FormatJSON)
	values := req.GetString("values", "")
	if err := graph.ValidateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var g models.Graph
	switch {
	case req.GetBool("structure", false):
		g = graph.Structure(t.sess.cat)
	case strings.TrimSpace(values) != "":
		report, err := t.sess.evaluate(ctx, values)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		g = graph.Build(t.sess.cat, report.Outcomes)
	default:
		last, err := t.sess.LastGraph()
		if errors.Is(err, graph.ErrNoEvaluation) {
			return mcp.NewToolResultError("no evaluation yet: call triage_evaluate first, pass 'values', or set 'structure'"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		g = last
	}

	out, err := graph.Render(g, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
