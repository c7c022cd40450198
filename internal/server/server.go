// Package server exposes the triage engine as MCP tools over stdio.
//
// Tools share one catalog and one evaluation context: triage_graph without
// values renders the evidence map of the last triage_evaluate call.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/graph"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/version"
)

// Name of the MCP server
const Name = "pipetriage"

// CatalogURI of the reference table resource
const CatalogURI = "pipetriage://catalog"

// Session holds what tool calls share: the catalog and the last evaluation
type Session struct {
	cat     *catalog.Catalog
	workers int

	mu   sync.Mutex
	last graph.EvaluationContext
}

// NewSession for a catalog; workers <= 0 means engine.DefaultWorkers
func NewSession(cat *catalog.Catalog, workers int) *Session {
	return &Session{cat: cat, workers: workers}
}

// Record the latest evaluation
func (s *Session) Record(a *models.Assignment, outcomes []models.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.Record(a, outcomes)
}

// LastGraph is the evidence map of the last recorded evaluation
func (s *Session) LastGraph() (models.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.FromContext(s.cat, &s.last)
}

// New creates the MCP server with every tool and resource registered.
// base carries the logger and tracing handle used for each call.
func New(base context.Context, sess *Session) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		version.BuildVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	evaluateTool := NewEvaluateTool(sess)
	s.AddTool(evaluateTool.Definition(), instrument(base, "triage_evaluate", evaluateTool.Handle))

	catalogTool := NewCatalogTool(sess)
	s.AddTool(catalogTool.Definition(), instrument(base, "triage_catalog", catalogTool.Handle))

	graphTool := NewGraphTool(sess)
	s.AddTool(graphTool.Definition(), instrument(base, "triage_graph", graphTool.Handle))

	s.AddResource(CatalogResource(), sess.HandleCatalogResource)

	return s
}

// Serve blocks serving stdio until the client disconnects
func Serve(ctx context.Context, sess *Session) error {
	return server.ServeStdio(New(ctx, sess))
}

const instructions = `Piping degradation triage. Call triage_evaluate with a YAML or JSON
mapping of parameter -> number|boolean to get per-mechanism severities, the
dominant mechanism and recommended actions. triage_catalog lists every
parameter with its thresholds. triage_graph renders the evidence map.`

// instrument gives each tool call an op id, the base logger and tracing
// handle, a span and start/complete events.
func instrument(base context.Context, tool string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	log := logging.From(base)
	handle := otelobs.From(base)

	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		ctx = observability.WithOpID(ctx)
		ctx = logging.WithLogger(ctx, log)
		if handle != nil {
			ctx = otelobs.WithHandle(ctx, handle)
		}

		ctx, end := otelobs.Start(ctx, "tool."+tool)
		start := time.Now()
		log.Event(ctx, "tool.start", map[string]any{"tool": tool})

		defer func() {
			status := "success"
			var spanErr error
			switch {
			case err != nil:
				status, spanErr = "fail", err
			case result != nil && result.IsError:
				status, spanErr = "fail", errors.New(resultText(result))
			}
			end(spanErr)
			log.Event(ctx, "tool.complete", map[string]any{
				"tool":        tool,
				"duration_ms": time.Since(start).Milliseconds(),
				"result":      status,
			})
		}()

		return next(ctx, req)
	}
}

// CatalogResource definition
func CatalogResource() mcp.Resource {
	return mcp.NewResource(
		CatalogURI,
		"Triage rule catalog",
		mcp.WithResourceDescription("Per-mechanism parameter reference table with thresholds and advisories"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCatalogResource returns the reference table as JSON
func (s *Session) HandleCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(catalogDocument(s.cat), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling catalog: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
