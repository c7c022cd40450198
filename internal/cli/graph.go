package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pipetriage/pipetriage/internal/graph"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [--values file] [--set key=value]... [--structure]",
	Short: "Render the root -> mechanism -> parameter dependency graph",
	Long: `Render the dependency graph for an evaluation (evidence map: one node per
evaluated parameter, colored by level) or, with --structure, for the whole
catalog.

Output is JSON for external renderers, Graphviz DOT, or a Mermaid flowchart.

Examples:
  pipetriage graph --values inspection.yaml --format dot | dot -Tsvg > map.svg
  pipetriage graph --structure --format mermaid`,
	SilenceUsage: true,
	RunE:         runGraph,
}

var (
	graphValuesFlag    string
	graphSetFlag       []string
	graphStructureFlag bool
	graphFormatFlag    string
)

func init() {
	graphCmd.Flags().StringVarP(&graphValuesFlag, "values", "f", "", "Path to a YAML or JSON file of parameter readings")
	graphCmd.Flags().StringArrayVar(&graphSetFlag, "set", nil, "Reading as key=value (repeatable)")
	graphCmd.Flags().BoolVar(&graphStructureFlag, "structure", false, "Graph every catalog parameter, without levels")
	graphCmd.Flags().StringVar(&graphFormatFlag, "format", graph.FormatJSON, "Output format: json, dot, or mermaid")
}

// GetGraphCmd returns the graph command
func GetGraphCmd() *cobra.Command {
	return graphCmd
}

func runGraph(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "pipetriage graph", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	log := logging.From(ctx)
	start := time.Now()

	ctx, end := otelobs.Start(ctx, "graph")
	defer func() { end(err) }()

	log.Event(ctx, "graph.start", map[string]any{"structure": graphStructureFlag})

	var resultStatus string
	defer func() {
		log.Event(ctx, "graph.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	cat, err := loadCatalog()
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	var g models.Graph
	if graphStructureFlag {
		if graphValuesFlag != "" || len(graphSetFlag) > 0 {
			resultStatus = "fail"
			return fmt.Errorf("--structure does not take readings")
		}
		g = graph.Structure(cat)
	} else {
		assignment, readErr := readAssignment(graphValuesFlag, graphSetFlag)
		if readErr != nil {
			resultStatus = "fail"
			return fmt.Errorf("failed to read values: %w", readErr)
		}

		var ec graph.EvaluationContext
		if assignment.Len() > 0 {
			report, evalErr := evaluate(ctx, cat, assignment, 0)
			if evalErr != nil {
				resultStatus = "fail"
				return evalErr
			}
			ec.Record(assignment, report.Outcomes)
			receiptOpts = append(receiptOpts, receipt.WithTriage(report))
		}

		g, err = graph.FromContext(cat, &ec)
		if err != nil {
			resultStatus = "fail"
			return fmt.Errorf("%w: pass --values, --set, or --structure", err)
		}
	}

	out, err := graph.Render(g, graphFormatFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	resultStatus = "success"
	return nil
}
