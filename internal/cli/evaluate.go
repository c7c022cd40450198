package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/engine"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [--values file] [--set key=value]...",
	Short: "Classify inspection readings into degradation mechanisms",
	Long: `Evaluate inspection readings against the rule catalog.

Readings come from a YAML or JSON mapping (--values) and/or repeated --set
flags; --set wins over the file. Only the parameters you measured need to
be present. Unknown parameters and kind mismatches reject the whole input.

Examples:
  pipetriage evaluate --values inspection.yaml
  pipetriage evaluate --set ph=5.5 --set pco2=1.2 --set deadlegs=true
  pipetriage evaluate --values inspection.yaml --format json > report.json`,
	SilenceUsage: true,
	RunE:         runEvaluate,
}

var (
	evalValuesFlag  string
	evalSetFlag     []string
	evalFormatFlag  string
	evalWorkersFlag int
)

func init() {
	evaluateCmd.Flags().StringVarP(&evalValuesFlag, "values", "f", "", "Path to a YAML or JSON file of parameter readings")
	evaluateCmd.Flags().StringArrayVar(&evalSetFlag, "set", nil, "Reading as key=value (repeatable)")
	evaluateCmd.Flags().StringVar(&evalFormatFlag, "format", "text", "Output format: text or json")
	evaluateCmd.Flags().IntVar(&evalWorkersFlag, "workers", engine.DefaultWorkers, "Concurrent parameter evaluations")
}

// GetEvaluateCmd returns the evaluate command
func GetEvaluateCmd() *cobra.Command {
	return evaluateCmd
}

func runEvaluate(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "pipetriage evaluate", os.Args[1:])
	var receiptOpts []receipt.Option

	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	log := logging.From(ctx)
	start := time.Now()

	ctx, end := otelobs.Start(ctx, "evaluate")
	defer func() { end(err) }()

	log.Event(ctx, "evaluate.start", nil)

	var resultStatus string
	defer func() {
		log.Event(ctx, "evaluate.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	if err := validateFormat(evalFormatFlag, "text", "json"); err != nil {
		resultStatus = "fail"
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	assignment, err := readAssignment(evalValuesFlag, evalSetFlag)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("failed to read values: %w", err)
	}
	if assignment.Len() == 0 {
		log.Warn("evaluate", "no readings supplied; every mechanism will be normal")
	}

	report, err := evaluate(ctx, cat, assignment, evalWorkersFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithTriage(report))

	otelobs.Annotate(ctx,
		attribute.String(otelobs.AttrDominant, dominantName(report.Dominant)),
		attribute.String(otelobs.AttrCatalog, report.CatalogDigest),
	)

	out := cmd.OutOrStdout()
	if evalFormatFlag == "json" {
		data, jsonErr := json.MarshalIndent(report, "", "  ")
		if jsonErr != nil {
			resultStatus = "fail"
			return fmt.Errorf("failed to marshal report: %w", jsonErr)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, FormatReportText(cat, report))
	}

	resultStatus = "success"
	return nil
}

// evaluate runs the parallel evaluator and builds the report
func evaluate(ctx context.Context, cat *catalog.Catalog, assignment *models.Assignment, workers int) (*models.Report, error) {
	outcomes, err := engine.EvaluateParallel(ctx, cat, assignment, workers)
	if err != nil {
		var evalErr *engine.EvaluationError
		if errors.As(err, &evalErr) {
			logging.From(ctx).Warn("engine", "evaluation rejected", "parameter", evalErr.Key)
		}
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	return engine.BuildReport(cat, assignment, outcomes), nil
}
