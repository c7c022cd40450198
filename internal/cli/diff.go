package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pipetriage/pipetriage/internal/differ"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff --baseline <file> --current <file>",
	Short: "Compare two inspections and report how the triage moved",
	Long: `Diff compares two inspections and reports what changed in the triage:
mechanisms escalating or de-escalating, drivers appearing or clearing, the
dominant mechanism moving, and the readings behind it.

Each input is either a saved report (pipetriage evaluate --format json) or a
values file, which is evaluated first.

Exit codes: 0 when drift stays below --fail-on, 1 when it reaches it (or the
optional --policy denies the current inspection), 2 on errors.

Examples:
  pipetriage diff --baseline 2025-q4.json --current 2026-q1.yaml
  pipetriage diff --baseline old.json --current new.json --fail-on=moderate --format=json`,
	SilenceUsage: true,
	RunE:         runDiff,
}

var (
	diffBaselineFlag string
	diffCurrentFlag  string
	diffFailOnFlag   string
	diffFormatFlag   string
	diffPolicyFlag   string
)

func init() {
	diffCmd.Flags().StringVar(&diffBaselineFlag, "baseline", "", "Baseline report or values file")
	diffCmd.Flags().StringVar(&diffCurrentFlag, "current", "", "Current report or values file")
	diffCmd.Flags().StringVar(&diffFailOnFlag, "fail-on", "critical", "Severity threshold for failure: critical, moderate, or info")
	diffCmd.Flags().StringVar(&diffFormatFlag, "format", "text", "Output format: text or json")
	diffCmd.Flags().StringVar(&diffPolicyFlag, "policy", "", "Policy to apply to the current inspection: preset name or path to YAML file")
	_ = diffCmd.MarkFlagRequired("baseline")
	_ = diffCmd.MarkFlagRequired("current")
}

// GetDiffCmd returns the diff command
func GetDiffCmd() *cobra.Command {
	return diffCmd
}

func runDiff(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "pipetriage diff", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	log := logging.From(ctx)
	start := time.Now()

	ctx, end := otelobs.Start(ctx, "diff", attribute.String("pipetriage.fail_on", diffFailOnFlag))
	defer func() { end(err) }()

	log.Event(ctx, "diff.start", nil)

	var resultStatus string
	defer func() {
		log.Event(ctx, "diff.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	failOn, err := ParseFailOnLevel(diffFailOnFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}
	if err := validateFormat(diffFormatFlag, "text", "json"); err != nil {
		resultStatus = "fail"
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	baseline, err := loadReport(cmd, diffBaselineFlag)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("baseline: %w", err)
	}
	current, err := loadReport(cmd, diffCurrentFlag)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("current: %w", err)
	}
	receiptOpts = append(receiptOpts, receipt.WithTriage(current))

	drift := differ.Compare(baseline, current)

	var changes []string
	patch, err := differ.Patch(baseline, current)
	if err != nil {
		log.Warn("diff", "failed to compute report patch", "error", err.Error())
	} else {
		changes = differ.Translate(patch)
	}

	var policyConfig *models.PolicyConfig
	var policyResults []models.PolicyResult
	if diffPolicyFlag != "" {
		policyConfig, policyResults, err = evaluatePolicy(diffPolicyFlag, current)
		if err != nil {
			resultStatus = "fail"
			return err
		}
	}

	checkResult := BuildCheckResult(diffBaselineFlag, diffCurrentFlag, baseline, current, drift, changes,
		policyConfig, policyResults, diffPolicyFlag, failOn)

	receiptOpts = append(receiptOpts, receipt.WithDrift(drift,
		fmt.Sprintf("%s -> %s", checkResult.BaselineDominant, checkResult.CurrentDominant)))
	if checkResult.Policy != nil {
		receiptOpts = append(receiptOpts, receipt.WithPolicy(diffPolicyFlag, checkResult.Policy.Decision, policyResults))
	}

	otelobs.Annotate(ctx,
		attribute.String(otelobs.AttrDominant, checkResult.CurrentDominant),
		attribute.Int("pipetriage.drift_total", checkResult.Summary.Total),
		attribute.String("pipetriage.outcome", checkResult.Outcome),
	)

	out := cmd.OutOrStdout()
	if diffFormatFlag == "json" {
		jsonOutput, jsonErr := FormatJSONOutput(checkResult)
		if jsonErr != nil {
			resultStatus = "fail"
			return fmt.Errorf("failed to format JSON output: %w", jsonErr)
		}
		fmt.Fprintln(out, string(jsonOutput))
	} else {
		fmt.Fprint(out, FormatTextOutput(checkResult))
	}

	if checkResult.Outcome == "FAIL" {
		resultStatus = "fail"
		return &ExitError{Code: 1}
	}

	resultStatus = "success"
	return nil
}

// loadReport reads a saved report, or evaluates a values file
func loadReport(cmd *cobra.Command, path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var probe struct {
		Summaries json.RawMessage `json:"summaries"`
	}
	if json.Unmarshal(data, &probe) == nil && probe.Summaries != nil {
		var report models.Report
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
		}
		if report.Values == nil {
			report.Values = models.NewAssignment()
		}
		return &report, nil
	}

	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	assignment, err := readAssignment(path, nil)
	if err != nil {
		return nil, err
	}
	return evaluate(cmd.Context(), cat, assignment, 0)
}
