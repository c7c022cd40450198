package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/pipetriage/pipetriage/internal/policy"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

// policyCmd group
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Triage policy commands",
	Long:  `Gate inspections on CEL rules over the triage report.`,
}

// policyCheckCmd
var policyCheckCmd = &cobra.Command{
	Use:   "check [--policy file | --preset name] [--values file] [--set key=value]...",
	Short: "Check an inspection against a triage policy",
	Long: `Evaluate the readings, then run the policy's CEL rules over the report.

Rules see the report as 'input':
  input.dominant                      "M1".."M12" or ""
  input.mechanisms.M4.severity        "normal" | "alert" | "critical"
  input.mechanisms.M4.activated       number of activated parameters
  input.mechanisms.M4.drivers         ["aislamiento", ...]
  input.outcomes                      [{parameter, mechanism, level}, ...]
  input.values                        {"ph": 5.5, "deadlegs": true, ...}
  input.counts.critical               mechanisms at critical

Without --policy or --preset the warn-only 'inspection' preset is used.

Example:
  pipetriage policy check --preset strict --values inspection.yaml`,
	SilenceUsage: true,
	RunE:         runPolicyCheck,
}

var policyListCmd = &cobra.Command{
	Use:          "presets",
	Short:        "List built-in policy presets",
	SilenceUsage: true,
	RunE:         runPolicyPresets,
}

var (
	policyFile   string
	policyPreset string
	policyValues string
	policySet    []string
)

func init() {
	policyCheckCmd.Flags().StringVarP(&policyFile, "policy", "P", "", "Path to policy YAML file")
	policyCheckCmd.Flags().StringVar(&policyPreset, "preset", "", "Use built-in policy preset: inspection (warn-only) or strict")
	policyCheckCmd.Flags().StringVarP(&policyValues, "values", "f", "", "Path to a YAML or JSON file of parameter readings")
	policyCheckCmd.Flags().StringArrayVar(&policySet, "set", nil, "Reading as key=value (repeatable)")
	policyCmd.AddCommand(policyCheckCmd)
	policyCmd.AddCommand(policyListCmd)
}

// GetPolicyCmd export
func GetPolicyCmd() *cobra.Command {
	return policyCmd
}

func runPolicyCheck(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "pipetriage policy check", os.Args[1:])
	var receiptOpts []receipt.Option
	var policyStatus string
	var presetName string
	var policyResults []models.PolicyResult

	defer func() {
		receiptOpts = append(receiptOpts, receipt.WithPolicy(presetName, policyStatus, policyResults))
		_ = sess.Finish(err, receiptOpts...)
	}()

	log := logging.From(ctx)
	start := time.Now()

	ctx, end := otelobs.Start(ctx, "policy.check", attribute.String("pipetriage.preset", policyPreset))
	defer func() { end(err) }()

	log.Event(ctx, "policy_check.start", nil)

	var resultStatus string
	defer func() {
		log.Event(ctx, "policy_check.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	policyConfig, err := policy.Load(policyFile, policyPreset)
	if err != nil {
		resultStatus = "fail"
		policyStatus = "fail"
		return fmt.Errorf("failed to load policy: %w", err)
	}
	presetName = policyPreset
	switch {
	case presetName == "" && policyFile == "":
		presetName = "inspection"
	case presetName == "":
		presetName = "custom"
	}

	cat, err := loadCatalog()
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	assignment, err := readAssignment(policyValues, policySet)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("failed to read values: %w", err)
	}
	report, err := evaluate(ctx, cat, assignment, 0)
	if err != nil {
		resultStatus = "fail"
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithTriage(report))

	results, err := runPolicy(policyConfig, report)
	if err != nil {
		resultStatus = "fail"
		return err
	}

	decision := policy.Decide(policyConfig, results)
	policyStatus = string(decision)
	policyResults = results
	otelobs.Annotate(ctx, attribute.String("pipetriage.policy_decision", policyStatus))

	fmt.Fprint(cmd.OutOrStdout(), FormatPolicyText(policyConfig, results, decision))

	if decision == policy.DecisionFail {
		resultStatus = "fail"
		return &ExitError{Code: 1}
	}
	resultStatus = "success"
	return nil
}

func runPolicyPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range policy.ListPresetNames() {
		p := policy.MustGetPreset(name)
		mode := p.Mode
		if mode == "" {
			mode = models.PolicyModeStrict
		}
		fmt.Fprintf(out, "%-12s %-7s %d rules  %s\n", name, mode, len(p.Rules), p.Name)
	}
	return nil
}

// evaluatePolicy resolves a preset name or policy file and runs it
func evaluatePolicy(nameOrPath string, report *models.Report) (*models.PolicyConfig, []models.PolicyResult, error) {
	var config *models.PolicyConfig
	var err error
	if preset := policy.GetPreset(nameOrPath); preset != nil {
		config = preset
	} else {
		config, err = policy.Load(nameOrPath, "")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load policy: %w", err)
		}
	}

	results, err := runPolicy(config, report)
	if err != nil {
		return nil, nil, err
	}
	return config, results, nil
}

func runPolicy(config *models.PolicyConfig, report *models.Report) ([]models.PolicyResult, error) {
	engine, err := policy.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create policy engine: %w", err)
	}
	if err := engine.CompileAndValidate(config); err != nil {
		return nil, err
	}
	results, err := engine.Evaluate(config, report)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}
	return results, nil
}

// FormatPolicyText renders per-rule marks and the overall decision
func FormatPolicyText(config *models.PolicyConfig, results []models.PolicyResult, decision policy.Decision) string {
	var sb strings.Builder
	w := &sb
	fmt.Fprintf(w, "%s%sPolicy:%s %s\n\n", colorBold, colorYellow, colorReset, config.Name)

	fmt.Fprintf(w, "%s%sResults:%s\n", colorBold, colorYellow, colorReset)
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for _, result := range results {
		switch {
		case result.Passed:
			fmt.Fprintf(w, "%s✓%s %s\n", colorGreen, colorReset, result.RuleName)
		case result.Severity == models.PolicySeverityWarn:
			fmt.Fprintf(w, "%s⚠%s %s\n", colorYellow, colorReset, result.RuleName)
			fmt.Fprintf(w, "  %s→ %s%s\n", colorYellow, result.FailureMsg, colorReset)
		default:
			fmt.Fprintf(w, "%s✗%s %s\n", colorRed, colorReset, result.RuleName)
			fmt.Fprintf(w, "  %s→ %s%s\n", colorRed, result.FailureMsg, colorReset)
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))

	switch decision {
	case policy.DecisionPass:
		fmt.Fprintf(w, "\n%s%s✓ All policy checks passed%s\n", colorBold, colorGreen, colorReset)
	case policy.DecisionWarn:
		fmt.Fprintf(w, "\n%s%s⚠ Policy check passed with warnings%s\n", colorBold, colorYellow, colorReset)
	default:
		if config.Mode != models.PolicyModeWarn && !hasErrorFailure(results) {
			fmt.Fprintf(w, "\n%s%s✗ Policy check failed (strict mode)%s\n", colorBold, colorRed, colorReset)
		} else {
			fmt.Fprintf(w, "\n%s%s✗ Policy check failed%s\n", colorBold, colorRed, colorReset)
		}
	}
	return sb.String()
}

func hasErrorFailure(results []models.PolicyResult) bool {
	for _, r := range results {
		if !r.Passed && r.Severity != models.PolicySeverityWarn {
			return true
		}
	}
	return false
}
