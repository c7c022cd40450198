package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/input"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	otelobs "github.com/pipetriage/pipetriage/internal/observability/otel"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/pipetriage/pipetriage/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pipetriage",
	Short: "Piping degradation mechanism triage",
	Long: `pipetriage: triage for piping integrity inspections.
Classifies inspection readings into degradation mechanisms (M1 general
corrosion, M2 pitting, M3 erosion, M4 CUI, M5 MIC, M12 freeze damage),
ranks them and maps the evidence.`,
	Version:           version.String(),
	PersistentPreRunE: setupObservability,
	SilenceErrors:     true,
}

var (
	catalogFlag string

	logFormatFlag string
	logLevelFlag  string
	logOutputFlag string

	otelFlag            bool
	otelEndpointFlag    string
	otelProtocolFlag    string
	otelInsecureFlag    bool
	otelSampleRatioFlag float64

	receiptFlag     string
	receiptModeFlag string
)

// ExitError carries a process exit code without an error message, used when
// the output (e.g. JSON) has already been written and must stay clean.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Execute runs the root command and exits non-zero on failure:
// 1 for failed checks, 2 for usage and runtime errors.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := shutdown(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Warning:", closeErr)
	}
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(2)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&catalogFlag, "catalog", "", "Path to a rule catalog YAML (default: built-in catalog)")

	pf.StringVar(&logFormatFlag, "log-format", "pretty", "Log format: pretty or jsonl")
	pf.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, or error")
	pf.StringVar(&logOutputFlag, "log-output", "stderr", "Log output: stderr, stdout, or a file path")

	pf.BoolVar(&otelFlag, "otel", false, "Enable OpenTelemetry tracing")
	pf.StringVar(&otelEndpointFlag, "otel-endpoint", "", "OTLP endpoint (default: $OTEL_EXPORTER_OTLP_ENDPOINT or exporter default)")
	pf.StringVar(&otelProtocolFlag, "otel-protocol", otelobs.ProtocolHTTP, "OTLP protocol: otlphttp or otlpgrpc")
	pf.BoolVar(&otelInsecureFlag, "otel-insecure", false, "Disable TLS for the OTLP exporter")
	pf.Float64Var(&otelSampleRatioFlag, "otel-sample-ratio", 1.0, "Trace sampling ratio between 0 and 1")

	pf.StringVar(&receiptFlag, "receipt", "", "Write an audit receipt for this run to a file")
	pf.StringVar(&receiptModeFlag, "receipt-mode", string(receipt.ModeOverwrite), "Receipt mode: overwrite (single JSON) or append (JSONL)")

	rootCmd.AddCommand(GetEvaluateCmd())
	rootCmd.AddCommand(GetCatalogCmd())
	rootCmd.AddCommand(GetGraphCmd())
	rootCmd.AddCommand(GetDiffCmd())
	rootCmd.AddCommand(GetPolicyCmd())
	rootCmd.AddCommand(GetServeCmd())
}

// setupObservability puts the op id, logger, tracing handle and receipt
// writer on the command context.
func setupObservability(cmd *cobra.Command, args []string) error {
	ctx := observability.EnsureOpID(cmd.Context())

	logCfg := logging.DefaultConfig()
	logCfg.Format = logFormatFlag
	logCfg.Level = logLevelFlag
	logCfg.Output = logOutputFlag
	if cmd.Name() == "serve" {
		logCfg.Component = "mcp"
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, logger)
	closers = append(closers, logger.Close)

	otelCfg := otelobs.DefaultConfig()
	otelCfg.Enabled = otelFlag
	otelCfg.Endpoint = otelEndpointFlag
	otelCfg.Protocol = otelProtocolFlag
	otelCfg.Insecure = otelInsecureFlag
	otelCfg.SampleRatio = otelSampleRatioFlag
	if err := otelCfg.Validate(); err != nil {
		return err
	}
	if otelCfg.Enabled {
		handle, err := otelobs.Init(ctx, otelCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		ctx = otelobs.WithHandle(ctx, handle)
		closers = append(closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return handle.Shutdown(shutdownCtx)
		})
	}

	if receiptFlag != "" {
		w, err := receipt.NewWriter(receiptFlag, receiptModeFlag)
		if err != nil {
			return err
		}
		ctx = receipt.WithWriter(ctx, w)
		closers = append(closers, w.Close)
	}

	cmd.SetContext(ctx)
	return nil
}

// closers run after the command returns, success or not
var closers []func() error

// shutdown flushes spans and closes receipt and log files in reverse order
func shutdown() error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	closers = nil
	return errors.Join(errs...)
}

// loadCatalog honors --catalog
func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(catalogFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// catalogPath for receipts
func catalogPath() string {
	if catalogFlag == "" {
		return "builtin"
	}
	return catalogFlag
}

// readAssignment merges a values file with --set pairs; pairs win
func readAssignment(valuesPath string, pairs []string) (*models.Assignment, error) {
	a := models.NewAssignment()
	if valuesPath != "" {
		fromFile, err := input.ParseFile(valuesPath)
		if err != nil {
			return nil, err
		}
		a = fromFile
	}
	if len(pairs) > 0 {
		overlay, err := input.ParsePairs(pairs)
		if err != nil {
			return nil, err
		}
		a = input.Merge(a, overlay)
	}
	return a, nil
}

func validateFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (use %s)", format, strings.Join(allowed, ", "))
}
