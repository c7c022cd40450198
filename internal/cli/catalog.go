package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/spf13/cobra"
)

// catalogCmd group
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the rule catalog",
	Long:  `List, document and validate the parameter rules used for triage.`,
}

var catalogListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List every parameter key with its mechanism and criterion",
	SilenceUsage: true,
	RunE:         runCatalogList,
}

var catalogTableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the per-mechanism reference table",
	Long: `Print the reference table generated from the catalog: one section per
mechanism with driver id, parameter, criterion and advisory.`,
	SilenceUsage: true,
	RunE:         runCatalogTable,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog file for integrity errors",
	Long: `Validate a catalog YAML without evaluating anything. Every problem is
reported (duplicate keys, unknown mechanisms, operators that do not fit the
parameter kind, critical tests pointing the other way).`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCatalogValidate,
}

var catalogFormatFlag string

func init() {
	catalogListCmd.Flags().StringVar(&catalogFormatFlag, "format", "text", "Output format: text or json")
	catalogTableCmd.Flags().StringVar(&catalogFormatFlag, "format", "text", "Output format: text, markdown, or json")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogTableCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}

// GetCatalogCmd export
func GetCatalogCmd() *cobra.Command {
	return catalogCmd
}

func runCatalogList(cmd *cobra.Command, args []string) (err error) {
	sess := receipt.Start(cmd.Context(), "pipetriage catalog list", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	if err := validateFormat(catalogFormatFlag, "text", "json"); err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	out := cmd.OutOrStdout()
	if catalogFormatFlag == "json" {
		return writeJSON(out, cat.Rules())
	}

	fmt.Fprintf(out, "%s%s%s (%d parameters, %s)\n\n", colorBold, cat.Name(), colorReset, cat.Len(), cat.Digest())
	for _, r := range cat.Rules() {
		fmt.Fprintf(out, "  %-24s %-4s %-8s %s\n", r.Key, r.Mechanism, r.Kind, catalog.Criterion(r))
	}
	return nil
}

func runCatalogTable(cmd *cobra.Command, args []string) (err error) {
	sess := receipt.Start(cmd.Context(), "pipetriage catalog table", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	if err := validateFormat(catalogFormatFlag, "text", "markdown", "json"); err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	out := cmd.OutOrStdout()
	switch catalogFormatFlag {
	case "json":
		return writeJSON(out, cat.ReferenceTable())
	case "markdown":
		fmt.Fprint(out, catalog.Markdown(cat.ReferenceTable(), "##"))
	default:
		fmt.Fprint(out, FormatReferenceText(cat.ReferenceTable()))
	}
	return nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) (err error) {
	sess := receipt.Start(cmd.Context(), "pipetriage catalog validate", os.Args[1:])
	defer func() { _ = sess.Finish(err) }()

	out := cmd.OutOrStdout()
	cat, err := catalog.Load(args[0])
	if err != nil {
		var integrity *catalog.IntegrityError
		if errors.As(err, &integrity) {
			fmt.Fprintf(out, "%s✗ %s: %d problem(s)%s\n", colorRed, args[0], len(integrity.Problems), colorReset)
			for _, p := range integrity.Problems {
				fmt.Fprintf(out, "  - %s: %s\n", orDash(p.Key), p.Reason)
			}
			return &ExitError{Code: 1}
		}
		return err
	}

	fmt.Fprintf(out, "%s✓ %s: %d parameters, %s%s\n", colorGreen, cat.Name(), cat.Len(), cat.Digest(), colorReset)
	return nil
}

// FormatReferenceText renders the reference table for the terminal
func FormatReferenceText(sections []catalog.ReferenceSection) string {
	var sb strings.Builder
	for _, section := range sections {
		sb.WriteString(fmt.Sprintf("%s%s %s%s\n", colorBold, section.Mechanism, section.Name, colorReset))
		if len(section.Rows) == 0 {
			sb.WriteString("  (no parameters)\n\n")
			continue
		}
		for _, r := range section.Rows {
			label := r.Label
			if r.Unit != "" {
				label += " [" + r.Unit + "]"
			}
			sb.WriteString(fmt.Sprintf("  %-7s %-36s %s\n", r.Driver, label, r.Criterion))
			if r.Advisory != "" {
				sb.WriteString(fmt.Sprintf("          %s\n", r.Advisory))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
