package cli

import (
	"fmt"
	"os"

	"github.com/pipetriage/pipetriage/internal/engine"
	"github.com/pipetriage/pipetriage/internal/observability/logging"
	"github.com/pipetriage/pipetriage/internal/observability/receipt"
	"github.com/pipetriage/pipetriage/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the triage engine as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing triage_evaluate,
triage_catalog and triage_graph, plus the catalog as a resource.

stdout carries the protocol: use --log-output with a file path (or stderr)
when logging in jsonl format.

Example client config:
  {"command": "pipetriage", "args": ["serve", "--log-format", "jsonl"]}`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveWorkersFlag int

func init() {
	serveCmd.Flags().IntVar(&serveWorkersFlag, "workers", engine.DefaultWorkers, "Concurrent parameter evaluations per call")
}

// GetServeCmd returns the serve command
func GetServeCmd() *cobra.Command {
	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "pipetriage serve", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	if logOutputFlag == "stdout" {
		return fmt.Errorf("--log-output stdout would corrupt the MCP stream; use stderr or a file")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, receipt.WithCatalog(cat.Name(), cat.Digest(), catalogPath()))

	log := logging.From(ctx)
	log.Info("mcp", "serving on stdio", "catalog", cat.Name(), "parameters", cat.Len())
	log.Event(ctx, "serve.start", nil)
	defer log.Event(ctx, "serve.stop", nil)

	return server.Serve(ctx, server.NewSession(cat, serveWorkersFlag))
}
