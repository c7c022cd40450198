package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// execute runs the root command and returns its output with colors removed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := shutdown(); closeErr != nil {
		t.Errorf("shutdown: %v", closeErr)
	}
	return ansiEscape.ReplaceAllString(out.String(), ""), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestEvaluateCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	values := writeFile(t, dir, "inspection.yaml", "ph: 5.5\npco2: 1.2\ndeadlegs: true\n")

	out, err := execute(t, "evaluate", "--values", values, "--set", "aislamiento=true", "--format", "json")
	if err != nil {
		t.Fatalf("evaluate failed: %v\n%s", err, out)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if report.Dominant == nil || *report.Dominant != models.MechanismGeneralCorrosion {
		t.Errorf("Dominant = %v, want M1", report.Dominant)
	}
	readings := report.Values.Readings()
	if len(readings) != 4 || readings[3].Key != "aislamiento" {
		t.Errorf("--set reading should be appended after file readings: %v", readings)
	}
}

func TestEvaluateCmd_Text(t *testing.T) {
	out, err := execute(t, "evaluate", "--set", "t_externa=-5", "--set", "patron_rotura=true")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	for _, want := range []string{"Mechanisms", "M12", "Dominant:", "Freeze damage", "Recommendations"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluateCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown parameter", []string{"evaluate", "--set", "viscosity=3"}, "unknown parameter"},
		{"type mismatch", []string{"evaluate", "--set", "deadlegs=4"}, "type mismatch"},
		{"bad pair", []string{"evaluate", "--set", "ph"}, "key=value"},
		{"bad format", []string{"evaluate", "--format", "xml"}, "invalid format"},
		{"missing file", []string{"evaluate", "--values", "/nonexistent/values.yaml"}, "failed to read values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestEvaluateCmd_Receipt(t *testing.T) {
	dir := t.TempDir()
	receiptPath := filepath.Join(dir, "receipts", "run.json")

	if _, err := execute(t, "--receipt", receiptPath, "evaluate", "--set", "ph=5"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	data, err := os.ReadFile(receiptPath)
	if err != nil {
		t.Fatalf("receipt not written: %v", err)
	}
	var r map[string]any
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("receipt is not JSON: %v", err)
	}
	if r["command"] != "pipetriage evaluate" {
		t.Errorf("command = %v", r["command"])
	}
	triage, ok := r["triage"].(map[string]any)
	if !ok || triage["dominant"] != "M1" {
		t.Errorf("triage = %v", r["triage"])
	}
	if _, ok := r["catalog"].(map[string]any); !ok {
		t.Errorf("catalog missing from receipt: %s", data)
	}
}

func TestEvaluateCmd_JSONLLogs(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "triage.log")

	if _, err := execute(t, "--log-format", "jsonl", "--log-output", logPath, "evaluate", "--set", "ph=7"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and complete events, got %d lines:\n%s", len(lines), data)
	}
	var complete map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &complete); err != nil {
		t.Fatal(err)
	}
	if complete["event"] != "pipetriage.evaluate.complete" {
		t.Errorf("event = %v", complete["event"])
	}
	if fields, _ := complete["fields"].(map[string]any); fields["result"] != "success" {
		t.Errorf("fields = %v", complete["fields"])
	}
}

func TestGraphCmd(t *testing.T) {
	t.Run("structure dot", func(t *testing.T) {
		out, err := execute(t, "graph", "--structure", "--format", "dot")
		if err != nil {
			t.Fatalf("graph failed: %v", err)
		}
		if !strings.HasPrefix(out, "digraph pipetriage {") || !strings.Contains(out, `"M12" -> "t_externa"`) {
			t.Errorf("unexpected DOT:\n%s", out)
		}
	})

	t.Run("evidence json", func(t *testing.T) {
		out, err := execute(t, "graph", "--set", "ph=5", "--set", "deadlegs=false")
		if err != nil {
			t.Fatalf("graph failed: %v", err)
		}
		var g models.Graph
		if err := json.Unmarshal([]byte(out), &g); err != nil {
			t.Fatalf("not a graph: %v", err)
		}
		if n := len(g.NodesOfType(models.NodeParameter)); n != 2 {
			t.Errorf("parameter nodes = %d, want 2", n)
		}
	})

	t.Run("nothing to graph", func(t *testing.T) {
		_, err := execute(t, "graph")
		if err == nil || !strings.Contains(err.Error(), "no evaluation available") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("structure with readings", func(t *testing.T) {
		if _, err := execute(t, "graph", "--structure", "--set", "ph=5"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCatalogCmd(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		out, err := execute(t, "catalog", "list")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "pco2") || !strings.Contains(out, ">= 0.3 bar alert; >= 1 bar critical") {
			t.Errorf("unexpected list:\n%s", out)
		}
	})

	t.Run("table markdown", func(t *testing.T) {
		out, err := execute(t, "catalog", "table", "--format", "markdown")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "## M4 Corrosion under insulation") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("validate bad catalog", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bad.yaml", `name: bad
parameters:
  - {key: ph, mechanism: M1, kind: numeric, alert: {op: lte, value: 6}}
  - {key: ph, mechanism: M9, kind: boolean, alert: {op: gte, value: 1}}
`)
		out, err := execute(t, "catalog", "validate", path)
		if exitCode(err) != 1 {
			t.Fatalf("err = %v, want exit 1", err)
		}
		if !strings.Contains(out, "problem(s)") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("custom catalog flag", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "site.yaml", `name: site
parameters:
  - {key: ph, mechanism: M1, kind: numeric, alert: {op: lte, value: 5}}
`)
		out, err := execute(t, "--catalog", path, "evaluate", "--set", "ph=5.5", "--format", "json")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, `"dominant": null`) {
			t.Errorf("site threshold should keep ph=5.5 normal:\n%s", out)
		}
	})
}

func TestPolicyCheckCmd(t *testing.T) {
	t.Run("strict fails on critical", func(t *testing.T) {
		out, err := execute(t, "policy", "check", "--preset", "strict", "--set", "pco2=2")
		if exitCode(err) != 1 {
			t.Fatalf("err = %v, want exit 1", err)
		}
		if !strings.Contains(out, "✗ no_critical_mechanism") || !strings.Contains(out, "Policy check failed") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("inspection preset warns", func(t *testing.T) {
		out, err := execute(t, "policy", "check", "--set", "pco2=2")
		if err != nil {
			t.Fatalf("warn-only preset should not fail: %v", err)
		}
		if !strings.Contains(out, "passed with warnings") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("custom policy file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "policy.yaml", `name: "No CUI"
rules:
  - name: no_cui
    expr: 'input.mechanisms.M4.activated == 0'
    failure_msg: "CUI drivers present"
`)
		out, err := execute(t, "policy", "check", "--policy", path, "--set", "ph=7")
		if err != nil {
			t.Fatalf("policy should pass: %v\n%s", err, out)
		}
		if !strings.Contains(out, "All policy checks passed") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("invalid expression", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "policy.yaml", `name: broken
rules:
  - name: broken
    expr: 'input.dominant =='
    failure_msg: "x"
`)
		if _, err := execute(t, "policy", "check", "--policy", path); err == nil || exitCode(err) == 1 {
			t.Errorf("err = %v, want a load error", err)
		}
	})

	t.Run("presets", func(t *testing.T) {
		out, err := execute(t, "policy", "presets")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "inspection") || !strings.Contains(out, "strict") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestDiffCmd(t *testing.T) {
	dir := t.TempDir()
	baseValues := writeFile(t, dir, "base.yaml", "ph: 7\npco2: 0.5\n")
	curValues := writeFile(t, dir, "cur.yaml", "ph: 7\npco2: 1.5\n")

	// save the baseline as a report, as users would
	baseReport, err := execute(t, "evaluate", "--values", baseValues, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	baseReportPath := writeFile(t, dir, "base.json", baseReport)

	t.Run("escalation fails on critical", func(t *testing.T) {
		out, err := execute(t, "diff", "--baseline", baseReportPath, "--current", curValues, "--format", "json")
		if exitCode(err) != 1 {
			t.Fatalf("err = %v, want exit 1", err)
		}
		var result CheckResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if result.Summary.Critical == 0 || result.Outcome != "FAIL" {
			t.Errorf("result = %+v", result)
		}
		if result.Drift[0].Type != "SEVERITY_ESCALATED" || result.Drift[0].Identifier != "M1" {
			t.Errorf("first drift = %+v", result.Drift[0])
		}
	})

	t.Run("identical inspections pass", func(t *testing.T) {
		out, err := execute(t, "diff", "--baseline", baseReportPath, "--current", baseValues)
		if err != nil {
			t.Fatalf("diff failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "No drift detected") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("policy on current", func(t *testing.T) {
		out, err := execute(t, "diff", "--baseline", baseValues, "--current", baseValues, "--policy", "strict")
		if exitCode(err) != 1 {
			t.Fatalf("strict policy should deny alerts only in strict mode: err = %v\n%s", err, out)
		}
		if !strings.Contains(out, "no_alerts") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("bad fail-on", func(t *testing.T) {
		if _, err := execute(t, "diff", "--baseline", baseValues, "--current", baseValues, "--fail-on", "never"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestServeCmd_RejectsStdoutLogs(t *testing.T) {
	_, err := execute(t, "--log-output", "stdout", "serve")
	if err == nil || !strings.Contains(err.Error(), "corrupt the MCP stream") {
		t.Errorf("err = %v", err)
	}
}

func TestRootCmd_InvalidObservabilityFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"log format", []string{"--log-format", "xml", "catalog", "list"}},
		{"otel protocol", []string{"--otel", "--otel-protocol", "zipkin", "catalog", "list"}},
		{"sample ratio", []string{"--otel", "--otel-sample-ratio", "2", "catalog", "list"}},
		{"receipt mode", []string{"--receipt", filepath.Join(t.TempDir(), "r.json"), "--receipt-mode", "rotate", "catalog", "list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
