package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/pipetriage/pipetriage/internal/differ"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/observability"
)

// MaxErrorLength is the maximum length for error strings in receipts.
const MaxErrorLength = 2048

// Session tracks command execution
type Session struct {
	ctx     context.Context
	start   time.Time
	command string
	args    []string
}

// Start session
func Start(ctx context.Context, cmd string, args []string) *Session {
	return &Session{
		ctx:     ctx,
		start:   time.Now(),
		command: cmd,
		args:    args,
	}
}

// Option configures receipt
type Option func(*Receipt)

// WithCatalog option
func WithCatalog(name, digest, path string) Option {
	return func(r *Receipt) {
		if digest == "" {
			return
		}
		r.Catalog = &CatalogRef{Name: name, Digest: digest, Path: path}
	}
}

// WithTriage summarizes a report; nil reports are skipped
func WithTriage(report *models.Report) Option {
	return func(r *Receipt) {
		if report == nil {
			return
		}
		normal, alert, critical := report.SeverityCounts()
		t := &TriageSummary{
			Parameters: report.Values.Len(),
			Normal:     normal,
			Alert:      alert,
			Critical:   critical,
		}
		if report.Dominant != nil {
			t.Dominant = string(*report.Dominant)
		}
		for _, s := range report.Summaries {
			if s.Severity != models.LevelNormal {
				t.Activated = append(t.Activated, fmt.Sprintf("%s:%s", s.Mechanism, s.Severity))
			}
		}
		r.Triage = t
	}
}

// WithDrift counts drift items by severity. move reads "M1 -> M4".
func WithDrift(result *differ.Result, move string) Option {
	return func(r *Receipt) {
		if result == nil {
			return
		}
		d := &DriftSummary{Summary: move}
		for _, item := range result.Drifts {
			switch item.Severity {
			case differ.SeverityCritical:
				d.Critical++
			case differ.SeverityModerate:
				d.Moderate++
			default:
				d.Info++
			}
		}
		r.Drift = d
	}
}

// WithPolicy records the decision and every failed rule
func WithPolicy(preset, status string, results []models.PolicyResult) Option {
	return func(r *Receipt) {
		if status == "" {
			return
		}
		p := &PolicySummary{Preset: preset, Status: status}
		for _, res := range results {
			if !res.Passed {
				p.RulesHit = append(p.RulesHit, RuleHit{Name: res.RuleName, Severity: string(res.Severity)})
			}
		}
		r.Policy = p
	}
}

// Finish and write receipt. A no-op when no writer is in the context.
func (s *Session) Finish(err error, opts ...Option) error {
	w := From(s.ctx)
	if w == nil {
		return nil
	}

	redactedArgs, wasRedacted := RedactArgs(s.args)

	r := Receipt{
		SchemaVersion: ReceiptSchemaVersion,
		OpID:          observability.OpID(s.ctx),
		TsStart:       s.start.UTC().Format(time.RFC3339Nano),
		TsEnd:         time.Now().UTC().Format(time.RFC3339Nano),
		Command:       s.command,
		Args:          redactedArgs,
		ArgsRedacted:  wasRedacted,
		Result:        Result{Status: "success"},
	}

	if err != nil {
		r.Result = Result{
			Status: "fail",
			Error:  truncateError(err.Error()),
		}
	}

	for _, opt := range opts {
		opt(&r)
	}

	return w.Write(r)
}

// truncateError helper
func truncateError(s string) string {
	if len(s) <= MaxErrorLength {
		return s
	}
	return s[:MaxErrorLength-3] + "..."
}
