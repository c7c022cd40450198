package policy

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pipetriage/pipetriage/internal/models"
)

// Engine is the policy evaluation engine using CEL
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// Evaluate checks rules against a triage report
func (e *Engine) Evaluate(config *models.PolicyConfig, report *models.Report) ([]models.PolicyResult, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to evaluate")
	}
	results := make([]models.PolicyResult, 0, len(config.Rules))

	input := ReportInput(report)

	for _, rule := range config.Rules {
		result, err := e.evaluateRule(rule, input)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate rule %q: %w", rule.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// evaluateRule
func (e *Engine) evaluateRule(rule models.PolicyRule, input map[string]interface{}) (models.PolicyResult, error) {
	failed := func(msg string) models.PolicyResult {
		return models.PolicyResult{
			RuleName:   rule.Name,
			Passed:     false,
			Severity:   rule.EffectiveSeverity(),
			FailureMsg: msg,
		}
	}

	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return failed(fmt.Sprintf("CEL compile error: %v", issues.Err())), nil
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return failed(fmt.Sprintf("CEL program error: %v", err)), nil
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"input": input,
	})
	if err != nil {
		return failed(fmt.Sprintf("CEL evaluation error: %v", err)), nil
	}

	passed, ok := out.Value().(bool)
	if !ok {
		return failed(fmt.Sprintf("Rule expression must return boolean, got %T", out.Value())), nil
	}

	result := models.PolicyResult{
		RuleName: rule.Name,
		Passed:   passed,
		Severity: rule.EffectiveSeverity(),
	}
	if !passed {
		result.FailureMsg = rule.FailureMsg
	}

	return result, nil
}

// CompileAndValidate
func (e *Engine) CompileAndValidate(config *models.PolicyConfig) error {
	var errors []string

	switch config.Mode {
	case "", models.PolicyModeStrict, models.PolicyModeWarn:
	default:
		errors = append(errors, fmt.Sprintf("invalid mode %q (use strict or warn)", config.Mode))
	}

	for _, rule := range config.Rules {
		switch rule.Severity {
		case "", models.PolicySeverityError, models.PolicySeverityWarn:
		default:
			errors = append(errors, fmt.Sprintf("rule %q: invalid severity %q (use error or warn)", rule.Name, rule.Severity))
		}
		_, issues := e.env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			errors = append(errors, fmt.Sprintf("rule %q: %v", rule.Name, issues.Err()))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("policy validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}

// Decision of a whole policy run
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionWarn Decision = "warn"
	DecisionFail Decision = "fail"
)

// Decide folds results under the policy mode: errors always fail, warnings
// fail only in strict mode (the default).
func Decide(config *models.PolicyConfig, results []models.PolicyResult) Decision {
	hasErrors, hasWarnings := false, false
	for _, r := range results {
		if r.Passed {
			continue
		}
		if r.Severity == models.PolicySeverityWarn {
			hasWarnings = true
		} else {
			hasErrors = true
		}
	}

	switch {
	case hasErrors:
		return DecisionFail
	case hasWarnings && config.Mode == models.PolicyModeWarn:
		return DecisionWarn
	case hasWarnings:
		return DecisionFail
	default:
		return DecisionPass
	}
}
