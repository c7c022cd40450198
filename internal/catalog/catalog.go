// Package catalog holds the immutable table of parameter rules.
//
// A Catalog is built once, validated at construction, and shared read-only
// by the evaluator, aggregator and graph builder.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pipetriage/pipetriage/internal/models"
)

// ErrCatalogIntegrity is wrapped by every construction failure
var ErrCatalogIntegrity = errors.New("catalog integrity error")

// ParameterRule defines one evaluable parameter
type ParameterRule struct {
	Key       string           `yaml:"key" json:"key"`
	Mechanism models.Mechanism `yaml:"mechanism" json:"mechanism"`
	Kind      models.ValueKind `yaml:"kind" json:"kind"`
	Alert     Threshold        `yaml:"alert" json:"alert"`
	Critical  *Threshold       `yaml:"critical,omitempty" json:"critical,omitempty"`
	Advisory  string           `yaml:"advisory" json:"advisory"`

	// display metadata, opaque to evaluation
	Driver    string `yaml:"driver,omitempty" json:"driver,omitempty"`
	Label     string `yaml:"label,omitempty" json:"label,omitempty"`
	Unit      string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Criterion string `yaml:"criterion,omitempty" json:"criterion,omitempty"`
}

// Problem is one integrity violation
type Problem struct {
	Key    string
	Reason string
}

// IntegrityError lists every violation found while building a catalog
type IntegrityError struct {
	Problems []Problem
}

func (e *IntegrityError) Error() string {
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Key == "" {
			lines = append(lines, p.Reason)
			continue
		}
		lines = append(lines, fmt.Sprintf("parameter %q: %s", p.Key, p.Reason))
	}
	return "catalog integrity error:\n  " + strings.Join(lines, "\n  ")
}

func (e *IntegrityError) Unwrap() error { return ErrCatalogIntegrity }

// Catalog is the read-only rule table
type Catalog struct {
	name   string
	rules  []ParameterRule
	byKey  map[string]int
	digest string
}

// New validates rules and builds a catalog. Declaration order is preserved.
func New(name string, rules []ParameterRule) (*Catalog, error) {
	var problems []Problem
	byKey := make(map[string]int, len(rules))

	for i, r := range rules {
		problems = append(problems, validateRule(r)...)
		if r.Key == "" {
			continue
		}
		if _, dup := byKey[r.Key]; dup {
			problems = append(problems, Problem{Key: r.Key, Reason: "duplicate key"})
			continue
		}
		byKey[r.Key] = i
	}

	if len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}

	owned := make([]ParameterRule, len(rules))
	for i, r := range rules {
		owned[i] = r
		if r.Critical != nil {
			c := *r.Critical
			owned[i].Critical = &c
		}
	}

	digest, err := digestRules(owned)
	if err != nil {
		return nil, fmt.Errorf("failed to digest catalog: %w", err)
	}

	return &Catalog{
		name:   name,
		rules:  owned,
		byKey:  byKey,
		digest: digest,
	}, nil
}

// validateRule checks a single rule in isolation
func validateRule(r ParameterRule) []Problem {
	var problems []Problem
	add := func(reason string, args ...any) {
		problems = append(problems, Problem{Key: r.Key, Reason: fmt.Sprintf(reason, args...)})
	}

	if strings.TrimSpace(r.Key) == "" {
		add("empty key")
	}
	if reservedKey(r.Key) {
		add("key collides with a graph node id (root or a mechanism code)")
	}
	if !r.Mechanism.Valid() {
		add("mechanism %q is not one of %v", r.Mechanism, models.CanonicalMechanisms)
	}
	if r.Kind != models.KindNumeric && r.Kind != models.KindBoolean {
		add("invalid kind %q (use numeric or boolean)", r.Kind)
		return problems
	}

	switch k := r.Alert.Kind(); {
	case k == "":
		add("unknown alert operator %q", r.Alert.Op)
	case k != r.Kind:
		add("alert operator %q does not apply to %s values", r.Alert.Op, r.Kind)
	}

	if r.Critical != nil {
		switch k := r.Critical.Kind(); {
		case r.Kind == models.KindBoolean:
			add("boolean parameters cannot have a critical test")
		case k == "":
			add("unknown critical operator %q", r.Critical.Op)
		case k != r.Kind:
			add("critical operator %q does not apply to %s values", r.Critical.Op, r.Kind)
		case r.Alert.direction() != 0 && r.Critical.direction() != r.Alert.direction():
			add("critical test %q points the opposite way from alert test %q", r.Critical.String(), r.Alert.String())
		}
	}

	return problems
}

// reservedKey: parameter keys share the graph id space with the root and
// mechanism nodes
func reservedKey(key string) bool {
	if key == models.RootNodeID {
		return true
	}
	for _, m := range models.CanonicalMechanisms {
		if key == string(m) {
			return true
		}
	}
	return false
}

// Name of the catalog
func (c *Catalog) Name() string { return c.name }

// Digest is a sha256 fingerprint of the rule table
func (c *Catalog) Digest() string { return c.digest }

// Lookup a rule by key
func (c *Catalog) Lookup(key string) (ParameterRule, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return ParameterRule{}, false
	}
	return c.rules[i], true
}

// Keys in declaration order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.rules))
	for i, r := range c.rules {
		keys[i] = r.Key
	}
	return keys
}

// Rules in declaration order (copy)
func (c *Catalog) Rules() []ParameterRule {
	out := make([]ParameterRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// RulesFor mechanism in declaration order
func (c *Catalog) RulesFor(m models.Mechanism) []ParameterRule {
	var out []ParameterRule
	for _, r := range c.rules {
		if r.Mechanism == m {
			out = append(out, r)
		}
	}
	return out
}

// Mechanisms returns the full closed set in canonical order,
// independent of which mechanisms the rules reference.
func (c *Catalog) Mechanisms() []models.Mechanism {
	out := make([]models.Mechanism, len(models.CanonicalMechanisms))
	copy(out, models.CanonicalMechanisms)
	return out
}

// Len number of rules
func (c *Catalog) Len() int { return len(c.rules) }
