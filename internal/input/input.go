// Package input reads value assignments from YAML/JSON documents and
// key=value pairs. Keys are not checked against any catalog here.
package input

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pipetriage/pipetriage/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseFile reads a YAML or JSON mapping from disk
func ParseFile(path string) (*models.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file: %w", err)
	}
	a, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ParseDocument parses a YAML or JSON mapping of key -> number|bool.
// Document order becomes assignment order.
func ParseDocument(data []byte) (*models.Assignment, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse values: %w", err)
	}

	a := models.NewAssignment()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return a, nil // empty document
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("values must be a mapping of parameter -> value (line %d)", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := strings.TrimSpace(keyNode.Value)
		if key == "" {
			return nil, fmt.Errorf("empty parameter name (line %d)", keyNode.Line)
		}
		v, err := scalarValue(valNode)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		a.Set(key, v)
	}

	return a, nil
}

// scalarValue maps a YAML scalar to a numeric or boolean value
func scalarValue(n *yaml.Node) (models.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return models.Value{}, fmt.Errorf("value must be a number or boolean (line %d)", n.Line)
	}
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return models.Value{}, err
		}
		return models.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return models.Value{}, err
		}
		return models.Number(f), nil
	default:
		return models.Value{}, fmt.Errorf("value %q must be a number or boolean (line %d)", n.Value, n.Line)
	}
}

// ParsePairs parses key=value strings, e.g. from repeated --set flags
func ParsePairs(pairs []string) (*models.Assignment, error) {
	a := models.NewAssignment()
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid value %q (use key=value)", p)
		}
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		a.Set(key, v)
	}
	return a, nil
}

// ParseValue reads "true"/"false" as booleans and anything else as a float
func ParseValue(raw string) (models.Value, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true":
		return models.Bool(true), nil
	case "false":
		return models.Bool(false), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Value{}, fmt.Errorf("value %q must be a number or boolean", raw)
	}
	return models.Number(f), nil
}

// Merge returns base with every reading of overlay applied on top
func Merge(base, overlay *models.Assignment) *models.Assignment {
	out := models.NewAssignment(base.Readings()...)
	for _, r := range overlay.Readings() {
		out.Set(r.Key, r.Value)
	}
	return out
}
