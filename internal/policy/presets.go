// Package policy evaluates CEL triage policies over reports and ships the
// built-in presets.
package policy

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/pipetriage/pipetriage/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

var (
	presetMu    sync.Mutex
	presetCache = map[string]*models.PolicyConfig{}
)

// presetFiles maps preset names to embedded file paths
var presetFiles = map[string]string{
	"inspection": "presets/inspection.yaml",
	"strict":     "presets/strict.yaml",
}

// GetPreset returns a policy preset by name, or nil if not found
func GetPreset(name string) *models.PolicyConfig {
	presetMu.Lock()
	defer presetMu.Unlock()

	if cached, ok := presetCache[name]; ok {
		return cached
	}

	path, ok := presetFiles[name]
	if !ok {
		return nil
	}

	data, err := presetFS.ReadFile(path)
	if err != nil {
		return nil
	}

	config, err := Parse(data)
	if err != nil {
		return nil
	}

	presetCache[name] = config
	return config
}

// ListPresetNames sorted
func ListPresetNames() []string {
	names := make([]string, 0, len(presetFiles))
	for name := range presetFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGetPreset returns a preset or panics (for tests)
func MustGetPreset(name string) *models.PolicyConfig {
	p := GetPreset(name)
	if p == nil {
		panic(fmt.Sprintf("preset %q not found", name))
	}
	return p
}

// Parse a policy YAML document
func Parse(data []byte) (*models.PolicyConfig, error) {
	var config models.PolicyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	if len(config.Rules) == 0 {
		return nil, fmt.Errorf("policy must have at least one rule")
	}
	return &config, nil
}

// Load resolves a preset name or a policy file. Preset wins when both are set.
func Load(path, preset string) (*models.PolicyConfig, error) {
	if preset != "" {
		if p := GetPreset(preset); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, ListPresetNames())
	}
	if path == "" {
		return MustGetPreset("inspection"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}
