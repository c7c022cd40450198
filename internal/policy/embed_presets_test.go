package policy

import (
	"testing"

	"github.com/pipetriage/pipetriage/internal/models"
)

// TestEmbeddedPresetFilesExist fails when the //go:embed directive or the
// preset paths drift apart.
func TestEmbeddedPresetFilesExist(t *testing.T) {
	for name, path := range presetFiles {
		t.Run(name, func(t *testing.T) {
			data, err := presetFS.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read embedded file %q: %v (check //go:embed directive)", path, err)
			}
			if len(data) < 10 {
				t.Errorf("embedded file %q suspiciously small (%d bytes)", path, len(data))
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	tests := []struct {
		name string
		mode models.PolicyMode
	}{
		{"inspection", models.PolicyModeWarn},
		{"strict", models.PolicyModeStrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset := GetPreset(tt.name)
			if preset == nil {
				t.Fatalf("GetPreset(%q) returned nil (check embed directive and YAML parsing)", tt.name)
			}
			if preset.Name == "" {
				t.Errorf("preset %q has empty Name field", tt.name)
			}
			if preset.Mode != tt.mode {
				t.Errorf("preset %q mode = %q, want %q", tt.name, preset.Mode, tt.mode)
			}
			for _, rule := range preset.Rules {
				if rule.Name == "" || rule.Expr == "" || rule.FailureMsg == "" {
					t.Errorf("preset %q has incomplete rule %+v", tt.name, rule)
				}
			}
			if GetPreset(tt.name) != preset {
				t.Error("second lookup should hit the cache")
			}
		})
	}

	if GetPreset("baseline") != nil {
		t.Error("unknown preset should return nil")
	}
}

func TestListPresetNames(t *testing.T) {
	names := ListPresetNames()
	if len(names) != 2 || names[0] != "inspection" || names[1] != "strict" {
		t.Errorf("ListPresetNames = %v", names)
	}
}
