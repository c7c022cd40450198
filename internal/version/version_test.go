package version

import (
	"runtime/debug"
	"testing"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	original := readBuildInfo
	t.Cleanup(func() { readBuildInfo = original })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
}

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		ok   bool
		want string
	}{
		{"release tag", &debug.BuildInfo{Main: debug.Module{Version: "v0.1.0"}}, true, "v0.1.0"},
		{"unavailable", nil, false, "dev"},
		{"devel", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true, "dev"}, // go build/run
		{"empty", &debug.BuildInfo{Main: debug.Module{Version: ""}}, true, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBuildInfo(t, tt.info, tt.ok)
			if got := BuildVersion(); got != tt.want {
				t.Errorf("BuildVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildVersion_LdflagsOverride(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.1.0"}}, true)
	Version = "v9.9.9"
	t.Cleanup(func() { Version = "" })

	if got := BuildVersion(); got != "v9.9.9" {
		t.Errorf("BuildVersion() = %q, want ldflags value", got)
	}
}

func TestCommitAndString(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		},
	}, true)

	if got := Commit(); got != "0123456789ab" {
		t.Errorf("Commit() = %q", got)
	}
	if got := String(); got != "v0.2.0 (0123456789ab)" {
		t.Errorf("String() = %q", got)
	}

	stubBuildInfo(t, nil, false)
	if got := String(); got != "dev" {
		t.Errorf("String() without build info = %q", got)
	}
}
