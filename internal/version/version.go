// Package version reports the pipetriage build version.
package version

import (
	"runtime/debug"
)

// Version is set with -ldflags "-X .../internal/version.Version=v1.2.3";
// it wins over module build info.
var Version = ""

// Swappable for testing
var readBuildInfo = debug.ReadBuildInfo

// BuildVersion returns the release version, or "dev" if unavailable.
func BuildVersion() string {
	if Version != "" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// Commit returns the short VCS revision stamped by the go tool, or "".
func Commit() string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

// String for --version output
func String() string {
	if c := Commit(); c != "" {
		return BuildVersion() + " (" + c + ")"
	}
	return BuildVersion()
}
