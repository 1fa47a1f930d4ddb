// Package version holds pydocket's build identity.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time:
// go build -ldflags "-X pydocket/internal/version.Version=0.2.0 -X pydocket/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if c := commit(); len(c) > 7 {
		return Version + " (" + c[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "pydocket version " + Version + "\n" +
		"Commit: " + commit() + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// commit prefers the ldflags value and falls back to the VCS revision
// recorded by the Go toolchain.
func commit() string {
	if Commit != "unknown" {
		return Commit
	}
	if info, ok := readBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return Commit
}
