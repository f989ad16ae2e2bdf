// Package version holds build information for simpleserver.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time:
// go build -ldflags "-X simpleserver/internal/version.Version=1.2.0 -X simpleserver/internal/version.Commit=abc123"
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func init() {
	if Commit != "unknown" {
		return
	}
	// Fall back to the VCS stamp of a plain go build
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		}
	}
}

// Info returns the version with a short commit, e.g. "1.0.0 (abc1234)"
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line --version output
func Full() string {
	return "simpleserver version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}
