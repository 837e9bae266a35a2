// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time via ldflags:
//
//	-X github.com/open-cli-collective/wtx/internal/version.Version=v1.2.3
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String describes the build, as printed by wtx --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent is the User-Agent wtx sends to wikis.
func UserAgent() string {
	return "wtx/" + Version + " (+https://github.com/open-cli-collective/wtx)"
}
