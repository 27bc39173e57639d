// Package version holds build information set at link time.
package version

import "fmt"

var (
	// Version is the release version, set with -ldflags.
	Version = "0.1.0"

	// GitCommit is the commit the binary was built from, set with -ldflags.
	GitCommit = ""
)

// String returns the version and commit for display.
func String() string {
	if GitCommit == "" {
		return fmt.Sprintf("notion-relay v%s", Version)
	}
	return fmt.Sprintf("notion-relay v%s (%s)", Version, GitCommit)
}
