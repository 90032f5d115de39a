// Package version reports the build the editor was produced from.
package version

import "fmt"

// Overridden with -ldflags "-X aq-designs/internal/version.Version=..." etc.
var (
	Version   = "1.0.0"
	BuildTime = "unknown" // UTC
	GitCommit = "unknown"
)

// String formats the build info for logs and the About dialog.
func String() string {
	return fmt.Sprintf("v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
}
