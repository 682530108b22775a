package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("alertindex %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
