// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent is sent with every request to the NDB server.
func UserAgent() string { return "ndb-client-go/" + Version }

// String formats the build metadata for `ndb version`.
func String() string {
	return fmt.Sprintf("ndb %s (commit %s, built %s)", Version, Commit, Date)
}
