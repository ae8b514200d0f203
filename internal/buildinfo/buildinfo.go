// Package buildinfo carries the version stamped into the takedown binary.
package buildinfo

import "fmt"

var (
	// Version is overridden at link-time, e.g.
	//	-ldflags "-X github.com/lc/takedown/internal/buildinfo.Version=v0.2.0"
	Version = "v0.1.0"
	// Commit stays "unknown" for `go run` and test builds.
	Commit = "unknown"
)

// String renders version and commit on one line for banners and `takedown version`.
func String() string {
	return fmt.Sprintf("%s (commit %s)", Version, Commit)
}
