// Package build exposes version metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/market-muscles-llc/pulse-kronos/internal/build.Version=v1.0.0"
package build

import "fmt"

var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// Fields returns the build metadata keyed the way the version endpoint
// reports it.
func Fields() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     CommitSHA,
		"build_date": BuildDate,
	}
}
