// Package version holds echoprobe build metadata, printed by
// `echoprobe version`.
package version

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/hazz-dev/echoprobe/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
