// Package version holds the build-time identity of the binary, set via
// -ldflags at release build time and left at sensible defaults otherwise.
package version

var (
	name    = "auralis-engine"
	version = "dev"
	commit  = "unknown"
)

// Name returns the binary's display name.
func Name() string { return name }

// Version returns the release version string.
func Version() string { return version }

// Commit returns the short VCS commit the binary was built from.
func Commit() string { return commit }
