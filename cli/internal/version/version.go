// Package version holds the CLI version string. Default is "dev"; release
// builds set it via: go build -ldflags "-X gitai/cli/internal/version.Version=v1.0.0"
package version

// Version is the gitai CLI version. Set at build time for releases.
var Version = "dev"

// String returns the version string for display (e.g. --version).
func String() string {
	return Version
}
