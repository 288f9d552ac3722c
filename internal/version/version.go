package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/PinkFox/static-site-builder-webpack-plugin/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a single human-readable version line for CLI output.
func String() string {
	s := Version
	if GitCommit != "unknown" {
		s += " (" + GitCommit + ")"
	}
	return s
}
