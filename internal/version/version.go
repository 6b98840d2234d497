package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/repoexplorer/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version with commit and build time for `repoexplorer version`.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
