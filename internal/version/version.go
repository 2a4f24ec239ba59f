package version

// Version is the signal-tracker release, set at build time with
// -ldflags "-X github.com/rxtech-lab/signal-tracker/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "main"

// GetVersion returns the running release.
func GetVersion() string {
	return Version
}
