package version

var version = "1.0.0"

// String returns the build version for the current binary. Release builds
// override it via -ldflags "-X .../internal/version.version=...".
func String() string {
	return version
}

// ForTesting overrides the version string and returns a cleanup function
// that restores the original value. Must not be called concurrently.
func ForTesting(v string) func() {
	original := version
	version = v
	return func() { version = original }
}
