// Package version provides version information for consolex.
// The Version variable is set at build time via ldflags.
package version

// Version is the current version of consolex.
// Set at build time via: -ldflags "-X github.com/xdg/consolex/internal/version.Version=v1.0.0"
var Version = "dev"

// UserAgent returns the User-Agent header value sent by the consolex client.
func UserAgent() string {
	return "consolex/" + Version
}
