package version

import (
	"runtime"
)

// These variables are set at build time via -ldflags, e.g.
//
//	-ldflags "-X github.com/sallliisa/apostle-http/pkg/version.Version=v0.3.0"
var (
	// Version is the semantic version of the build. Defaults to "dev".
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = ""
	// Go is the Go toolchain version used for the build.
	Go = runtime.Version()
)

// UserAgent is the default User-Agent header sent by dispatch clients.
func UserAgent() string {
	return "apostle-http/" + Version
}

// Info returns version metadata suitable for logging.
func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"go":      Go,
	}
}
