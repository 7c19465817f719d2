// Package version carries build identification for the ink-proof
// binary.
package version

// These variables are populated by the Go linker (LDFLAGS) at build
// time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)
