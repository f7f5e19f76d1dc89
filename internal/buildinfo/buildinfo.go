// Package buildinfo carries version metadata stamped in at link time.
package buildinfo

// Values are overridden with -ldflags "-X github.com/Leo3030/roadmap-demo/internal/buildinfo.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
