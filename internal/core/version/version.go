// Package version reports build metadata injected with -ldflags
package version

// BuildInfo is the /version payload
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X ghdigest/internal/core/version.version=v0.1.0 -X ghdigest/internal/core/version.commit=abcd"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build info stamped with service
func Info(service string) BuildInfo {
	return BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
}
