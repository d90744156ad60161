// SPDX-License-Identifier: MIT

// Package build exposes build metadata injected at compile time via
// -ldflags, e.g.:
//
//	go build -ldflags "-X specviz/pkg/build.buildVersion=0.2.0"
//
// Development builds without ldflags fall back to sensible defaults.
package build

type Info struct {
	Name    string // Application name
	Time    string // Build timestamp (RFC3339)
	Commit  string // Git commit hash
	Version string // Semantic version
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// GetInfo returns the build metadata, substituting defaults for any
// flag the build did not provide.
func GetInfo() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "specviz"
	}
	if info.Time == "" {
		info.Time = "unknown"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
