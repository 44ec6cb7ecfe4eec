// Package version reports build information.
package version

import "runtime/debug"

// Set at build time via -ldflags "-X github.com/nexconsult/dian-api/internal/version.version=...".
var (
	version = ""
	commit  = ""
)

// Version returns the release version.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Commit returns the short commit hash.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func Commit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}
