// Package misc holds program identity, set at build time.
package misc

import (
	"runtime/debug"
)

// set with -ldflags "-X csssplit/misc.version=... -X csssplit/misc.githash=..."
var (
	version = ""
	githash = ""
)

const appName = "csssplit"

func GetAppName() string {
	return appName
}

// GetVersion returns linked in version or module version when built with
// "go install".
func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "(devel)"
}

func GetGitHash() string {
	if len(githash) > 0 {
		return githash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
