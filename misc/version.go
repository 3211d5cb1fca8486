// Package misc keeps build time information about the program.
package misc

import (
	"runtime/debug"
)

const appName = "revealit"

// set at build time with -ldflags "-X revealit/misc.version=... -X revealit/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

// GetAppName returns program name, used for logger names and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns vcs revision program was built from if known.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
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
