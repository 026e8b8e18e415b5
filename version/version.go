// Package version reports which build of opsix is running.
package version

import "runtime/debug"

// Version is set at build time, for example:
// go build -ldflags "-X github.com/opsix/opsix/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision embedded by the go command, with a -dirty
// suffix for builds from a modified tree. It is empty outside a VCS checkout.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}()

// VersionOrHash is Version if it was set, the VCS hash otherwise, and "devel"
// if neither is known.
var VersionOrHash = func() string {
	switch {
	case Version != "":
		return Version
	case Hash != "":
		return Hash
	}
	return "devel"
}()
