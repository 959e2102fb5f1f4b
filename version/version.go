package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const product = "bkper-go"

var (
	// Version and GitCommit are set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
)

// Info is the build metadata reported by `bkper version`.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns build metadata, falling back to the VCS stamp embedded by the
// Go toolchain when GitCommit was not set at link time.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = shortCommit(s.Value)
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}
	return info
}

// String renders the version as "1.2.3 (abc1234)" or "1.2.3 (abc1234-dirty)".
func (i Info) String() string {
	if i.GitCommit == "" {
		return i.Version
	}
	commit := i.GitCommit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", i.Version, commit)
}

// UserAgent returns the default User-Agent, e.g. "bkper-go/1.2.3 (go1.26.0)".
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", product, Version, runtime.Version())
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
