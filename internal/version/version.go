package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Version is the current semantic version of fif
const Version = "0.1.0"

// Set with -ldflags "-X github.com/standardbeagle/fif/internal/version.commit=..."
var (
	commit    = ""
	buildDate = ""
)

// Build describes the running binary
type Build struct {
	Version   string
	Commit    string
	Date      string
	Modified  bool
	GoVersion string
	Platform  string
}

var (
	current     Build
	currentOnce sync.Once
)

// Current returns the build description, falling back to the VCS stamp the
// Go toolchain embeds when no ldflags were given
func Current() Build {
	currentOnce.Do(func() {
		var settings []debug.BuildSetting
		if info, ok := debug.ReadBuildInfo(); ok {
			settings = info.Settings
		}
		current = readBuild(commit, buildDate, settings)
	})
	return current
}

func readBuild(commit, date string, settings []debug.BuildSetting) Build {
	b := Build{
		Version:   Version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}

	if len(b.Commit) > 12 {
		b.Commit = b.Commit[:12]
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.Date == "" {
		b.Date = "development"
	}
	return b
}

// Short is the version with the commit, e.g. "0.1.0+3f2a9c1d0e4b"
func (b Build) Short() string {
	s := b.Version + "+" + b.Commit
	if b.Modified {
		s += ".dirty"
	}
	return s
}

// String is the line printed by "fif --version"
func (b Build) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fif %s", b.Short())
	fmt.Fprintf(&sb, " (built %s, %s, %s)", b.Date, b.GoVersion, b.Platform)
	return sb.String()
}
