// Package version exposes build metadata. Release builds stamp the
// variables via -ldflags; development builds fall back to the module's
// embedded VCS info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.3 ..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info bundles everything the version command reports.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
}

// Get resolves the build metadata, preferring ldflags values and falling
// back to debug.ReadBuildInfo.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildTime = t
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
			info.Version = build.Main.Version
		}
		if info.GitCommit == "unknown" {
			for _, setting := range build.Settings {
				if setting.Key == "vcs.revision" {
					info.GitCommit = setting.Value
				}
			}
		}
	}
	return info
}

// Short returns a one-line version string for banners and logs.
func Short() string {
	info := Get()
	if len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
		return fmt.Sprintf("%s (%s)", info.Version, info.GitCommit[:7])
	}
	return info.Version
}

// String returns the multi-line detail block used by `version --detailed`.
func (i Info) String() string {
	parts := []string{
		fmt.Sprintf("Version: %s", i.Version),
		fmt.Sprintf("Commit: %s", i.GitCommit),
	}
	if !i.BuildTime.IsZero() {
		parts = append(parts, fmt.Sprintf("Built: %s", i.BuildTime.Format(time.RFC3339)))
	}
	parts = append(parts,
		fmt.Sprintf("Go: %s", i.GoVersion),
		fmt.Sprintf("Platform: %s", i.Platform),
	)
	return strings.Join(parts, "\n")
}
