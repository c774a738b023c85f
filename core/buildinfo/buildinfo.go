// Package buildinfo carries version metadata stamped in at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/weatherbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/weatherbot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/m3rciful/weatherbot/core/buildinfo.Date=2026-01-02T15:04:05Z'" ./cmd/weatherbot
package buildinfo

import "strings"

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the build timestamp in RFC3339.
	Date = ""
)

// Summary renders the metadata as "version (commit, date)", omitting empty parts.
func Summary() string {
	var extra []string
	for _, s := range []string{Commit, Date} {
		if s = strings.TrimSpace(s); s != "" {
			extra = append(extra, s)
		}
	}
	if len(extra) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(extra, ", ") + ")"
}
