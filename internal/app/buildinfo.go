package app

import (
	"strings"
	"time"
)

// Set at link time:
//
//	-ldflags "-X shelfhost/internal/app.Version=... -X shelfhost/internal/app.BuildDate=..."
var (
	Version   = "dev"
	BuildDate = ""
)

// BuildVersion returns the release version, or "dev" for local builds.
func BuildVersion() string {
	if version := strings.TrimSpace(Version); version != "" {
		return version
	}

	return "dev"
}

// BuildDateYMD reduces the build timestamp to a calendar date. Release
// pipelines pass RFC3339; anything else is returned as given so a broken
// stamp still shows up in logs.
func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}
	if stamp, err := time.Parse(time.RFC3339, raw); err == nil {
		return stamp.Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)]); err == nil {
			return raw[:len(time.DateOnly)]
		}
	}

	return raw
}

// BuildVersionWithDate is the one-line identity logged at startup.
func BuildVersionWithDate() string {
	if date := BuildDateYMD(); date != "" {
		return BuildVersion() + " (" + date + ")"
	}

	return BuildVersion()
}
