package utils

import (
	"strings"

	"github.com/hashicorp/go-version"

	"atlas/models"
)

// VersionValue encodes a release string as major*1e6 + minor*1e3 + patch so
// versions order numerically. Pre-release suffixes ("0.8.1-trynet") are
// ignored for ordering; anything unparseable maps to 0.
func VersionValue(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	ver, err := version.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return 0
	}
	segments := ver.Core().Segments64()
	var major, minor, patch int64
	if len(segments) > 0 {
		major = segments[0]
	}
	if len(segments) > 1 {
		minor = segments[1]
	}
	if len(segments) > 2 {
		patch = segments[2]
	}
	return major*1_000_000 + minor*1_000 + patch
}

// ResolveChannel classifies a version string into a release channel by
// substring. Trynet builds carry "trynet", dev builds carry "dev"; everything
// else is assumed mainnet.
func ResolveChannel(rawVersion string) models.ReleaseChannel {
	if strings.TrimSpace(rawVersion) == "" {
		return models.ChannelUnknown
	}
	lower := strings.ToLower(rawVersion)
	switch {
	case strings.Contains(lower, "trynet"):
		return models.ChannelTrynet
	case strings.Contains(lower, "dev"):
		return models.ChannelDevnet
	default:
		return models.ChannelMainnet
	}
}
