package utils_test

import (
	"testing"

	"atlas/models"
	"atlas/utils"
)

func TestVersionValue(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"plain", "0.8.1", 8_001},
		{"with v prefix", "v1.2.3", 1_002_003},
		{"prerelease ignored", "0.8.1-trynet", 8_001},
		{"two segments", "1.2", 1_002_000},
		{"single segment", "2", 2_000_000},
		{"empty", "", 0},
		{"garbage", "not-a-version", 0},
		{"whitespace", "   ", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := utils.VersionValue(tc.raw); got != tc.want {
				t.Errorf("VersionValue(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestVersionValueOrdering(t *testing.T) {
	older := utils.VersionValue("0.9.12")
	newer := utils.VersionValue("0.10.0")
	if older >= newer {
		t.Errorf("expected 0.9.12 (%d) to order below 0.10.0 (%d)", older, newer)
	}
}

func TestResolveChannel(t *testing.T) {
	cases := []struct {
		raw  string
		want models.ReleaseChannel
	}{
		{"0.8.1-trynet", models.ChannelTrynet},
		{"0.8.1-dev", models.ChannelDevnet},
		{"0.8.1", models.ChannelMainnet},
		{"1.0.0-TRYNET", models.ChannelTrynet},
		{"", models.ChannelUnknown},
		{"  ", models.ChannelUnknown},
	}

	for _, tc := range cases {
		if got := utils.ResolveChannel(tc.raw); got != tc.want {
			t.Errorf("ResolveChannel(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
