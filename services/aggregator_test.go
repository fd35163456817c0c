package services

import (
	"fmt"
	"testing"

	"atlas/models"
)

func TestDetermineLatestVersion(t *testing.T) {
	a := NewAggregator()

	version, value := a.DetermineLatestVersion(nil)
	if version != "unknown" || value != 0 {
		t.Errorf("empty fleet = (%q, %d), want (unknown, 0)", version, value)
	}

	nodes := []models.PNode{
		{Version: "0.8.0", VersionValue: 8_000},
		{Version: "0.9.1", VersionValue: 9_001},
		{Version: "", VersionValue: 0},
	}
	version, value = a.DetermineLatestVersion(nodes)
	if version != "0.9.1" || value != 9_001 {
		t.Errorf("latest = (%q, %d), want (0.9.1, 9001)", version, value)
	}
}

func TestBuildAnalyticsEmptyFleet(t *testing.T) {
	a := NewAggregator()
	metrics := a.BuildAnalytics(nil, "unknown")

	if metrics.TotalNodes != 0 {
		t.Errorf("TotalNodes = %d", metrics.TotalNodes)
	}
	if metrics.AvgUsagePercent != 0 || metrics.AvgUptimeHours != 0 {
		t.Errorf("averages over empty fleet must be 0, got %v / %v", metrics.AvgUsagePercent, metrics.AvgUptimeHours)
	}
	if len(metrics.UsageBuckets) != 5 {
		t.Errorf("expected 5 usage buckets, got %d", len(metrics.UsageBuckets))
	}
	if len(metrics.StorageLeaders) != 0 {
		t.Errorf("expected no storage leaders, got %d", len(metrics.StorageLeaders))
	}
}

func TestBuildAnalyticsCounts(t *testing.T) {
	a := NewAggregator()

	tb := float64(1 << 40)
	nodes := []models.PNode{
		{Pubkey: "a", IsPublic: true, Status: models.StatusHealthy, UptimeHours: 10,
			StorageCommitted: 2 * tb, StorageUsed: 1 * tb, StorageUsagePercent: 50,
			Version: "0.9.1", VersionValue: 9_001},
		{Pubkey: "b", IsPublic: false, Status: models.StatusWarning, UptimeHours: 30,
			StorageCommitted: 1 * tb, StorageUsed: 0.5 * tb, StorageUsagePercent: 50,
			Version: "0.8.0", VersionValue: 8_000},
		{Pubkey: "c", IsPublic: false, Status: models.StatusCritical, IsStale: true,
			Version: "0.8.0", VersionValue: 8_000},
		{Pubkey: "d", IsPublic: true, Status: models.StatusHealthy, UptimeHours: 20,
			Version: "unknown", VersionValue: 0},
	}

	metrics := a.BuildAnalytics(nodes, "0.9.1")

	if metrics.TotalNodes != 4 || metrics.PublicNodes != 2 || metrics.PrivateNodes != 2 {
		t.Errorf("node counts = %d/%d/%d", metrics.TotalNodes, metrics.PublicNodes, metrics.PrivateNodes)
	}
	if metrics.Healthy != 2 || metrics.Warning != 1 || metrics.Critical != 1 || metrics.Stale != 1 {
		t.Errorf("status counts = %d/%d/%d stale %d", metrics.Healthy, metrics.Warning, metrics.Critical, metrics.Stale)
	}
	if metrics.AvgUptimeHours != 15 || metrics.MaxUptimeHours != 30 {
		t.Errorf("uptime = avg %v max %v", metrics.AvgUptimeHours, metrics.MaxUptimeHours)
	}
	if metrics.CommittedTB != 3 || metrics.UsedTB != 1.5 {
		t.Errorf("storage = %v committed %v used", metrics.CommittedTB, metrics.UsedTB)
	}
	if metrics.AvgUsagePercent != 25 {
		t.Errorf("AvgUsagePercent = %v, want 25", metrics.AvgUsagePercent)
	}
	// Any version string other than the latest counts, "unknown" included.
	if metrics.OutdatedNodes != 3 {
		t.Errorf("OutdatedNodes = %d, want 3", metrics.OutdatedNodes)
	}
	if metrics.LatestVersion != "0.9.1" {
		t.Errorf("LatestVersion = %q", metrics.LatestVersion)
	}
}

func TestOutdatedByVersionString(t *testing.T) {
	a := NewAggregator()

	// Same numeric value as the latest still counts as outdated when the
	// string differs; so does a canonicalized "unknown".
	nodes := []models.PNode{
		{Pubkey: "a", Version: "0.8.1", VersionValue: 8_001},
		{Pubkey: "b", Version: "0.8.1-trynet", VersionValue: 8_001},
		{Pubkey: "c", Version: "unknown", VersionValue: 0},
	}

	metrics := a.BuildAnalytics(nodes, "0.8.1")
	if metrics.OutdatedNodes != 2 {
		t.Errorf("OutdatedNodes = %d, want 2", metrics.OutdatedNodes)
	}
}

func TestVersionDistributionTopEight(t *testing.T) {
	a := NewAggregator()

	var nodes []models.PNode
	// Ten distinct versions; count descends with the version index so the
	// cut is deterministic.
	for v := 0; v < 10; v++ {
		for i := 0; i <= 10-v; i++ {
			nodes = append(nodes, models.PNode{
				Pubkey:  fmt.Sprintf("n-%d-%d", v, i),
				Version: fmt.Sprintf("0.%d.0", v),
			})
		}
	}

	metrics := a.BuildAnalytics(nodes, "0.9.0")
	if len(metrics.VersionDistribution) != 8 {
		t.Fatalf("expected 8 version entries, got %d", len(metrics.VersionDistribution))
	}
	if metrics.VersionDistribution[0].Version != "0.0.0" {
		t.Errorf("most common first, got %q", metrics.VersionDistribution[0].Version)
	}
	for i := 1; i < len(metrics.VersionDistribution); i++ {
		if metrics.VersionDistribution[i].Count > metrics.VersionDistribution[i-1].Count {
			t.Errorf("distribution not sorted at %d", i)
		}
	}
}

func TestUsageBuckets(t *testing.T) {
	a := NewAggregator()

	nodes := []models.PNode{
		{Pubkey: "a", StorageUsagePercent: 0.005},
		{Pubkey: "b", StorageUsagePercent: 0.01},
		{Pubkey: "c", StorageUsagePercent: 0.1},
		{Pubkey: "d", StorageUsagePercent: 1},
		{Pubkey: "e", StorageUsagePercent: 5},
		{Pubkey: "f", StorageUsagePercent: 99},
	}

	metrics := a.BuildAnalytics(nodes, "unknown")
	wantCounts := []int{1, 1, 1, 1, 2}
	for i, want := range wantCounts {
		if metrics.UsageBuckets[i].Nodes != want {
			t.Errorf("bucket %q = %d nodes, want %d", metrics.UsageBuckets[i].Label, metrics.UsageBuckets[i].Nodes, want)
		}
	}
}

func TestStorageLeaders(t *testing.T) {
	a := NewAggregator()

	tb := float64(1 << 40)
	var nodes []models.PNode
	for i := 0; i < 8; i++ {
		nodes = append(nodes, models.PNode{
			Pubkey:      fmt.Sprintf("leader-%d-aaaaaaaaaaaaaaaaaaaaaaaa", i),
			StorageUsed: float64(i) * tb,
		})
	}

	metrics := a.BuildAnalytics(nodes, "unknown")
	// Node 0 has zero usage and is excluded; the rest cap at six.
	if len(metrics.StorageLeaders) != 6 {
		t.Fatalf("expected 6 leaders, got %d", len(metrics.StorageLeaders))
	}
	if metrics.StorageLeaders[0].UsedTB != 7 {
		t.Errorf("top leader UsedTB = %v, want 7", metrics.StorageLeaders[0].UsedTB)
	}
	if got := metrics.StorageLeaders[0].ShortKey; got != "leader…aaaa" {
		t.Errorf("ShortKey = %q, want %q", got, "leader…aaaa")
	}
}

func TestShortKey(t *testing.T) {
	cases := []struct {
		pubkey string
		want   string
	}{
		{"tenchars10", "tenchars10"},
		{"elevenchar1", "eleven…har1"},
		{"7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2", "7Np41o…T4K2"},
	}
	for _, tc := range cases {
		if got := shortKey(tc.pubkey); got != tc.want {
			t.Errorf("shortKey(%q) = %q, want %q", tc.pubkey, got, tc.want)
		}
	}
}
