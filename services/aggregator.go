package services

import (
	"math"
	"sort"

	"atlas/models"
	"atlas/utils"
)

const (
	bytesPerTB = float64(1 << 40)

	versionDistributionLimit = 8
	storageLeaderLimit       = 6
)

// Aggregator finalizes a normalized node list (health scores, status) and
// reduces it to fleet-wide analytics.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// DetermineLatestVersion picks the highest release seen across the fleet.
// An empty or unversioned fleet reports "unknown".
func (a *Aggregator) DetermineLatestVersion(nodes []models.PNode) (string, int64) {
	latest := "unknown"
	var latestValue int64
	for _, node := range nodes {
		if node.VersionValue > latestValue {
			latestValue = node.VersionValue
			latest = node.Version
		}
	}
	return latest, latestValue
}

// FinalizeNodes stamps each node with its health score and status. Scores
// depend on the fleet-wide latest version, so this runs after normalization
// of the full list.
func (a *Aggregator) FinalizeNodes(nodes []models.PNode, latestValue int64, nowSeconds, staleThresholdSeconds float64) {
	for i := range nodes {
		node := &nodes[i]
		node.HealthScore = utils.ComputeHealthScore(utils.ScoreInput{
			UptimeSeconds:       node.UptimeSeconds,
			LastSeenSeconds:     node.LastSeenSeconds,
			StorageUsagePercent: node.StorageUsagePercent,
			VersionValue:        node.VersionValue,
			LatestVersionValue:  latestValue,
			IsPublic:            node.IsPublic,
		}, nowSeconds, staleThresholdSeconds)
		node.Status = utils.DeriveStatus(node.HealthScore, node.IsStale)
	}
}

// BuildAnalytics reduces a finalized node list into the metrics block.
func (a *Aggregator) BuildAnalytics(nodes []models.PNode, latestVersion string) models.AnalyticsMetrics {
	metrics := models.AnalyticsMetrics{
		TotalNodes:    len(nodes),
		LatestVersion: latestVersion,
	}

	// Guard divisor so an empty fleet yields zeros, not NaN.
	divisor := float64(len(nodes))
	if divisor == 0 {
		divisor = 1
	}

	var uptimeHoursSum, usageSum, committedBytes, usedBytes float64

	for _, node := range nodes {
		if node.IsPublic {
			metrics.PublicNodes++
		} else {
			metrics.PrivateNodes++
		}

		uptimeHoursSum += node.UptimeHours
		if node.UptimeHours > metrics.MaxUptimeHours {
			metrics.MaxUptimeHours = node.UptimeHours
		}

		committedBytes += node.StorageCommitted
		usedBytes += node.StorageUsed
		usageSum += node.StorageUsagePercent

		if node.Version != latestVersion {
			metrics.OutdatedNodes++
		}
		if node.IsStale {
			metrics.Stale++
		}

		switch node.Status {
		case models.StatusHealthy:
			metrics.Healthy++
		case models.StatusWarning:
			metrics.Warning++
		case models.StatusCritical:
			metrics.Critical++
		}
	}

	metrics.AvgUptimeHours = round2(uptimeHoursSum / divisor)
	metrics.AvgUsagePercent = round2(usageSum / divisor)
	metrics.CommittedTB = round2(committedBytes / bytesPerTB)
	metrics.UsedTB = round2(usedBytes / bytesPerTB)

	metrics.VersionDistribution = a.versionDistribution(nodes, divisor)
	metrics.UsageBuckets = a.usageBuckets(nodes, divisor)
	metrics.StorageLeaders = a.storageLeaders(nodes)

	return metrics
}

func (a *Aggregator) versionDistribution(nodes []models.PNode, divisor float64) []models.VersionDistributionEntry {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, node := range nodes {
		version := node.Version
		if version == "" {
			version = "unknown"
		}
		if _, seen := counts[version]; !seen {
			order = append(order, version)
		}
		counts[version]++
	}

	entries := make([]models.VersionDistributionEntry, 0, len(order))
	for _, version := range order {
		entries = append(entries, models.VersionDistributionEntry{
			Version:    version,
			Count:      counts[version],
			Percentage: round2(float64(counts[version]) / divisor * 100),
		})
	}
	// Stable sort keeps first-seen order for equal counts.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > versionDistributionLimit {
		entries = entries[:versionDistributionLimit]
	}
	return entries
}

func (a *Aggregator) usageBuckets(nodes []models.PNode, divisor float64) []models.UsageBucket {
	buckets := []models.UsageBucket{
		{Label: "< 0.01%"},
		{Label: "0.01% - 0.1%"},
		{Label: "0.1% - 1%"},
		{Label: "1% - 5%"},
		{Label: ">= 5%"},
	}
	for _, node := range nodes {
		usage := node.StorageUsagePercent
		switch {
		case usage < 0.01:
			buckets[0].Nodes++
		case usage < 0.1:
			buckets[1].Nodes++
		case usage < 1:
			buckets[2].Nodes++
		case usage < 5:
			buckets[3].Nodes++
		default:
			buckets[4].Nodes++
		}
	}
	for i := range buckets {
		buckets[i].Percentage = round2(float64(buckets[i].Nodes) / divisor * 100)
	}
	return buckets
}

func (a *Aggregator) storageLeaders(nodes []models.PNode) []models.StorageLeader {
	withUsage := make([]models.PNode, 0, len(nodes))
	for _, node := range nodes {
		if node.StorageUsed > 0 {
			withUsage = append(withUsage, node)
		}
	}
	sort.SliceStable(withUsage, func(i, j int) bool {
		return withUsage[i].StorageUsed > withUsage[j].StorageUsed
	})
	if len(withUsage) > storageLeaderLimit {
		withUsage = withUsage[:storageLeaderLimit]
	}

	leaders := make([]models.StorageLeader, 0, len(withUsage))
	for _, node := range withUsage {
		leaders = append(leaders, models.StorageLeader{
			Pubkey:       node.Pubkey,
			ShortKey:     shortKey(node.Pubkey),
			Address:      node.Address,
			UsedTB:       round2(node.StorageUsed / bytesPerTB),
			CommittedTB:  round2(node.StorageCommitted / bytesPerTB),
			UsagePercent: round2(node.StorageUsagePercent),
			Version:      node.Version,
			IsPublic:     node.IsPublic,
			Status:       node.Status,
		})
	}
	return leaders
}

func shortKey(pubkey string) string {
	if len(pubkey) <= 10 {
		return pubkey
	}
	return pubkey[:6] + "…" + pubkey[len(pubkey)-4:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
