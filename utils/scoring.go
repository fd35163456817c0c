package utils

import (
	"math"

	"atlas/models"
)

// Health score weights. These are contractual values: dashboards, alerts and
// exports all assume the same blend, so they are constants, not config.
const (
	weightUptime    = 0.32
	weightFreshness = 0.28
	weightUsage     = 0.18
	weightVersion   = 0.12
	weightExposure  = 0.10

	uptimeSaturationSeconds = 7 * 24 * 3600
	usageSaturationPercent  = 90.0
	privateExposureScore    = 0.88
)

// ScoreInput carries the per-node facts the classifier needs. LatestVersion
// is the highest VersionValue seen across the whole node list this poll.
type ScoreInput struct {
	UptimeSeconds       float64
	LastSeenSeconds     float64
	StorageUsagePercent float64
	VersionValue        int64
	LatestVersionValue  int64
	IsPublic            bool
}

// ComputeHealthScore blends uptime, freshness, storage pressure, version
// currency and public exposure into a 0-100 integer.
func ComputeHealthScore(in ScoreInput, nowSeconds float64, staleThresholdSeconds float64) int {
	uptimeScore := math.Min(in.UptimeSeconds/uptimeSaturationSeconds, 1)
	usageScore := 1 - math.Min(in.StorageUsagePercent/usageSaturationPercent, 1)

	freshnessLag := math.Max(nowSeconds-in.LastSeenSeconds, 0)
	freshnessScore := 1 - math.Min(freshnessLag/(staleThresholdSeconds*2), 1)

	versionScore := 1.0
	if in.LatestVersionValue > 0 {
		versionScore = math.Min(float64(in.VersionValue)/float64(in.LatestVersionValue), 1)
	}

	exposureScore := privateExposureScore
	if in.IsPublic {
		exposureScore = 1.0
	}

	score := uptimeScore*weightUptime +
		freshnessScore*weightFreshness +
		usageScore*weightUsage +
		versionScore*weightVersion +
		exposureScore*weightExposure

	return int(math.Round(math.Max(0, math.Min(1, score)) * 100))
}

// DeriveStatus maps a health score to the tri-state status. Staleness is an
// unconditional critical regardless of score.
func DeriveStatus(healthScore int, isStale bool) models.NodeStatus {
	if isStale {
		return models.StatusCritical
	}
	if healthScore >= 80 {
		return models.StatusHealthy
	}
	if healthScore >= 55 {
		return models.StatusWarning
	}
	return models.StatusCritical
}
