package models

type VersionDistributionEntry struct {
	Version    string  `json:"version"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type UsageBucket struct {
	Label      string  `json:"label"`
	Nodes      int     `json:"nodes"`
	Percentage float64 `json:"percentage"`
}

type StorageLeader struct {
	Pubkey       string     `json:"pubkey"`
	ShortKey     string     `json:"shortKey"`
	Address      string     `json:"address,omitempty"`
	UsedTB       float64    `json:"usedTb"`
	CommittedTB  float64    `json:"committedTb"`
	UsagePercent float64    `json:"usagePercent"`
	Version      string     `json:"version"`
	IsPublic     bool       `json:"isPublic"`
	Status       NodeStatus `json:"status"`
}

// AnalyticsMetrics is the fleet-wide reduction over one snapshot's node list.
type AnalyticsMetrics struct {
	TotalNodes      int     `json:"totalNodes"`
	PublicNodes     int     `json:"publicNodes"`
	PrivateNodes    int     `json:"privateNodes"`
	AvgUptimeHours  float64 `json:"avgUptimeHours"`
	MaxUptimeHours  float64 `json:"maxUptimeHours"`
	CommittedTB     float64 `json:"committedTb"`
	UsedTB          float64 `json:"usedTb"`
	AvgUsagePercent float64 `json:"avgUsagePercent"`
	LatestVersion   string  `json:"latestVersion"`
	OutdatedNodes   int     `json:"outdatedNodes"`
	Healthy         int     `json:"healthy"`
	Warning         int     `json:"warning"`
	Critical        int     `json:"critical"`
	Stale           int     `json:"stale"`

	VersionDistribution []VersionDistributionEntry `json:"versionDistribution"`
	UsageBuckets        []UsageBucket              `json:"usageBuckets"`
	StorageLeaders      []StorageLeader            `json:"storageLeaders"`
}

// PNodeSnapshot is one point-in-time poll result: the full node list plus
// its aggregated analytics and the seed that answered.
type PNodeSnapshot struct {
	Nodes     []PNode          `json:"nodes"`
	Metrics   AnalyticsMetrics `json:"metrics"`
	FetchedAt string           `json:"fetchedAt"`
	Seed      string           `json:"seed"`
}
