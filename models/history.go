package models

// SnapshotHistoryEntry is the narrow digest persisted per poll. The full
// node list never enters the history store.
type SnapshotHistoryEntry struct {
	Timestamp       string  `json:"timestamp"`
	TotalNodes      int     `json:"totalNodes"`
	UsedTB          float64 `json:"usedTb"`
	CommittedTB     float64 `json:"committedTb"`
	AvgUsagePercent float64 `json:"avgUsagePercent"`
	Healthy         int     `json:"healthy"`
	Warning         int     `json:"warning"`
	Critical        int     `json:"critical"`
}

// DigestOf reduces a snapshot to its history entry.
func DigestOf(snapshot *PNodeSnapshot) SnapshotHistoryEntry {
	return SnapshotHistoryEntry{
		Timestamp:       snapshot.FetchedAt,
		TotalNodes:      snapshot.Metrics.TotalNodes,
		UsedTB:          snapshot.Metrics.UsedTB,
		CommittedTB:     snapshot.Metrics.CommittedTB,
		AvgUsagePercent: snapshot.Metrics.AvgUsagePercent,
		Healthy:         snapshot.Metrics.Healthy,
		Warning:         snapshot.Metrics.Warning,
		Critical:        snapshot.Metrics.Critical,
	}
}
