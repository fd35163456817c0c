package models

type NodeStatus string

const (
	StatusHealthy  NodeStatus = "healthy"
	StatusWarning  NodeStatus = "warning"
	StatusCritical NodeStatus = "critical"
)

type ReleaseChannel string

const (
	ChannelMainnet ReleaseChannel = "mainnet"
	ChannelTrynet  ReleaseChannel = "trynet"
	ChannelDevnet  ReleaseChannel = "devnet"
	ChannelUnknown ReleaseChannel = "unknown"
)

// PNode is the canonical, fully sanitized view of one storage provider.
// Identity is the pubkey; gossip can report the same node through several
// paths, so the normalizer dedupes on it before a PNode ever exists.
type PNode struct {
	Pubkey     string         `json:"pubkey"`
	Address    string         `json:"address,omitempty"`
	IP         string         `json:"ip,omitempty"`
	GossipPort int            `json:"gossipPort,omitempty"`
	RPCPort    int            `json:"rpcPort,omitempty"`
	IsPublic   bool           `json:"isPublic"`
	Version    string         `json:"version"`
	Channel    ReleaseChannel `json:"channel"`

	UptimeSeconds   float64 `json:"uptimeSeconds"`
	UptimeHours     float64 `json:"uptimeHours"`
	LastSeenSeconds float64 `json:"lastSeenSeconds"`
	LastSeenISO     string  `json:"lastSeenIso"`

	StorageCommitted    float64 `json:"storageCommitted"`
	StorageUsed         float64 `json:"storageUsed"`
	StorageFree         float64 `json:"storageFree"`
	StorageUsagePercent float64 `json:"storageUsagePercent"`

	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`

	HealthScore int        `json:"healthScore"`
	Status      NodeStatus `json:"status"`
	IsStale     bool       `json:"isStale"`

	// VersionValue is the sortable encoding of Version, used to pick the
	// network-wide latest release. Not part of the public payload.
	VersionValue int64 `json:"-"`
}
