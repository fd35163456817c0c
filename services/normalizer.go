package services

import (
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"atlas/models"
	"atlas/utils"
)

// Normalizer converts raw gossip pods into sanitized PNodes. All garbage
// tolerance lives here: downstream code assumes finite, non-negative numbers
// and a unique pubkey per node.
type Normalizer struct {
	staleThresholdSeconds float64
	geo                   *utils.GeoResolver
}

func NewNormalizer(staleThresholdSeconds int, geo *utils.GeoResolver) *Normalizer {
	if staleThresholdSeconds <= 0 {
		staleThresholdSeconds = 1800
	}
	return &Normalizer{
		staleThresholdSeconds: float64(staleThresholdSeconds),
		geo:                   geo,
	}
}

func (n *Normalizer) StaleThresholdSeconds() float64 {
	return n.staleThresholdSeconds
}

// NormalizePods sanitizes and dedupes one seed's pod list. Pods without a
// pubkey are dropped; duplicate pubkeys keep the most recently seen copy.
func (n *Normalizer) NormalizePods(pods []models.RawPod, now time.Time) []models.PNode {
	nowSeconds := float64(now.Unix())

	byPubkey := make(map[string]models.PNode, len(pods))
	order := make([]string, 0, len(pods))

	for _, pod := range pods {
		pubkey := strings.TrimSpace(pod.Pubkey)
		if pubkey == "" {
			continue
		}
		node := n.normalizeOne(pubkey, pod, nowSeconds)
		existing, seen := byPubkey[pubkey]
		if !seen {
			byPubkey[pubkey] = node
			order = append(order, pubkey)
			continue
		}
		if node.LastSeenSeconds > existing.LastSeenSeconds {
			byPubkey[pubkey] = node
		}
	}

	nodes := make([]models.PNode, 0, len(order))
	for _, pubkey := range order {
		nodes = append(nodes, byPubkey[pubkey])
	}
	return nodes
}

func (n *Normalizer) normalizeOne(pubkey string, pod models.RawPod, nowSeconds float64) models.PNode {
	lastSeen := sanitizeNumber(pod.LastSeenTimestamp)
	uptime := sanitizeNumber(pod.Uptime)
	committed := sanitizeNumber(pod.StorageCommitted)
	used := sanitizeNumber(pod.StorageUsed)

	ip, gossipPort := splitAddress(pod.Address)

	// Canonicalize here so no payload ever carries an empty version string.
	rawVersion := strings.TrimSpace(pod.Version)
	version := rawVersion
	if version == "" {
		version = "unknown"
	}

	node := models.PNode{
		Pubkey:     pubkey,
		Address:    strings.TrimSpace(pod.Address),
		IP:         ip,
		GossipPort: gossipPort,
		RPCPort:    pod.RPCPort,
		IsPublic:   pod.IsPublic,
		Version:    version,

		UptimeSeconds:   uptime,
		UptimeHours:     uptime / 3600,
		LastSeenSeconds: lastSeen,

		StorageCommitted:    committed,
		StorageUsed:         used,
		StorageFree:         math.Max(committed-used, 0),
		StorageUsagePercent: usagePercent(sanitizeNumber(pod.StorageUsagePercent), used, committed),
	}

	// Channel classification keeps the raw value: a canonicalized "unknown"
	// must not read as a mainnet build.
	node.Channel = utils.ResolveChannel(rawVersion)
	node.VersionValue = utils.VersionValue(rawVersion)

	if lastSeen > 0 {
		node.LastSeenISO = time.Unix(int64(lastSeen), 0).UTC().Format(time.RFC3339)
		node.IsStale = nowSeconds-lastSeen > n.staleThresholdSeconds
	} else {
		// Never reported in: stale by definition.
		node.IsStale = true
	}

	if loc := n.geo.Lookup(node.IP); loc.Country != "" || loc.City != "" {
		node.Country = loc.Country
		node.City = loc.City
	}

	return node
}

// usagePercent resolves the effective usage percentage. A provided value in
// (0, 1] is treated as a ratio and scaled; above 1 it is already a percent.
// Without a provided value it is derived from used/committed.
func usagePercent(provided, used, committed float64) float64 {
	if provided > 0 {
		if provided <= 1 {
			return provided * 100
		}
		return provided
	}
	if used > 0 && committed > 0 {
		return used / committed * 100
	}
	return 0
}

// sanitizeNumber clamps NaN, infinities and negatives to 0.
func sanitizeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// splitAddress pulls the IP and gossip port out of an "ip:port" address.
// Anything unparseable yields the raw host with port 0.
func splitAddress(address string) (string, int) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return address, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 {
		port = 0
	}
	return host, port
}
