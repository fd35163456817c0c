package models

import "encoding/json"

type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RawPod is the untrusted wire shape returned by a seed's pod list. Every
// field can be missing or garbage; the normalizer owns sanitization and
// nothing downstream sees a RawPod directly.
type RawPod struct {
	Address             string  `json:"address,omitempty"`
	Pubkey              string  `json:"pubkey,omitempty"`
	RPCPort             int     `json:"rpc_port,omitempty"`
	IsPublic            bool    `json:"is_public,omitempty"`
	Version             string  `json:"version,omitempty"`
	LastSeenTimestamp   float64 `json:"last_seen_timestamp,omitempty"`
	StorageCommitted    float64 `json:"storage_committed,omitempty"`
	StorageUsed         float64 `json:"storage_used,omitempty"`
	StorageUsagePercent float64 `json:"storage_usage_percent,omitempty"`
	Uptime              float64 `json:"uptime,omitempty"`
}

type PodsPayload struct {
	Pods       []RawPod `json:"pods,omitempty"`
	TotalCount int      `json:"total_count,omitempty"`
}
