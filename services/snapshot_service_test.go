package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"atlas/models"
)

func newSnapshotFixture(t *testing.T, seedURL string, ttl time.Duration) (*SnapshotService, *HistoryService) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	history := NewHistoryService(store, nil, 288)
	resolver := newTestResolver([]string{seedURL})
	service := NewSnapshotService(resolver, NewNormalizer(1800, nil), NewAggregator(), history, ttl)
	return service, history
}

func TestGetSnapshotCaching(t *testing.T) {
	var fetches atomic.Int64
	server := rpcTestServer(t, func(models.RPCRequest) (interface{}, *models.RPCError) {
		fetches.Add(1)
		return models.PodsPayload{Pods: []models.RawPod{{Pubkey: "abc", LastSeenTimestamp: float64(time.Now().Unix())}}}, nil
	})

	service, _ := newSnapshotFixture(t, server.URL, 25*time.Second)
	now := time.Unix(1_700_000_000, 0)
	service.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := service.GetSnapshot(ctx, nil, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := service.GetSnapshot(ctx, nil, false); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches within TTL = %d, want 1", got)
	}

	now = now.Add(26 * time.Second)
	if _, err := service.GetSnapshot(ctx, nil, false); err != nil {
		t.Fatalf("expired fetch: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetches after TTL = %d, want 2", got)
	}

	if _, err := service.GetSnapshot(ctx, nil, true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if got := fetches.Load(); got != 3 {
		t.Errorf("fetches after forceRefresh = %d, want 3", got)
	}
}

func TestGetSnapshotHistoryOnlyForDefault(t *testing.T) {
	server := rpcTestServer(t, func(models.RPCRequest) (interface{}, *models.RPCError) {
		return models.PodsPayload{Pods: []models.RawPod{{Pubkey: "abc", LastSeenTimestamp: float64(time.Now().Unix())}}}, nil
	})

	service, history := newSnapshotFixture(t, server.URL, time.Millisecond)
	ctx := context.Background()

	if _, err := service.GetSnapshot(ctx, nil, true); err != nil {
		t.Fatalf("default fetch: %v", err)
	}
	entries, err := history.GetHistory(ctx, 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("default poll should record 1 entry, got %d", len(entries))
	}

	if _, err := service.GetSnapshot(ctx, []string{server.URL}, true); err != nil {
		t.Fatalf("custom fetch: %v", err)
	}
	entries, err = history.GetHistory(ctx, 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("custom seed poll must not record history, got %d entries", len(entries))
	}
}

func TestGetSnapshotPipeline(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	server := rpcTestServer(t, func(models.RPCRequest) (interface{}, *models.RPCError) {
		return models.PodsPayload{Pods: []models.RawPod{
			{Pubkey: "a", Version: "0.9.1", IsPublic: true, Uptime: 8 * 24 * 3600, LastSeenTimestamp: float64(now.Unix())},
			{Pubkey: "b", Version: "0.8.0", LastSeenTimestamp: float64(now.Unix()) - 4000},
		}}, nil
	})

	service, _ := newSnapshotFixture(t, server.URL, time.Minute)
	service.now = func() time.Time { return now }

	snapshot, err := service.GetSnapshot(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snapshot.Seed != server.URL {
		t.Errorf("Seed = %q", snapshot.Seed)
	}
	if snapshot.Metrics.TotalNodes != 2 {
		t.Errorf("TotalNodes = %d", snapshot.Metrics.TotalNodes)
	}
	if snapshot.Metrics.LatestVersion != "0.9.1" {
		t.Errorf("LatestVersion = %q", snapshot.Metrics.LatestVersion)
	}
	if snapshot.Metrics.OutdatedNodes != 1 {
		t.Errorf("OutdatedNodes = %d", snapshot.Metrics.OutdatedNodes)
	}

	var staleNode *models.PNode
	for i := range snapshot.Nodes {
		if snapshot.Nodes[i].Pubkey == "b" {
			staleNode = &snapshot.Nodes[i]
		}
	}
	if staleNode == nil {
		t.Fatal("node b missing from snapshot")
	}
	if !staleNode.IsStale || staleNode.Status != models.StatusCritical {
		t.Errorf("stale node = stale %v status %q, want critical", staleNode.IsStale, staleNode.Status)
	}
}
