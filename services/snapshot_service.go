package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"atlas/models"
)

const defaultCacheKey = "default"

type cacheEntry struct {
	snapshot  *models.PNodeSnapshot
	fetchedAt time.Time
}

// SnapshotService owns the poll pipeline: seed discovery, normalization,
// scoring, analytics, plus a short TTL cache keyed by the seed list so
// concurrent dashboard requests share one network fetch's result.
type SnapshotService struct {
	resolver   *SeedResolver
	normalizer *Normalizer
	aggregator *Aggregator
	history    *HistoryService

	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewSnapshotService(resolver *SeedResolver, normalizer *Normalizer, aggregator *Aggregator, history *HistoryService, ttl time.Duration) *SnapshotService {
	if ttl <= 0 {
		ttl = 25 * time.Second
	}
	return &SnapshotService{
		resolver:   resolver,
		normalizer: normalizer,
		aggregator: aggregator,
		history:    history,
		ttl:        ttl,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}
}

// cacheKey identifies a seed-list variant. Only the default variant feeds
// the history store; ad-hoc seed overrides stay out of the recorded series.
func cacheKey(custom []string) string {
	if len(custom) == 0 {
		return defaultCacheKey
	}
	return strings.Join(custom, ",")
}

// GetSnapshot returns a cached snapshot when fresh, otherwise polls the
// network. forceRefresh bypasses the cache but still stores the result.
func (s *SnapshotService) GetSnapshot(ctx context.Context, customSeeds []string, forceRefresh bool) (*models.PNodeSnapshot, error) {
	key := cacheKey(customSeeds)

	if !forceRefresh {
		s.mu.Lock()
		entry, ok := s.cache[key]
		s.mu.Unlock()
		if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
			return entry.snapshot, nil
		}
	}

	// The network fetch runs outside the lock; a burst of cold requests may
	// race to fetch, and last-write-wins on the cache is fine.
	snapshot, err := s.fetch(ctx, customSeeds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{snapshot: snapshot, fetchedAt: s.now()}
	s.mu.Unlock()

	if key == defaultCacheKey && s.history != nil {
		if err := s.history.Record(ctx, snapshot); err != nil {
			log.Printf("Failed to record snapshot history: %v", err)
		}
	}

	return snapshot, nil
}

func (s *SnapshotService) fetch(ctx context.Context, customSeeds []string) (*models.PNodeSnapshot, error) {
	seeds := s.resolver.Resolve(customSeeds)

	pods, seed, err := s.resolver.FetchFromNetwork(ctx, seeds)
	if err != nil {
		return nil, err
	}

	now := s.now()
	nodes := s.normalizer.NormalizePods(pods, now)

	latestVersion, latestValue := s.aggregator.DetermineLatestVersion(nodes)
	s.aggregator.FinalizeNodes(nodes, latestValue, float64(now.Unix()), s.normalizer.StaleThresholdSeconds())
	metrics := s.aggregator.BuildAnalytics(nodes, latestVersion)

	return &models.PNodeSnapshot{
		Nodes:     nodes,
		Metrics:   metrics,
		FetchedAt: now.UTC().Format(time.RFC3339),
		Seed:      seed,
	}, nil
}
