package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"atlas/config"
	"atlas/models"
)

// SeedResolver decides which seed list applies to a request and walks it
// until one seed yields pods.
type SeedResolver struct {
	client   *PRPCClient
	envSeeds []string
}

func NewSeedResolver(client *PRPCClient, cfg *config.Config) *SeedResolver {
	return &SeedResolver{
		client:   client,
		envSeeds: cfg.PRPC.Seeds,
	}
}

// Resolve returns the seed list for one fetch. Custom seeds replace, never
// merge with, the configured list; an empty custom list falls through to the
// environment list and then the built-in defaults.
func (r *SeedResolver) Resolve(custom []string) []string {
	cleaned := make([]string, 0, len(custom))
	for _, seed := range custom {
		if trimmed := strings.TrimSpace(seed); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > 0 {
		return cleaned
	}
	if len(r.envSeeds) > 0 {
		return r.envSeeds
	}
	return config.DefaultSeeds
}

// FetchFromNetwork tries each seed in order, preferring the stats-enriched
// method and falling back to the plain pod list on the same seed before
// moving on. The first seed that produces at least one pod wins.
func (r *SeedResolver) FetchFromNetwork(ctx context.Context, seeds []string) ([]models.RawPod, string, error) {
	var failures []string

	for _, seed := range seeds {
		pods, err := r.fetchFromSeed(ctx, seed)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", seed, err))
			continue
		}
		if len(pods) == 0 {
			failures = append(failures, fmt.Sprintf("%s: returned no pods", seed))
			continue
		}
		log.Printf("Discovered %d pods via seed %s", len(pods), seed)
		return pods, seed, nil
	}

	return nil, "", fmt.Errorf("Unable to discover pNodes via pRPC. Tried: %s", strings.Join(failures, " | "))
}

func (r *SeedResolver) fetchFromSeed(ctx context.Context, seed string) ([]models.RawPod, error) {
	payload, err := r.client.FetchPods(ctx, seed, methodGetPodsWithStats)
	if err == nil && len(payload.Pods) > 0 {
		return payload.Pods, nil
	}
	if err != nil {
		log.Printf("Seed %s: %s failed (%v), trying %s", seed, methodGetPodsWithStats, err, methodGetPods)
	}

	payload, fallbackErr := r.client.FetchPods(ctx, seed, methodGetPods)
	if fallbackErr != nil {
		if err != nil {
			return nil, fmt.Errorf("%s failed (%v); %s failed (%v)", methodGetPodsWithStats, err, methodGetPods, fallbackErr)
		}
		return nil, fallbackErr
	}
	return payload.Pods, nil
}
