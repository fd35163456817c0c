package config_test

import (
	"testing"
	"time"

	"atlas/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.PRPC.DefaultPort != 6000 {
		t.Errorf("DefaultPort = %d, want 6000", cfg.PRPC.DefaultPort)
	}
	if cfg.Poll.CacheTTLMs != 25000 {
		t.Errorf("CacheTTLMs = %d, want 25000", cfg.Poll.CacheTTLMs)
	}
	if cfg.PRPC.TimeoutMs != 7000 {
		t.Errorf("TimeoutMs = %d, want 7000", cfg.PRPC.TimeoutMs)
	}
	if cfg.Poll.StaleThresholdSeconds != 1800 {
		t.Errorf("StaleThresholdSeconds = %d, want 1800", cfg.Poll.StaleThresholdSeconds)
	}
	if cfg.History.MaxEntries != 288 {
		t.Errorf("MaxEntries = %d, want 288", cfg.History.MaxEntries)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Store.Backend)
	}
	if !cfg.Alerts.LegacyEnabled {
		t.Error("legacy alerts should default to enabled")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("PNODE_SEEDS", "1.1.1.1, 2.2.2.2 ,")
	t.Setenv("PNODE_CACHE_TTL", "5000")
	t.Setenv("LEGACY_ALERTS_ENABLED", "false")
	t.Setenv("STORE_BACKEND", "redis")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if len(cfg.PRPC.Seeds) != 2 || cfg.PRPC.Seeds[0] != "1.1.1.1" || cfg.PRPC.Seeds[1] != "2.2.2.2" {
		t.Errorf("Seeds = %v", cfg.PRPC.Seeds)
	}
	if cfg.CacheTTLDuration() != 5*time.Second {
		t.Errorf("CacheTTLDuration = %s, want 5s", cfg.CacheTTLDuration())
	}
	if cfg.Alerts.LegacyEnabled {
		t.Error("LEGACY_ALERTS_ENABLED=false should disable legacy alerts")
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Store.Backend)
	}
}

func TestDefaultSeedCount(t *testing.T) {
	if len(config.DefaultSeeds) != 8 {
		t.Errorf("DefaultSeeds has %d entries, want 8", len(config.DefaultSeeds))
	}
}
