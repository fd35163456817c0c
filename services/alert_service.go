package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"atlas/models"
)

const (
	tenantConfigStoreKey = "user-alert-webhooks"
	legacyConfigStoreKey = "alert-webhooks"
	alertLogStoreKey     = "alert-log"

	// LegacyTenant marks configs migrated from the pre-tenant flat list.
	LegacyTenant = "__legacy__"

	alertDispatchTimeout = 10 * time.Second
)

type tenantConfig struct {
	tenant string
	config models.AlertWebhookConfig
}

type triggerMatch struct {
	tenant       string
	config       models.AlertWebhookConfig
	trigger      models.AlertTrigger
	triggerIndex int
	reason       string
}

// AlertService evaluates per-tenant webhook triggers against consecutive
// history digests and delivers alert payloads. It is deliberately
// fire-and-forget: a broken webhook or store must never fail the poll that
// produced the snapshot.
type AlertService struct {
	store         JSONStore
	httpClient    *http.Client
	legacyEnabled bool
	notifier      *DiscordService
	now           func() time.Time

	// Serializes throttle-log read-modify-write cycles.
	logMu sync.Mutex
}

func NewAlertService(store JSONStore, legacyEnabled bool, notifier *DiscordService) *AlertService {
	return &AlertService{
		store:         store,
		httpClient:    &http.Client{Timeout: alertDispatchTimeout},
		legacyEnabled: legacyEnabled,
		notifier:      notifier,
		now:           time.Now,
	}
}

// ProcessWebhooks runs one evaluation cycle. Errors are logged, never
// returned; a failed delivery leaves its throttle entry untouched so the
// trigger retries on the next cycle.
func (a *AlertService) ProcessWebhooks(ctx context.Context, previous *models.SnapshotHistoryEntry, current models.SnapshotHistoryEntry) {
	configs, err := a.loadAllConfigs(ctx)
	if err != nil {
		log.Printf("Alert processing failed to load configs: %v", err)
		return
	}
	if len(configs) == 0 {
		return
	}

	a.logMu.Lock()
	throttleLog, err := a.loadThrottleLog(ctx)
	a.logMu.Unlock()
	if err != nil {
		log.Printf("Alert processing failed to load throttle log: %v", err)
		return
	}

	matches := a.collectTriggeredEvents(configs, previous, current, throttleLog)
	if len(matches) == 0 {
		return
	}

	generatedAt := a.now().UTC().Format(time.RFC3339)

	var wg sync.WaitGroup
	var deliveredMu sync.Mutex
	var deliveredKeys []string

	for _, match := range matches {
		wg.Add(1)
		go func(m triggerMatch) {
			defer wg.Done()
			if err := a.dispatchWebhook(ctx, m, previous, current, generatedAt); err != nil {
				log.Printf("Alert webhook %s/%s failed: %v", m.tenant, m.config.ID, err)
				return
			}
			deliveredMu.Lock()
			deliveredKeys = append(deliveredKeys, throttleKey(m.tenant, m.config.ID, m.triggerIndex))
			deliveredMu.Unlock()
		}(match)
	}
	wg.Wait()

	if len(deliveredKeys) > 0 {
		a.logMu.Lock()
		defer a.logMu.Unlock()
		// Re-read so concurrent cycles don't clobber each other's stamps.
		latest, err := a.loadThrottleLog(ctx)
		if err != nil {
			log.Printf("Alert processing failed to reload throttle log: %v", err)
			latest = throttleLog
		}
		for _, key := range deliveredKeys {
			latest[key] = generatedAt
		}
		if err := a.store.Write(ctx, alertLogStoreKey, latest); err != nil {
			log.Printf("Alert processing failed to persist throttle log: %v", err)
		}
	}

	if a.notifier != nil {
		a.notifier.NotifyAlerts(matches, current)
	}
}

func (a *AlertService) loadAllConfigs(ctx context.Context) ([]tenantConfig, error) {
	var byTenant map[string][]models.AlertWebhookConfig
	if err := a.store.Read(ctx, tenantConfigStoreKey, &byTenant); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var configs []tenantConfig
	for tenant, list := range byTenant {
		for _, cfg := range list {
			configs = append(configs, tenantConfig{tenant: tenant, config: cfg})
		}
	}

	if a.legacyEnabled {
		var legacy []models.AlertWebhookConfig
		if err := a.store.Read(ctx, legacyConfigStoreKey, &legacy); err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("Unable to read legacy alert config: %v", err)
			}
		} else {
			for _, cfg := range legacy {
				if err := cfg.Validate(); err != nil {
					log.Printf("Skipping invalid legacy alert config %q: %v", cfg.ID, err)
					continue
				}
				configs = append(configs, tenantConfig{tenant: LegacyTenant, config: cfg})
			}
		}
	}

	return configs, nil
}

func (a *AlertService) loadThrottleLog(ctx context.Context) (map[string]string, error) {
	throttleLog := make(map[string]string)
	if err := a.store.Read(ctx, alertLogStoreKey, &throttleLog); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if throttleLog == nil {
		throttleLog = make(map[string]string)
	}
	return throttleLog, nil
}

func (a *AlertService) collectTriggeredEvents(configs []tenantConfig, previous *models.SnapshotHistoryEntry, current models.SnapshotHistoryEntry, throttleLog map[string]string) []triggerMatch {
	now := a.now()
	var matches []triggerMatch

	for _, tc := range configs {
		if !tc.config.IsEnabled() || len(tc.config.Triggers) == 0 {
			continue
		}
		for index, trigger := range tc.config.Triggers {
			reason := evaluateTrigger(trigger, previous, current)
			if reason == "" {
				continue
			}
			key := throttleKey(tc.tenant, tc.config.ID, index)
			cooldown := time.Duration(trigger.EffectiveCooldown()) * time.Minute
			if stamp, ok := throttleLog[key]; ok {
				lastTriggered, err := time.Parse(time.RFC3339, stamp)
				if err == nil && now.Sub(lastTriggered) < cooldown {
					continue
				}
			}
			matches = append(matches, triggerMatch{
				tenant:       tc.tenant,
				config:       tc.config,
				trigger:      trigger,
				triggerIndex: index,
				reason:       reason,
			})
		}
	}
	return matches
}

// evaluateTrigger returns the human-readable reason when a trigger fires,
// or "" when it does not.
func evaluateTrigger(trigger models.AlertTrigger, previous *models.SnapshotHistoryEntry, current models.SnapshotHistoryEntry) string {
	switch trigger.Type {
	case models.TriggerTotalNodesDrop:
		if previous == nil || previous.TotalNodes == 0 {
			return ""
		}
		delta := previous.TotalNodes - current.TotalNodes
		if delta <= 0 {
			return ""
		}
		percentDrop := float64(delta) / float64(previous.TotalNodes) * 100
		if percentDrop < trigger.Percent {
			return ""
		}
		return fmt.Sprintf("Total nodes dropped %.2f%% (%d → %d)", percentDrop, previous.TotalNodes, current.TotalNodes)

	case models.TriggerHealthyPercentBelow:
		if current.TotalNodes == 0 {
			return ""
		}
		healthyPercent := float64(current.Healthy) / float64(current.TotalNodes) * 100
		if healthyPercent >= trigger.Percent {
			return ""
		}
		return fmt.Sprintf("Healthy share %.2f%% is below %v%%", healthyPercent, trigger.Percent)

	case models.TriggerCriticalPercentAbove:
		if current.TotalNodes == 0 {
			return ""
		}
		criticalPercent := float64(current.Critical) / float64(current.TotalNodes) * 100
		if criticalPercent <= trigger.Percent {
			return ""
		}
		return fmt.Sprintf("Critical share %.2f%% exceeds %v%%", criticalPercent, trigger.Percent)

	case models.TriggerAvgUsagePercentAbove:
		if current.AvgUsagePercent <= trigger.Percent {
			return ""
		}
		return fmt.Sprintf("Average usage %.2f%% exceeds %v%%", current.AvgUsagePercent, trigger.Percent)
	}
	return ""
}

func (a *AlertService) dispatchWebhook(ctx context.Context, m triggerMatch, previous *models.SnapshotHistoryEntry, current models.SnapshotHistoryEntry, generatedAt string) error {
	delivery := models.AlertDelivery{
		WebhookID:   m.config.ID,
		TriggerType: m.trigger.Type,
		Reason:      m.reason,
		GeneratedAt: generatedAt,
		TenantID:    m.tenant,
		Current:     current,
		Previous:    previous,
	}
	payload, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("failed to encode delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.config.Secret != "" {
		req.Header.Set("x-alert-secret", m.config.Secret)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with %d", resp.StatusCode)
	}
	return nil
}

func throttleKey(tenant, webhookID string, triggerIndex int) string {
	return fmt.Sprintf("%s:%s:%d", tenant, webhookID, triggerIndex)
}

// Tenant config CRUD, backing the alert management API.

// GetUserAlertConfigs returns the webhook configs owned by one tenant.
func (a *AlertService) GetUserAlertConfigs(ctx context.Context, tenant string) ([]models.AlertWebhookConfig, error) {
	byTenant, err := a.loadTenantMap(ctx)
	if err != nil {
		return nil, err
	}
	configs := byTenant[tenant]
	if configs == nil {
		configs = []models.AlertWebhookConfig{}
	}
	return configs, nil
}

// SaveUserAlertConfigs replaces one tenant's webhook list. An empty list
// removes the tenant's entry entirely.
func (a *AlertService) SaveUserAlertConfigs(ctx context.Context, tenant string, configs []models.AlertWebhookConfig) error {
	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("webhook %d: %w", i, err)
		}
	}

	byTenant, err := a.loadTenantMap(ctx)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		delete(byTenant, tenant)
	} else {
		byTenant[tenant] = configs
	}
	if err := a.store.Write(ctx, tenantConfigStoreKey, byTenant); err != nil {
		return fmt.Errorf("failed to persist alert configs: %w", err)
	}
	return nil
}

// DeleteUserAlertConfig removes one webhook by id. Reports whether anything
// was removed.
func (a *AlertService) DeleteUserAlertConfig(ctx context.Context, tenant, webhookID string) (bool, error) {
	byTenant, err := a.loadTenantMap(ctx)
	if err != nil {
		return false, err
	}
	configs := byTenant[tenant]
	filtered := configs[:0]
	removed := false
	for _, cfg := range configs {
		if cfg.ID == webhookID {
			removed = true
			continue
		}
		filtered = append(filtered, cfg)
	}
	if !removed {
		return false, nil
	}
	if len(filtered) == 0 {
		delete(byTenant, tenant)
	} else {
		byTenant[tenant] = filtered
	}
	if err := a.store.Write(ctx, tenantConfigStoreKey, byTenant); err != nil {
		return false, fmt.Errorf("failed to persist alert configs: %w", err)
	}
	return true, nil
}

func (a *AlertService) loadTenantMap(ctx context.Context) (map[string][]models.AlertWebhookConfig, error) {
	byTenant := make(map[string][]models.AlertWebhookConfig)
	if err := a.store.Read(ctx, tenantConfigStoreKey, &byTenant); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load alert configs: %w", err)
	}
	if byTenant == nil {
		byTenant = make(map[string][]models.AlertWebhookConfig)
	}
	return byTenant, nil
}
