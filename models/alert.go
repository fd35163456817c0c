package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type TriggerType string

const (
	TriggerTotalNodesDrop       TriggerType = "totalNodesDrop"
	TriggerHealthyPercentBelow  TriggerType = "healthyPercentBelow"
	TriggerCriticalPercentAbove TriggerType = "criticalPercentAbove"
	TriggerAvgUsagePercentAbove TriggerType = "avgUsagePercentAbove"
)

const (
	DefaultCooldownMinutes = 30
	MaxTriggersPerWebhook  = 8
	MaxCooldownMinutes     = 2880
)

var webhookIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

type AlertTrigger struct {
	Type    TriggerType `json:"type"`
	Percent float64     `json:"percent"`
	// CooldownMinutes of 0 means "not set"; EffectiveCooldown applies the default.
	CooldownMinutes int `json:"cooldownMinutes,omitempty"`
}

func (t AlertTrigger) EffectiveCooldown() int {
	if t.CooldownMinutes <= 0 {
		return DefaultCooldownMinutes
	}
	return t.CooldownMinutes
}

func (t AlertTrigger) Validate() error {
	switch t.Type {
	case TriggerTotalNodesDrop, TriggerHealthyPercentBelow,
		TriggerCriticalPercentAbove, TriggerAvgUsagePercentAbove:
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	if t.Percent < 0 || t.Percent > 100 {
		return fmt.Errorf("percent must be within [0, 100], got %v", t.Percent)
	}
	if t.CooldownMinutes != 0 && (t.CooldownMinutes < 1 || t.CooldownMinutes > MaxCooldownMinutes) {
		return fmt.Errorf("cooldownMinutes must be within [1, %d], got %d", MaxCooldownMinutes, t.CooldownMinutes)
	}
	return nil
}

// AlertWebhookConfig is one user-owned webhook endpoint plus its triggers.
// A nil Enabled means enabled; only an explicit false disables the config.
type AlertWebhookConfig struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	URL      string         `json:"url"`
	Secret   string         `json:"secret,omitempty"`
	Enabled  *bool          `json:"isEnabled,omitempty"`
	Triggers []AlertTrigger `json:"triggers"`
}

func (c AlertWebhookConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c AlertWebhookConfig) Validate() error {
	id := strings.TrimSpace(c.ID)
	if len(id) < 2 || len(id) > 64 {
		return fmt.Errorf("webhook id must be 2-64 characters")
	}
	if !webhookIDPattern.MatchString(id) {
		return fmt.Errorf("webhook id may only contain alphanumerics, dash, dot, colon, or underscore")
	}
	if label := strings.TrimSpace(c.Label); label != "" && (len(label) < 2 || len(label) > 80) {
		return fmt.Errorf("label must be 2-80 characters")
	}
	parsed, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("url must be a valid http(s) URL")
	}
	if secret := strings.TrimSpace(c.Secret); secret != "" && (len(secret) < 3 || len(secret) > 256) {
		return fmt.Errorf("secret must be 3-256 characters")
	}
	if len(c.Triggers) < 1 || len(c.Triggers) > MaxTriggersPerWebhook {
		return fmt.Errorf("webhook needs 1-%d triggers, got %d", MaxTriggersPerWebhook, len(c.Triggers))
	}
	for i, trigger := range c.Triggers {
		if err := trigger.Validate(); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	return nil
}

// AlertDelivery is the body POSTed to a webhook URL when a trigger fires.
type AlertDelivery struct {
	WebhookID   string                `json:"webhookId"`
	TriggerType TriggerType           `json:"triggerType"`
	Reason      string                `json:"reason"`
	GeneratedAt string                `json:"generatedAt"`
	TenantID    string                `json:"tenantId"`
	Current     SnapshotHistoryEntry  `json:"current"`
	Previous    *SnapshotHistoryEntry `json:"previous"`
}
