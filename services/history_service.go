package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"atlas/models"
)

const (
	historyStoreKey    = "pnode-history"
	defaultHistoryView = 72
)

// HistoryService appends one digest per default poll to a capped series and
// hands each new entry to the alert engine.
type HistoryService struct {
	store      JSONStore
	alerts     *AlertService
	maxEntries int

	// Serializes read-modify-write cycles on the history blob.
	mu sync.Mutex
}

func NewHistoryService(store JSONStore, alerts *AlertService, maxEntries int) *HistoryService {
	if maxEntries <= 0 {
		maxEntries = 288
	}
	return &HistoryService{
		store:      store,
		alerts:     alerts,
		maxEntries: maxEntries,
	}
}

// Record appends the snapshot's digest, trims the series to the cap, and
// runs alert evaluation with the previous entry as baseline. Alert failures
// never surface here; the engine handles its own logging.
func (h *HistoryService) Record(ctx context.Context, snapshot *models.PNodeSnapshot) error {
	entry := models.DigestOf(snapshot)

	h.mu.Lock()
	entries, err := h.load(ctx)
	if err != nil {
		h.mu.Unlock()
		return err
	}

	var previous *models.SnapshotHistoryEntry
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		previous = &last
	}

	entries = append(entries, entry)
	if len(entries) > h.maxEntries {
		entries = entries[len(entries)-h.maxEntries:]
	}

	err = h.store.Write(ctx, historyStoreKey, entries)
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}

	if h.alerts != nil {
		h.alerts.ProcessWebhooks(ctx, previous, entry)
	}
	return nil
}

// GetHistory returns up to limit of the newest entries, oldest first. A
// non-positive limit uses the default dashboard window.
func (h *HistoryService) GetHistory(ctx context.Context, limit int) ([]models.SnapshotHistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryView
	}
	if limit > h.maxEntries {
		limit = h.maxEntries
	}

	h.mu.Lock()
	entries, err := h.load(ctx)
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (h *HistoryService) load(ctx context.Context) ([]models.SnapshotHistoryEntry, error) {
	var entries []models.SnapshotHistoryEntry
	if err := h.store.Read(ctx, historyStoreKey, &entries); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.SnapshotHistoryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}
