package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"atlas/services"
)

// PNodeHandlers serves the live snapshot and its recorded history.
type PNodeHandlers struct {
	snapshots *services.SnapshotService
	history   *services.HistoryService
}

func NewPNodeHandlers(snapshots *services.SnapshotService, history *services.HistoryService) *PNodeHandlers {
	return &PNodeHandlers{
		snapshots: snapshots,
		history:   history,
	}
}

// GetSnapshot returns the current fleet snapshot. Query params:
// refresh=1 bypasses the cache, seeds=a,b,c polls an ad-hoc seed list.
func (h *PNodeHandlers) GetSnapshot(c echo.Context) error {
	forceRefresh := c.QueryParam("refresh") == "1" || c.QueryParam("refresh") == "true"

	var customSeeds []string
	if raw := c.QueryParam("seeds"); raw != "" {
		for _, seed := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(seed); trimmed != "" {
				customSeeds = append(customSeeds, trimmed)
			}
		}
	}

	snapshot, err := h.snapshots.GetSnapshot(c.Request().Context(), customSeeds, forceRefresh)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetHistory returns recorded history digests, oldest first.
func (h *PNodeHandlers) GetHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}

	entries, err := h.history.GetHistory(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to load history"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": entries})
}
