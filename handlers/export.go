package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"atlas/models"
	"atlas/services"
)

const (
	exportVersion = "2025.12.24"

	exportCacheSeconds  = 60
	exportDefaultPoints = 48
	exportMaxPoints     = 168
	exportDefaultLimit  = 50
	exportMaxLimit      = 500
)

// ExportHandlers serves the read-only data feed for external consumers.
// When a token is configured every endpoint requires it via the
// x-atlas-token header or atlasToken query parameter.
type ExportHandlers struct {
	snapshots *services.SnapshotService
	history   *services.HistoryService
	token     string
}

func NewExportHandlers(snapshots *services.SnapshotService, history *services.HistoryService, token string) *ExportHandlers {
	return &ExportHandlers{
		snapshots: snapshots,
		history:   history,
		token:     token,
	}
}

type exportPayload struct {
	Version     string      `json:"version"`
	GeneratedAt string      `json:"generatedAt"`
	Data        interface{} `json:"data"`
}

func (h *ExportHandlers) authorized(c echo.Context) bool {
	if h.token == "" {
		return true
	}
	if strings.TrimSpace(c.Request().Header.Get("x-atlas-token")) == h.token {
		return true
	}
	return strings.TrimSpace(c.QueryParam("atlasToken")) == h.token
}

func setExportCacheHeaders(c echo.Context, seconds int) {
	c.Response().Header().Set("Cache-Control",
		fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", seconds, seconds))
}

// GetSummary returns the fleet-wide metrics of the current snapshot.
func (h *ExportHandlers) GetSummary(c echo.Context) error {
	if !h.authorized(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	snapshot, err := h.snapshots.GetSnapshot(c.Request().Context(), nil, false)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Snapshot unavailable"})
	}

	setExportCacheHeaders(c, exportCacheSeconds)
	return c.JSON(http.StatusOK, exportPayload{
		Version:     exportVersion,
		GeneratedAt: snapshot.FetchedAt,
		Data: map[string]interface{}{
			"totalNodes":      snapshot.Metrics.TotalNodes,
			"publicNodes":     snapshot.Metrics.PublicNodes,
			"privateNodes":    snapshot.Metrics.PrivateNodes,
			"healthy":         snapshot.Metrics.Healthy,
			"warning":         snapshot.Metrics.Warning,
			"critical":        snapshot.Metrics.Critical,
			"avgUsagePercent": snapshot.Metrics.AvgUsagePercent,
			"committedTb":     snapshot.Metrics.CommittedTB,
			"usedTb":          snapshot.Metrics.UsedTB,
			"latestVersion":   snapshot.Metrics.LatestVersion,
			"stale":           snapshot.Metrics.Stale,
		},
	})
}

type exportHistoryPoint struct {
	Timestamp       string  `json:"timestamp"`
	TotalNodes      int     `json:"totalNodes"`
	Healthy         int     `json:"healthy"`
	Warning         int     `json:"warning"`
	Critical        int     `json:"critical"`
	AvgUsagePercent float64 `json:"avgUsagePercent"`
}

// GetHistory returns a downsampled history series. Query params: interval
// (1h, 6h, 24h) and points (12-168).
func (h *ExportHandlers) GetHistory(c echo.Context) error {
	if !h.authorized(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	interval := normalizeInterval(c.QueryParam("interval"))
	points := normalizePoints(c.QueryParam("points"))

	entries, err := h.history.GetHistory(c.Request().Context(), points*4)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to prepare history"})
	}

	sampled := downsampleHistory(entries, interval, points)
	generatedAt := time.Now().UTC().Format(time.RFC3339)
	if len(sampled) > 0 {
		generatedAt = sampled[len(sampled)-1].Timestamp
	}

	setExportCacheHeaders(c, exportCacheSeconds)
	return c.JSON(http.StatusOK, exportPayload{
		Version:     exportVersion,
		GeneratedAt: generatedAt,
		Data: map[string]interface{}{
			"interval": interval,
			"points":   sampled,
		},
	})
}

type exportNode struct {
	Pubkey              string            `json:"pubkey"`
	Status              models.NodeStatus `json:"status"`
	UptimeHours         float64           `json:"uptimeHours"`
	StorageUsagePercent float64           `json:"storageUsagePercent"`
	StorageCommitted    float64           `json:"storageCommitted"`
	StorageUsed         float64           `json:"storageUsed"`
	IsPublic            bool              `json:"isPublic"`
	LastSeen            string            `json:"lastSeen"`
	Version             string            `json:"version"`
}

// GetNodes returns a cursor-paginated node feed, optionally filtered by
// status.
func (h *ExportHandlers) GetNodes(c echo.Context) error {
	if !h.authorized(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	statusFilter := normalizeStatus(c.QueryParam("status"))
	limit := normalizeLimit(c.QueryParam("limit"))
	cursor := c.QueryParam("cursor")

	snapshot, err := h.snapshots.GetSnapshot(c.Request().Context(), nil, false)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Snapshot unavailable"})
	}

	filtered := snapshot.Nodes
	if statusFilter != "all" {
		filtered = make([]models.PNode, 0, len(snapshot.Nodes))
		for _, node := range snapshot.Nodes {
			if string(node.Status) == statusFilter {
				filtered = append(filtered, node)
			}
		}
	}

	startIndex := 0
	if cursor != "" {
		for i, node := range filtered {
			if node.Pubkey == cursor {
				startIndex = i + 1
				break
			}
		}
	}
	end := startIndex + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	slice := filtered[startIndex:end]

	var nextCursor *string
	if end < len(filtered) && len(slice) > 0 {
		last := slice[len(slice)-1].Pubkey
		nextCursor = &last
	}

	nodes := make([]exportNode, 0, len(slice))
	for _, node := range slice {
		nodes = append(nodes, exportNode{
			Pubkey:              node.Pubkey,
			Status:              node.Status,
			UptimeHours:         node.UptimeHours,
			StorageUsagePercent: node.StorageUsagePercent,
			StorageCommitted:    node.StorageCommitted,
			StorageUsed:         node.StorageUsed,
			IsPublic:            node.IsPublic,
			LastSeen:            node.LastSeenISO,
			Version:             node.Version,
		})
	}

	setExportCacheHeaders(c, 300)
	return c.JSON(http.StatusOK, exportPayload{
		Version:     exportVersion,
		GeneratedAt: snapshot.FetchedAt,
		Data: map[string]interface{}{
			"nodes":      nodes,
			"nextCursor": nextCursor,
		},
	})
}

func normalizeStatus(value string) string {
	switch value {
	case "healthy", "warning", "critical":
		return value
	}
	return "all"
}

func normalizeInterval(value string) string {
	if value == "6h" || value == "24h" {
		return value
	}
	return "1h"
}

func normalizePoints(value string) int {
	if value == "" {
		return exportDefaultPoints
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return exportDefaultPoints
	}
	if parsed < 12 {
		return 12
	}
	if parsed > exportMaxPoints {
		return exportMaxPoints
	}
	return parsed
}

func normalizeLimit(value string) int {
	if value == "" {
		return exportDefaultLimit
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return exportDefaultLimit
	}
	if parsed < 10 {
		return 10
	}
	if parsed > exportMaxLimit {
		return exportMaxLimit
	}
	return parsed
}

// downsampleHistory thins the series so roughly maxPoints entries cover the
// requested interval, keeping the newest window.
func downsampleHistory(history []models.SnapshotHistoryEntry, interval string, maxPoints int) []exportHistoryPoint {
	if len(history) == 0 {
		return []exportHistoryPoint{}
	}

	step := 1
	switch interval {
	case "1h":
		step = max(1, len(history)/maxPoints)
	case "6h":
		step = max(1, len(history)*3/(maxPoints*2))
	case "24h":
		step = max(1, len(history)*3/maxPoints)
	}

	start := len(history) - step*maxPoints
	if start < 0 {
		start = 0
	}

	points := make([]exportHistoryPoint, 0, maxPoints)
	for i := start; i < len(history); i += step {
		entry := history[i]
		points = append(points, exportHistoryPoint{
			Timestamp:       entry.Timestamp,
			TotalNodes:      entry.TotalNodes,
			Healthy:         entry.Healthy,
			Warning:         entry.Warning,
			Critical:        entry.Critical,
			AvgUsagePercent: entry.AvgUsagePercent,
		})
	}
	return points
}
