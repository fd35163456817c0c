package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"atlas/services"
)

// SystemHandlers covers health and store diagnostics.
type SystemHandlers struct {
	store     services.JSONStore
	startedAt time.Time
}

func NewSystemHandlers(store services.JSONStore) *SystemHandlers {
	return &SystemHandlers{
		store:     store,
		startedAt: time.Now(),
	}
}

func (h *SystemHandlers) GetHealth(c echo.Context) error {
	storeStatus := "ok"
	if err := h.store.Ping(c.Request().Context()); err != nil {
		storeStatus = "unreachable"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
		"store": map[string]string{
			"backend": h.store.Backend(),
			"status":  storeStatus,
		},
	})
}
