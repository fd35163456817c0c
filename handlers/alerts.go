package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"atlas/models"
	"atlas/services"
)

// AlertHandlers exposes per-tenant webhook config CRUD.
type AlertHandlers struct {
	alerts *services.AlertService
}

func NewAlertHandlers(alerts *services.AlertService) *AlertHandlers {
	return &AlertHandlers{alerts: alerts}
}

type webhookListResponse struct {
	Webhooks []models.AlertWebhookConfig `json:"webhooks"`
}

// ListWebhooks returns the caller's webhook configs.
func (h *AlertHandlers) ListWebhooks(c echo.Context) error {
	tenant := ResolveTenant(c)
	if tenant == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing x-alert-user header"})
	}

	webhooks, err := h.alerts.GetUserAlertConfigs(c.Request().Context(), tenant)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to load webhook configs"})
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, webhookListResponse{Webhooks: webhooks})
}

// CreateWebhook appends one config; duplicate ids are rejected.
func (h *AlertHandlers) CreateWebhook(c echo.Context) error {
	tenant := ResolveTenant(c)
	if tenant == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing x-alert-user header"})
	}

	var config models.AlertWebhookConfig
	if err := c.Bind(&config); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
	}
	if err := config.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	existing, err := h.alerts.GetUserAlertConfigs(ctx, tenant)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to save webhook"})
	}
	for _, hook := range existing {
		if hook.ID == config.ID {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Webhook id already exists"})
		}
	}

	next := append(existing, config)
	if err := h.alerts.SaveUserAlertConfigs(ctx, tenant, next); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to save webhook"})
	}
	return c.JSON(http.StatusCreated, webhookListResponse{Webhooks: next})
}

// UpdateWebhook replaces one config in place; the path id must match the
// body id.
func (h *AlertHandlers) UpdateWebhook(c echo.Context) error {
	tenant := ResolveTenant(c)
	if tenant == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing x-alert-user header"})
	}

	webhookID := c.Param("webhookId")

	var config models.AlertWebhookConfig
	if err := c.Bind(&config); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
	}
	if err := config.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	if config.ID != webhookID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Webhook id mismatch"})
	}

	ctx := c.Request().Context()
	existing, err := h.alerts.GetUserAlertConfigs(ctx, tenant)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to update webhook"})
	}
	index := -1
	for i, hook := range existing {
		if hook.ID == webhookID {
			index = i
			break
		}
	}
	if index == -1 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Webhook not found"})
	}

	existing[index] = config
	if err := h.alerts.SaveUserAlertConfigs(ctx, tenant, existing); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to update webhook"})
	}
	return c.JSON(http.StatusOK, webhookListResponse{Webhooks: existing})
}

// DeleteWebhook removes one config by id.
func (h *AlertHandlers) DeleteWebhook(c echo.Context) error {
	tenant := ResolveTenant(c)
	if tenant == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing x-alert-user header"})
	}

	webhookID := c.Param("webhookId")
	ctx := c.Request().Context()

	removed, err := h.alerts.DeleteUserAlertConfig(ctx, tenant, webhookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to delete webhook"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Webhook not found"})
	}

	webhooks, err := h.alerts.GetUserAlertConfigs(ctx, tenant)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to load webhook configs"})
	}
	return c.JSON(http.StatusOK, webhookListResponse{Webhooks: webhooks})
}
