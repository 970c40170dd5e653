package handler

import (
	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/middleware"
	"quiz-forge/internal/service"
	"quiz-forge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles provider settings and activity log requests
type SettingsHandler struct {
	service   service.SettingsService
	validator *validation.Validator
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(service service.SettingsService, validator *validation.Validator) *SettingsHandler {
	return &SettingsHandler{service: service, validator: validator}
}

// GetProviderSettings handles GET /api/settings/provider
func (h *SettingsHandler) GetProviderSettings(c *fiber.Ctx) error {
	cfg, err := h.service.GetProviderSettings(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(cfg)
}

// UpdateProviderSettings handles PUT /api/settings/provider
func (h *SettingsHandler) UpdateProviderSettings(c *fiber.Ctx) error {
	var body dto.ProviderSettingsRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if err := h.validator.Struct(&body); err != nil {
		return err
	}

	cfg, err := h.service.UpdateProviderSettings(c.UserContext(), body.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(cfg)
}

// ListLogs handles GET /api/logs
func (h *SettingsHandler) ListLogs(c *fiber.Ctx) error {
	limit, _ := c.Locals(middleware.LimitLocalKey).(int)
	logs, err := h.service.ListLogs(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []*domain.LogEntry{}
	}
	return c.JSON(dto.LogListResponse{Logs: logs})
}
