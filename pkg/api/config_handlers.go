package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.TeleopConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.TeleopConfigService, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the topic configuration endpoints.
func RegisterConfigRoutes(app *fiber.App, configService services.TeleopConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)

	group := app.Group("/api/v1/config")
	group.Get("/teleop", h.handleGetTeleopConfig)
	group.Put("/teleop", h.handleUpdateTeleopConfig)
}

func (h *ConfigHandler) handleGetTeleopConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to get current topic config YAML: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to retrieve configuration: "+err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

func (h *ConfigHandler) handleUpdateTeleopConfig(c *fiber.Ctx) error {
	switch ct := c.Get(fiber.HeaderContentType); ct {
	case "application/x-yaml", "application/yaml", "text/yaml", "":
	default:
		h.logger.Warnf("Topic config PUT with Content-Type %s, parsing as YAML", ct)
	}

	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "request body cannot be empty")
	}

	if err := h.configService.UpdateConfig(body); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.logger.Errorf("Failed to update topic configuration: %v", err)
		return err
	}

	cfg := h.configService.GetCurrentConfig()
	return c.JSON(fiber.Map{
		"message":   "topic configuration updated",
		"config_id": cfg.ConfigID,
		"version":   cfg.Version,
	})
}
