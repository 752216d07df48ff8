package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/teleop-console/domain/console"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
)

// ConsoleHandler serves the console state and accepts button presses.
type ConsoleHandler struct {
	console ConsoleService
	topics  TopicStats
	logger  customlog.Logger
}

// RegisterConsoleRoutes registers the console and topic endpoints.
func RegisterConsoleRoutes(app *fiber.App, svc ConsoleService, topics TopicStats, logger customlog.Logger) {
	h := &ConsoleHandler{console: svc, topics: topics, logger: logger}

	v1 := app.Group("/api/v1")
	v1.Get("/console/state", h.handleGetState)
	v1.Post("/console/command", h.handleCommand)
	v1.Get("/topics", h.handleGetTopics)
}

func (h *ConsoleHandler) handleGetState(c *fiber.Ctx) error {
	return c.JSON(h.console.Snapshot())
}

func (h *ConsoleHandler) handleCommand(c *fiber.Ctx) error {
	var cmd console.Command
	if err := c.BodyParser(&cmd); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid command body: "+err.Error())
	}
	if cmd.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "command is required")
	}

	h.logger.Infof("API console command: %s (state=%v)", cmd.Name, cmd.State)
	if err := h.console.Apply(cmd); err != nil {
		if errors.Is(err, console.ErrUnknownCommand) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(h.console.Snapshot())
}

func (h *ConsoleHandler) handleGetTopics(c *fiber.Ctx) error {
	if h.topics == nil {
		return c.JSON([]processing.TopicInfo{})
	}
	return c.JSON(h.topics.Stats())
}
