// Package api exposes the console over HTTP and websocket.
package api

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/teleop-console/domain/console"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/open-teleop/teleop-console/services"
)

// ConsoleService is the console as seen by the API.
type ConsoleService interface {
	Apply(cmd console.Command) error
	Snapshot() console.State
}

// TopicStats reports per-topic traffic.
type TopicStats interface {
	Stats() []processing.TopicInfo
}

// Options wires the API to the running console.
type Options struct {
	Console ConsoleService
	Topics  TopicStats
	Config  services.TeleopConfigService
	Logger  customlog.Logger
	// AccessLog receives one line per request when set.
	AccessLog io.Writer
}

// NewApp builds the fiber app with every console route registered.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Teleop Console",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}

	started := time.Now()
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})

	RegisterConsoleRoutes(app, opts.Console, opts.Topics, opts.Logger)
	if opts.Config != nil {
		RegisterConfigRoutes(app, opts.Config, opts.Logger)
	}
	RegisterWebSocketRoutes(app, opts.Console, opts.Logger)

	return app
}

// ErrorHandler answers every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
