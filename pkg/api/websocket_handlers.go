package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/teleop-console/domain/console"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
)

// RegisterWebSocketRoutes registers /ws/console.
func RegisterWebSocketRoutes(app *fiber.App, svc ConsoleService, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/console", websocket.New(func(conn *websocket.Conn) {
		ConsoleWebSocketHandler(conn, svc, logger)
	}))
}

// ConsoleWebSocketHandler applies each text frame as a console command and
// answers with the resulting state snapshot.
func ConsoleWebSocketHandler(conn *websocket.Conn, svc ConsoleService, logger customlog.Logger) {
	logger.Infof("Console WebSocket connected: %s", conn.RemoteAddr())
	defer logger.Infof("Console WebSocket disconnected: %s", conn.RemoteAddr())

	if err := conn.WriteJSON(svc.Snapshot()); err != nil {
		logger.Warnf("Console WS initial write failed: %v", err)
		return
	}

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Errorf("Console WS read error: %v", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			logger.Debugf("Ignoring non-text console WS message type: %d", mt)
			continue
		}

		reply := handleConsoleFrame(msg, svc, logger)
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warnf("Console WS write failed: %v", err)
			return
		}
	}
}

func handleConsoleFrame(msg []byte, svc ConsoleService, logger customlog.Logger) interface{} {
	var cmd console.Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		logger.Warnf("Malformed console command from WS: %v", err)
		return fiber.Map{"error": "invalid command: " + err.Error()}
	}

	logger.Infof("WS console command: %s (state=%v)", cmd.Name, cmd.State)
	if err := svc.Apply(cmd); err != nil {
		return fiber.Map{"error": err.Error()}
	}
	return svc.Snapshot()
}
