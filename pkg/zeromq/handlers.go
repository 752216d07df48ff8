package zeromq

import (
	"encoding/json"
	"fmt"

	"github.com/open-teleop/teleop-console/domain/console"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
)

// ConsoleController is the part of the console reachable over the bus.
type ConsoleController interface {
	Apply(cmd console.Command) error
	Snapshot() console.State
}

// TopicStatsProvider reports per-topic traffic.
type TopicStatsProvider interface {
	Stats() []processing.TopicInfo
}

// ConsoleHandler answers console requests arriving on the command socket
type ConsoleHandler struct {
	console ConsoleController
	stats   TopicStatsProvider
	logger  customlog.Logger
}

// NewConsoleHandler creates a new handler for console requests
func NewConsoleHandler(ctrl ConsoleController, stats TopicStatsProvider, logger customlog.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		console: ctrl,
		stats:   stats,
		logger:  logger,
	}
}

// HandleMessage processes CONSOLE_COMMAND, STATUS_REQUEST and TOPICS_REQUEST
func (h *ConsoleHandler) HandleMessage(msg *ZeroMQMessage) (*ZeroMQMessage, error) {
	switch msg.Type {
	case MsgTypeConsoleCommand:
		var cmd console.Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return nil, fmt.Errorf("%w: console command: %v", ErrInvalidMessage, err)
		}
		h.logger.Infof("Remote console command: %s (state=%v)", cmd.Name, cmd.State)
		if err := h.console.Apply(cmd); err != nil {
			return nil, err
		}
		return NewMessage(MsgTypeConsoleState, h.console.Snapshot())

	case MsgTypeStatusRequest:
		return NewMessage(MsgTypeConsoleState, h.console.Snapshot())

	case MsgTypeTopicsRequest:
		if h.stats == nil {
			return NewMessage(MsgTypeTopicStats, []processing.TopicInfo{})
		}
		return NewMessage(MsgTypeTopicStats, h.stats.Stats())

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
}

// RegisterConsoleHandlers wires the console handler into the dispatcher
func RegisterConsoleHandlers(dispatcher *MessageDispatcher, ctrl ConsoleController, stats TopicStatsProvider, logger customlog.Logger) {
	handler := NewConsoleHandler(ctrl, stats, logger)
	dispatcher.RegisterHandler(MsgTypeConsoleCommand, handler)
	dispatcher.RegisterHandler(MsgTypeStatusRequest, handler)
	dispatcher.RegisterHandler(MsgTypeTopicsRequest, handler)
}
