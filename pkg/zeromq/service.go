package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/teleop-console/domain/console"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/pebbe/zmq4"
)

// Common errors
var (
	ErrBusClosed          = console.ErrBusClosed
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidEnvelope    = errors.New("invalid envelope")
)

// Message types
const (
	MsgTypeConsoleCommand = "CONSOLE_COMMAND"
	MsgTypeStatusRequest  = "STATUS_REQUEST"
	MsgTypeTopicsRequest  = "TOPICS_REQUEST"
	MsgTypeConsoleState   = "CONSOLE_STATE"
	MsgTypeTopicStats     = "TOPIC_STATS"
	MsgTypeConfigUpdated  = "CONFIG_UPDATED"
	MsgTypeError          = "ERROR"
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewMessage builds a message of the given type with data marshalled to JSON.
func NewMessage(messageType string, data interface{}) (*ZeroMQMessage, error) {
	msg := &ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().Unix()),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s data: %w", messageType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(msg *ZeroMQMessage) (*ZeroMQMessage, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(msg *ZeroMQMessage) (*ZeroMQMessage, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(msg *ZeroMQMessage) (*ZeroMQMessage, error) {
	return f(msg)
}

// MessageDispatcher routes messages to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch parses a request and returns the encoded reply. Handler errors
// are turned into ERROR replies so the REP socket always answers.
func (d *MessageDispatcher) Dispatch(data []byte) []byte {
	var msg ZeroMQMessage
	reply, err := func() (*ZeroMQMessage, error) {
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}

		d.mu.RLock()
		handler, exists := d.handlers[msg.Type]
		d.mu.RUnlock()

		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
		}
		d.logger.Debugf("Dispatching message of type: %s", msg.Type)
		return handler.HandleMessage(&msg)
	}()

	if err == nil && reply == nil {
		err = fmt.Errorf("handler for %s returned no reply", msg.Type)
	}
	if err != nil {
		d.logger.Warnf("Error dispatching message: %v", err)
		reply = errorReply(err)
	}
	reply.ID = msg.ID

	out, err := json.Marshal(reply)
	if err != nil {
		d.logger.Errorf("Error serializing reply: %v", err)
		out, _ = json.Marshal(errorReply(err))
	}
	return out
}

func errorReply(err error) *ZeroMQMessage {
	code := 500
	if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrUnknownMessageType) {
		code = 400
	}
	reply, _ := NewMessage(MsgTypeError, ErrorResponse{Message: err.Error(), Code: code})
	return reply
}

// MessageReceiver answers requests on a REP socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	interval   time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// newMessageReceiver creates a new MessageReceiver bound to address
func newMessageReceiver(ctx *zmq4.Context, address string, interval time.Duration, dispatcher *MessageDispatcher, logger customlog.Logger) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Set send timeout to prevent indefinite blocking during shutdown
	const socketTimeout = 1 * time.Second
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	logger.Infof("MessageReceiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		interval:   interval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	go r.loop()
}

func (r *MessageReceiver) loop() {
	defer close(r.done)
	defer r.socket.Close()

	r.logger.Debugf("MessageReceiver started")

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		// Poll for messages with timeout to allow for clean shutdown
		sockets, err := r.poller.Poll(r.interval)
		if err != nil {
			if isTerminal(err) {
				r.logger.Errorf("MessageReceiver stopped: %v", err)
				return
			}
			r.logger.Warnf("Error polling socket: %v", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		msg, err := r.socket.RecvBytes(0)
		if err != nil {
			r.logger.Warnf("Error receiving message: %v", err)
			continue
		}

		r.logger.Debugf("Received request (%d bytes)", len(msg))

		if _, err := r.socket.SendBytes(r.dispatcher.Dispatch(msg), 0); err != nil {
			r.logger.Warnf("Error sending response: %v", err)
		}
	}
}

// Stop halts the message receiving loop and waits for it to close the socket
func (r *MessageReceiver) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}
