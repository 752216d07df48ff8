package zeromq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/pebbe/zmq4"
)

// BusOptions configures the console's bus endpoints.
type BusOptions struct {
	PublishAddress   string
	SubscribeAddress string
	// CommandBindAddress enables the request/reply command server when set.
	CommandBindAddress string
	InboundTopics      []string
	PollInterval       time.Duration
}

// Bus coordinates the console's ZeroMQ sockets: one PUB for outbound topics,
// one SUB for poses and an optional REP for remote commands.
type Bus struct {
	ctx        *zmq4.Context
	sender     *MessageSender
	listener   *MessageListener
	receiver   *MessageReceiver
	dispatcher *MessageDispatcher
	registry   *processing.TopicRegistry
	logger     customlog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewBus creates the sockets. Received poses go to deliver; traffic is
// counted in registry.
func NewBus(opts BusOptions, registry *processing.TopicRegistry, deliver DeliveryFunc, logger customlog.Logger) (*Bus, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	b := &Bus{
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		registry:   registry,
		logger:     logger,
	}

	b.sender, err = newMessageSender(ctx, opts.PublishAddress, logger)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	b.listener, err = newMessageListener(ctx, opts.SubscribeAddress, opts.InboundTopics, opts.PollInterval, func(d processing.Delivery) {
		registry.UpdateTopicStats(d.Topic, d.TimestampNs)
		deliver(d)
	}, logger)
	if err != nil {
		b.sender.Close()
		ctx.Term()
		return nil, err
	}
	b.listener.onError = registry.RecordError

	if opts.CommandBindAddress != "" {
		b.receiver, err = newMessageReceiver(ctx, opts.CommandBindAddress, opts.PollInterval, b.dispatcher, logger)
		if err != nil {
			// the listener goroutine is not running yet, close its socket here
			b.listener.socket.Close()
			b.sender.Close()
			ctx.Term()
			return nil, err
		}
	}

	return b, nil
}

// Dispatcher returns the command dispatcher for registering handlers
func (b *Bus) Dispatcher() *MessageDispatcher {
	return b.dispatcher
}

// Start begins receiving
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running || b.stopped {
		return
	}
	b.running = true
	b.logger.Infof("Starting ZeroMQ bus")

	b.listener.Start()
	if b.receiver != nil {
		b.receiver.Start()
	}
}

// Stop closes every socket and terminates the context
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	wasRunning := b.running
	b.running = false
	b.stopped = true
	b.mu.Unlock()

	b.logger.Infof("Stopping ZeroMQ bus")

	if wasRunning {
		b.listener.Stop()
		if b.receiver != nil {
			b.receiver.Stop()
		}
	} else {
		b.listener.socket.Close()
		if b.receiver != nil {
			b.receiver.socket.Close()
		}
	}
	b.sender.Close()

	if err := b.ctx.Term(); err != nil {
		b.logger.Warnf("Error terminating ZMQ context: %v", err)
	}
	b.logger.Infof("ZeroMQ bus stopped")
}

// OK reports whether the bus is running and its subscriber is alive.
func (b *Bus) OK() bool {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()

	if !running {
		return false
	}
	select {
	case <-b.listener.Done():
		return false
	default:
		return true
	}
}

// Err returns the error that stopped the subscriber, if any
func (b *Bus) Err() error {
	return b.listener.Err()
}

// PublishMessage sends raw bytes in an envelope on topic
func (b *Bus) PublishMessage(topic string, payload []byte) error {
	env := NewJSONEnvelope(topic, payload)
	if err := b.sender.PublishMessage(topic, EncodeEnvelope(env)); err != nil {
		b.registry.RecordError(topic)
		return err
	}
	b.registry.UpdateTopicStats(topic, env.TimestampNs)
	return nil
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (b *Bus) PublishJSON(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", topic, err)
	}
	return b.PublishMessage(topic, payload)
}
