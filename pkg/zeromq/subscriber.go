package zeromq

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/pebbe/zmq4"
)

// DeliveryFunc receives every decoded envelope on a subscribed topic.
type DeliveryFunc func(processing.Delivery)

// MessageListener receives envelopes on a SUB socket. The socket is owned
// by the receive goroutine, which closes it on exit.
type MessageListener struct {
	socket       *zmq4.Socket
	poller       *zmq4.Poller
	topics       map[string]bool
	deliver      DeliveryFunc
	onError      func(topic string)
	pollInterval time.Duration
	logger       customlog.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

// newMessageListener connects a SUB socket to address and subscribes to topics
func newMessageListener(ctx *zmq4.Context, address string, topics []string, pollInterval time.Duration, deliver DeliveryFunc, logger customlog.Logger) (*MessageListener, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		if err := socket.SetSubscribe(topic); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		wanted[topic] = true
	}

	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}

	logger.Infof("MessageListener connected to %s (%d topics)", address, len(topics))

	return &MessageListener{
		socket:       socket,
		poller:       poller,
		topics:       wanted,
		deliver:      deliver,
		pollInterval: pollInterval,
		logger:       logger,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Start begins the receive loop
func (l *MessageListener) Start() {
	go l.receiveLoop()
}

// Stop asks the receive loop to exit and waits for it
func (l *MessageListener) Stop() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// Done is closed once the receive loop has exited
func (l *MessageListener) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that ended the receive loop, if any
func (l *MessageListener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *MessageListener) receiveLoop() {
	defer close(l.done)
	defer l.socket.Close()

	l.logger.Debugf("MessageListener started")

	for {
		select {
		case <-l.stop:
			l.logger.Debugf("MessageListener stopping")
			return
		default:
		}

		sockets, err := l.poller.Poll(l.pollInterval)
		if err != nil {
			if isTerminal(err) {
				l.fail(fmt.Errorf("subscriber poll: %w", err))
				return
			}
			l.logger.Warnf("Error polling socket: %v", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		frames, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if isTerminal(err) {
				l.fail(fmt.Errorf("subscriber receive: %w", err))
				return
			}
			l.logger.Warnf("Error receiving message: %v", err)
			continue
		}

		l.handleFrames(frames)
	}
}

func (l *MessageListener) handleFrames(frames [][]byte) {
	if len(frames) != 2 {
		l.logger.Warnf("Dropping message with %d frames, expected topic + envelope", len(frames))
		return
	}

	// SUB filtering is by prefix
	topic := string(frames[0])
	if !l.topics[topic] {
		return
	}

	env, err := DecodeEnvelope(frames[1])
	if err != nil {
		l.logger.Warnf("Dropping message on '%s': %v", topic, err)
		if l.onError != nil {
			l.onError(topic)
		}
		return
	}
	if env.Topic != topic {
		l.logger.Warnf("Envelope topic '%s' does not match frame topic '%s'", env.Topic, topic)
	}

	l.deliver(processing.Delivery{
		Topic:       topic,
		Payload:     env.Payload,
		TimestampNs: env.TimestampNs,
	})
}

func (l *MessageListener) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	l.logger.Errorf("MessageListener stopped: %v", err)
}

// isTerminal reports errors after which the socket is unusable.
func isTerminal(err error) bool {
	return errors.Is(err, zmq4.ETERM) || errors.Is(err, zmq4.Errno(syscall.ENOTSOCK))
}
