package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"
)

// ErrNoReply is returned when the command server does not answer in time.
var ErrNoReply = errors.New("no reply from command server")

// CommandClient sends one request at a time to a console command server
type CommandClient struct {
	ctx    *zmq4.Context
	socket *zmq4.Socket
}

// NewCommandClient connects a REQ socket to address. Replies slower than
// timeout fail with ErrNoReply.
func NewCommandClient(address string, timeout time.Duration) (*CommandClient, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	socket, err := ctx.NewSocket(zmq4.REQ)
	if err != nil {
		ctx.Term()
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}

	setup := func() error {
		if err := socket.SetLinger(0); err != nil {
			return fmt.Errorf("failed to set linger option: %w", err)
		}
		if err := socket.SetRcvtimeo(timeout); err != nil {
			return fmt.Errorf("failed to set receive timeout: %w", err)
		}
		if err := socket.SetSndtimeo(timeout); err != nil {
			return fmt.Errorf("failed to set send timeout: %w", err)
		}
		if err := socket.Connect(address); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", address, err)
		}
		return nil
	}
	if err := setup(); err != nil {
		socket.Close()
		ctx.Term()
		return nil, err
	}

	return &CommandClient{ctx: ctx, socket: socket}, nil
}

// Request sends a message and waits for the matching reply. ERROR replies
// are returned as errors.
func (c *CommandClient) Request(messageType string, data interface{}) (*ZeroMQMessage, error) {
	req, err := NewMessage(messageType, data)
	if err != nil {
		return nil, err
	}
	req.ID = uuid.NewString()

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if _, err := c.socket.SendBytes(reqData, 0); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := c.socket.RecvBytes(0)
	if err != nil {
		if errors.Is(err, zmq4.Errno(syscall.EAGAIN)) {
			return nil, ErrNoReply
		}
		return nil, fmt.Errorf("failed to receive reply: %w", err)
	}

	var reply ZeroMQMessage
	if err := json.Unmarshal(respData, &reply); err != nil {
		return nil, fmt.Errorf("%w: reply: %v", ErrInvalidMessage, err)
	}
	if reply.ID != req.ID {
		return nil, fmt.Errorf("reply id %q does not match request id %q", reply.ID, req.ID)
	}

	if reply.Type == MsgTypeError {
		var errResp ErrorResponse
		if err := json.Unmarshal(reply.Data, &errResp); err != nil {
			return nil, fmt.Errorf("%w: error reply: %v", ErrInvalidMessage, err)
		}
		return nil, fmt.Errorf("command server error %d: %s", errResp.Code, errResp.Message)
	}
	return &reply, nil
}

// Close releases the socket and context
func (c *CommandClient) Close() {
	if c.socket != nil {
		c.socket.Close()
		c.socket = nil
	}
	if c.ctx != nil {
		c.ctx.Term()
		c.ctx = nil
	}
}
