package test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/open-teleop/teleop-console/pkg/zeromq"
	"github.com/pebbe/zmq4"
)

// These tests talk to a running console. Set TELEOP_CONSOLE_LIVE_COMMAND
// (e.g. tcp://localhost:5562) and TELEOP_CONSOLE_LIVE_PUBLISH (the console's
// publish endpoint, e.g. tcp://localhost:5560 on the broker side) to run them.

func liveAddress(t *testing.T, env string) string {
	t.Helper()
	addr := os.Getenv(env)
	if addr == "" {
		t.Skipf("%s not set; skipping live console test", env)
	}
	return addr
}

// TestRequestClient presses Home through the command socket
func TestRequestClient(t *testing.T) {
	addr := liveAddress(t, "TELEOP_CONSOLE_LIVE_COMMAND")

	client, err := zeromq.NewCommandClient(addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create command client: %v", err)
	}
	defer client.Close()

	reply, err := client.Request(zeromq.MsgTypeConsoleCommand, console.Command{Name: console.CommandHome})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if reply.Type != zeromq.MsgTypeConsoleState {
		t.Fatalf("Expected reply type %s, got %s", zeromq.MsgTypeConsoleState, reply.Type)
	}

	var state console.State
	if err := json.Unmarshal(reply.Data, &state); err != nil {
		t.Fatalf("Failed to unmarshal state: %v", err)
	}
	if state.ConsoleButton != console.CommandHome {
		t.Errorf("Expected console button home, got %q", state.ConsoleButton)
	}
	if state.MasterMode == nil || *state.MasterMode != console.ModeReset {
		t.Errorf("Expected MTM mode RESET, got %v", state.MasterMode)
	}
}

// TestSubscriber waits for a few teleop enable ticks
func TestSubscriber(t *testing.T) {
	addr := liveAddress(t, "TELEOP_CONSOLE_LIVE_PUBLISH")
	const topic = "/irk_teleop/enable"

	ctx, err := zmq4.NewContext()
	if err != nil {
		t.Fatalf("Failed to create ZMQ context: %v", err)
	}
	defer ctx.Term()

	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		t.Fatalf("Failed to create SUB socket: %v", err)
	}
	defer socket.Close()

	if err := socket.Connect(addr); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := socket.SetSubscribe(topic); err != nil {
		t.Fatalf("Failed to set subscription: %v", err)
	}
	if err := socket.SetRcvtimeo(2 * time.Second); err != nil {
		t.Fatalf("Failed to set receive timeout: %v", err)
	}

	for i := 0; i < 3; i++ {
		frames, err := socket.RecvMessageBytes(0)
		if err != nil {
			t.Fatalf("Failed to receive tick %d: %v", i, err)
		}
		if len(frames) != 2 || string(frames[0]) != topic {
			t.Fatalf("Unexpected frames on tick %d: %d frames", i, len(frames))
		}

		env, err := zeromq.DecodeEnvelope(frames[1])
		if err != nil {
			t.Fatalf("Failed to decode envelope: %v", err)
		}
		var msg console.BoolMsg
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			t.Fatalf("Failed to unmarshal enable flag: %v", err)
		}
		t.Logf("tick %d: enable=%v at %d", i, msg.Data, env.TimestampNs)
	}
}
