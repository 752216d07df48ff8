package zeromq

import (
	"testing"
	"time"

	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/require"
)

const testPoseTopic = "/irk_mtm/cartesian_pose_current"

// bindLoopback binds a socket of type typ on an ephemeral loopback port and
// returns it with its resolved endpoint. The Bus owns its own context, so
// the peer sockets cannot share inproc:// endpoints with it.
func bindLoopback(t *testing.T, ctx *zmq4.Context, typ zmq4.Type) (*zmq4.Socket, string) {
	t.Helper()

	socket, err := ctx.NewSocket(typ)
	require.NoError(t, err)
	require.NoError(t, socket.SetLinger(0))
	require.NoError(t, socket.Bind("tcp://127.0.0.1:*"))

	endpoint, err := socket.GetLastEndpoint()
	require.NoError(t, err)
	return socket, endpoint
}

func TestBusLifecycle(t *testing.T) {
	peerCtx, err := zmq4.NewContext()
	require.NoError(t, err)
	defer peerCtx.Term()

	poses, poseEndpoint := bindLoopback(t, peerCtx, zmq4.PUB)
	defer poses.Close()

	outbound, outboundEndpoint := bindLoopback(t, peerCtx, zmq4.SUB)
	defer outbound.Close()
	require.NoError(t, outbound.SetSubscribe(""))

	registry := processing.NewTopicRegistry(testLogger())
	delivered := make(chan processing.Delivery, 16)

	bus, err := NewBus(BusOptions{
		PublishAddress:   outboundEndpoint,
		SubscribeAddress: poseEndpoint,
		InboundTopics:    []string{testPoseTopic},
		PollInterval:     10 * time.Millisecond,
	}, registry, func(d processing.Delivery) {
		select {
		case delivered <- d:
		default:
		}
	}, testLogger())
	require.NoError(t, err)

	require.False(t, bus.OK(), "bus should not be OK before Start")

	bus.Start()
	require.True(t, bus.OK())

	// keep publishing until the subscription has propagated
	frame := EncodeEnvelope(NewJSONEnvelope(testPoseTopic, []byte(`{"position":{"x":1}}`)))
	var got processing.Delivery
	require.Eventually(t, func() bool {
		_, _ = poses.SendMessage(testPoseTopic, frame)
		select {
		case got = <-delivered:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, testPoseTopic, got.Topic)
	require.JSONEq(t, `{"position":{"x":1}}`, string(got.Payload))

	// outbound traffic reaches the bound SUB
	var frames [][]byte
	require.Eventually(t, func() bool {
		if err := bus.PublishJSON("/irk_teleop/enable", map[string]bool{"data": true}); err != nil {
			return false
		}
		received, err := outbound.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			return false
		}
		frames = received
		return true
	}, 5*time.Second, 20*time.Millisecond)
	require.Len(t, frames, 2)
	require.Equal(t, "/irk_teleop/enable", string(frames[0]))

	env, err := DecodeEnvelope(frames[1])
	require.NoError(t, err)
	require.JSONEq(t, `{"data":true}`, string(env.Payload))

	bus.Stop()
	require.False(t, bus.OK())
	require.NoError(t, bus.Err())
	require.ErrorIs(t, bus.PublishJSON("/irk_teleop/enable", map[string]bool{"data": false}), ErrBusClosed)

	// a second Stop is a no-op
	bus.Stop()
	require.False(t, bus.OK())

	var seen bool
	for _, s := range registry.Stats() {
		if s.Topic == testPoseTopic {
			seen = true
			require.GreaterOrEqual(t, s.StatCount, int64(1))
		}
	}
	require.True(t, seen, "inbound pose should be counted")
}

func TestBusStopWithoutStart(t *testing.T) {
	bus, err := NewBus(BusOptions{
		PublishAddress:   "tcp://127.0.0.1:1",
		SubscribeAddress: "tcp://127.0.0.1:1",
		InboundTopics:    []string{testPoseTopic},
	}, processing.NewTopicRegistry(testLogger()), func(processing.Delivery) {}, testLogger())
	require.NoError(t, err)

	bus.Stop()
	require.False(t, bus.OK())

	// Start after Stop does not revive the bus
	bus.Start()
	require.False(t, bus.OK())
	// the panel and serve match on the console sentinel
	require.ErrorIs(t, bus.PublishMessage(testPoseTopic, []byte(`{}`)), console.ErrBusClosed)
}
