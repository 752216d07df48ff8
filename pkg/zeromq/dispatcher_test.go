package zeromq

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/stretchr/testify/require"
)

type fakeConsole struct {
	applied []console.Command
	state   console.State
	err     error
}

func (f *fakeConsole) Apply(cmd console.Command) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, cmd)
	f.state.ConsoleButton = cmd.Name
	return nil
}

func (f *fakeConsole) Snapshot() console.State {
	return f.state
}

type fakeStats []processing.TopicInfo

func (f fakeStats) Stats() []processing.TopicInfo { return f }

func testLogger() customlog.Logger {
	return customlog.NewWriterLogger("error", io.Discard)
}

func dispatch(t *testing.T, d *MessageDispatcher, req string) ZeroMQMessage {
	t.Helper()
	var reply ZeroMQMessage
	require.NoError(t, json.Unmarshal(d.Dispatch([]byte(req)), &reply))
	return reply
}

func errorOf(t *testing.T, reply ZeroMQMessage) ErrorResponse {
	t.Helper()
	require.Equal(t, MsgTypeError, reply.Type)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(reply.Data, &e))
	return e
}

func TestDispatchConsoleCommand(t *testing.T) {
	fc := &fakeConsole{}
	d := NewMessageDispatcher(testLogger())
	RegisterConsoleHandlers(d, fc, nil, testLogger())

	reply := dispatch(t, d, `{"type":"CONSOLE_COMMAND","id":"req-1","data":{"command":"home"}}`)

	require.Equal(t, MsgTypeConsoleState, reply.Type)
	require.Equal(t, "req-1", reply.ID)
	require.Equal(t, []console.Command{{Name: "home"}}, fc.applied)

	var state console.State
	require.NoError(t, json.Unmarshal(reply.Data, &state))
	require.Equal(t, "home", state.ConsoleButton)
}

func TestDispatchStatusAndTopics(t *testing.T) {
	fc := &fakeConsole{state: console.State{Head: true, Ticks: 7}}
	stats := fakeStats{{TopicID: "mtm_pose", Topic: "/irk_mtm/cartesian_pose_current", StatCount: 3}}
	d := NewMessageDispatcher(testLogger())
	RegisterConsoleHandlers(d, fc, stats, testLogger())

	reply := dispatch(t, d, `{"type":"STATUS_REQUEST"}`)
	require.Equal(t, MsgTypeConsoleState, reply.Type)
	var state console.State
	require.NoError(t, json.Unmarshal(reply.Data, &state))
	require.True(t, state.Head)
	require.Equal(t, uint64(7), state.Ticks)

	reply = dispatch(t, d, `{"type":"TOPICS_REQUEST"}`)
	require.Equal(t, MsgTypeTopicStats, reply.Type)
	var topics []processing.TopicInfo
	require.NoError(t, json.Unmarshal(reply.Data, &topics))
	require.Len(t, topics, 1)
	require.Equal(t, int64(3), topics[0].StatCount)
}

func TestDispatchErrors(t *testing.T) {
	fc := &fakeConsole{}
	d := NewMessageDispatcher(testLogger())
	RegisterConsoleHandlers(d, fc, nil, testLogger())

	cases := []struct {
		name string
		req  string
		code int
	}{
		{"not json", `hello`, 400},
		{"unknown type", `{"type":"LAUNCH"}`, 400},
		{"bad command payload", `{"type":"CONSOLE_COMMAND","data":"home"}`, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := errorOf(t, dispatch(t, d, tc.req))
			require.Equal(t, tc.code, e.Code)
			require.NotEmpty(t, e.Message)
		})
	}
	require.Empty(t, fc.applied)
}

func TestDispatchHandlerFailure(t *testing.T) {
	fc := &fakeConsole{err: errors.New("console unavailable")}
	d := NewMessageDispatcher(testLogger())
	RegisterConsoleHandlers(d, fc, nil, testLogger())

	reply := dispatch(t, d, `{"type":"CONSOLE_COMMAND","id":"x","data":{"command":"home"}}`)
	require.Equal(t, "x", reply.ID)
	e := errorOf(t, reply)
	require.Equal(t, 500, e.Code)
	require.Contains(t, e.Message, "console unavailable")
}

func TestDispatchNilReply(t *testing.T) {
	d := NewMessageDispatcher(testLogger())
	d.RegisterHandler("PING", HandlerFunc(func(*ZeroMQMessage) (*ZeroMQMessage, error) {
		return nil, nil
	}))

	e := errorOf(t, dispatch(t, d, `{"type":"PING"}`))
	require.Equal(t, 500, e.Code)
}

type capturePublisher struct {
	topic string
	msg   interface{}
}

func (c *capturePublisher) PublishJSON(topic string, v interface{}) error {
	c.topic = topic
	c.msg = v
	return nil
}

func TestConfigPublisher(t *testing.T) {
	cp := &capturePublisher{}
	cfg := config.DefaultConfig()
	cfg.LastUpdated = "2026-10-19"

	p := NewConfigPublisher(cp, func() *config.Config { return cfg }, testLogger())
	require.NoError(t, p.PublishConfigUpdatedNotification())

	require.Equal(t, ConfigNotificationTopic, cp.topic)
	msg, ok := cp.msg.(*ZeroMQMessage)
	require.True(t, ok)
	require.Equal(t, MsgTypeConfigUpdated, msg.Type)

	var data map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	require.Equal(t, "default", data["config_id"])
	require.Equal(t, "2026-10-19", data["last_updated"])

	empty := NewConfigPublisher(cp, func() *config.Config { return nil }, testLogger())
	cp.topic = ""
	require.NoError(t, empty.PublishConfigUpdatedNotification())
	require.Empty(t, cp.topic)
}
