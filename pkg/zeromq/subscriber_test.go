package zeromq

import (
	"testing"

	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/stretchr/testify/require"
)

func newTestListener(deliveries *[]processing.Delivery, errs *[]string) *MessageListener {
	return &MessageListener{
		topics: map[string]bool{
			"/irk_mtm/cartesian_pose_current": true,
			"/irk_psm/cartesian_pose_current": true,
		},
		deliver: func(d processing.Delivery) { *deliveries = append(*deliveries, d) },
		onError: func(topic string) { *errs = append(*errs, topic) },
		logger:  testLogger(),
	}
}

func TestHandleFramesDelivers(t *testing.T) {
	var got []processing.Delivery
	var errs []string
	l := newTestListener(&got, &errs)

	topic := "/irk_mtm/cartesian_pose_current"
	env := NewJSONEnvelope(topic, []byte(`{"position":{"x":1}}`))
	l.handleFrames([][]byte{[]byte(topic), EncodeEnvelope(env)})

	require.Len(t, got, 1)
	require.Equal(t, topic, got[0].Topic)
	require.Equal(t, env.TimestampNs, got[0].TimestampNs)
	require.JSONEq(t, `{"position":{"x":1}}`, string(got[0].Payload))
	require.Empty(t, errs)
}

func TestHandleFramesFilters(t *testing.T) {
	var got []processing.Delivery
	var errs []string
	l := newTestListener(&got, &errs)

	// prefix match at the socket, rejected here
	longer := "/irk_mtm/cartesian_pose_current_filtered"
	l.handleFrames([][]byte{[]byte(longer), EncodeEnvelope(NewJSONEnvelope(longer, []byte(`{}`)))})

	// wrong frame count
	l.handleFrames([][]byte{[]byte("/irk_psm/cartesian_pose_current")})

	require.Empty(t, got)
	require.Empty(t, errs)
}

func TestHandleFramesBadEnvelope(t *testing.T) {
	var got []processing.Delivery
	var errs []string
	l := newTestListener(&got, &errs)

	topic := "/irk_psm/cartesian_pose_current"
	l.handleFrames([][]byte{[]byte(topic), []byte("not a flatbuffer")})

	require.Empty(t, got)
	require.Equal(t, []string{topic}, errs)
}
