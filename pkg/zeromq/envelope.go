package zeromq

import (
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	message "github.com/open-teleop/teleop-console/pkg/flatbuffers/teleop/message"
)

// EnvelopeVersion is written into every OttMessage.
const EnvelopeVersion byte = 1

// Envelope is the decoded form of an OttMessage.
type Envelope struct {
	Topic       string
	ContentType message.ContentType
	Payload     []byte
	TimestampNs int64
	Version     byte
}

// NewJSONEnvelope wraps a JSON payload for topic, stamped now.
func NewJSONEnvelope(topic string, payload []byte) Envelope {
	return Envelope{
		Topic:       topic,
		ContentType: message.ContentTypeJSON_PAYLOAD,
		Payload:     payload,
		TimestampNs: time.Now().UnixNano(),
		Version:     EnvelopeVersion,
	}
}

// EncodeEnvelope serialises e as an OttMessage FlatBuffer.
func EncodeEnvelope(e Envelope) []byte {
	builder := flatbuffers.NewBuilder(64 + len(e.Payload) + len(e.Topic))
	topicOffset := builder.CreateString(e.Topic)
	payloadOffset := builder.CreateByteVector(e.Payload)

	version := e.Version
	if version == 0 {
		version = EnvelopeVersion
	}

	message.OttMessageStart(builder)
	message.OttMessageAddVersion(builder, version)
	message.OttMessageAddPayload(builder, payloadOffset)
	message.OttMessageAddContentType(builder, e.ContentType)
	message.OttMessageAddOtt(builder, topicOffset)
	message.OttMessageAddTimestampNs(builder, e.TimestampNs)
	message.FinishOttMessageBuffer(builder, message.OttMessageEnd(builder))

	return builder.FinishedBytes()
}

// DecodeEnvelope parses an OttMessage FlatBuffer. Accessors on a truncated
// buffer panic, so those are turned into ErrInvalidEnvelope.
func DecodeEnvelope(data []byte) (env Envelope, err error) {
	if len(data) < flatbuffers.SizeUOffsetT+flatbuffers.SizeSOffsetT {
		return Envelope{}, fmt.Errorf("%w: %d bytes", ErrInvalidEnvelope, len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			env = Envelope{}
			err = fmt.Errorf("%w: %v", ErrInvalidEnvelope, r)
		}
	}()

	ottMsg := message.GetRootAsOttMessage(data, 0)
	topic := ottMsg.Ott()
	if len(topic) == 0 {
		return Envelope{}, fmt.Errorf("%w: missing topic", ErrInvalidEnvelope)
	}

	payload := ottMsg.PayloadBytes()
	env = Envelope{
		Topic:       string(topic),
		ContentType: ottMsg.ContentType(),
		Payload:     append([]byte(nil), payload...),
		TimestampNs: ottMsg.TimestampNs(),
		Version:     ottMsg.Version(),
	}
	return env, nil
}
