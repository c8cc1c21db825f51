package wire

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	// ErrTypeMsgSkip is the error type returned by a module that decided not
	// to handle a message.
	ErrTypeMsgSkip = "msg-skip"

	// ErrTypeSceneNotJoined is the error type returned when a message
	// requires a joined scene.
	ErrTypeSceneNotJoined = "scene-not-joined"
)

// MsgType identifies the kind of a message exchanged with a client.
type MsgType string

// A Msg is a message received from or sent to a client. Data holds the full
// JSON-encoded frame, including the type.
type Msg struct {
	Type MsgType
	Data []byte

	// The time the message was received. Zero for outgoing messages.
	Time time.Time
}

// DataTo unmarshals the message frame into the given value.
func (m Msg) DataTo(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message failed").
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

func (m Msg) TypeString() string {
	return string(m.Type)
}

type msgHead struct {
	Type MsgType `json:"type"`
}

// MsgFromPayload encodes the given message payload into a Msg. The payload
// must carry its type in a "type" field.
func MsgFromPayload(v any) (Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Msg{}, errors.New("encoding message failed").Wrap(err)
	}

	var head msgHead
	if err := json.Unmarshal(data, &head); err != nil {
		return Msg{}, errors.New("reading message type failed").Wrap(err)
	}
	if head.Type == "" {
		return Msg{}, errors.New("message has no type")
	}

	return Msg{Type: head.Type, Data: data}, nil
}

// A Sender is a function that sends a message and returns the number of bytes
// written.
type Sender func(Msg) (int, error)

// A Receiver is a function that receives a message and returns the number of
// bytes read.
type Receiver func() (Msg, int, error)

// Send writes the given message on the connection as a single text frame.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	if err := websocket.Message.Send(conn, string(msg.Data)); err != nil {
		return 0, err
	}
	return len(msg.Data), nil
}

// Receive reads the next message from the connection.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var data string
	if err := websocket.Message.Receive(conn, &data); err != nil {
		return Msg{}, 0, err
	}

	var head msgHead
	if err := json.Unmarshal([]byte(data), &head); err != nil {
		return Msg{}, len(data), errors.New("decoding message frame failed").Wrap(err)
	}

	return Msg{Type: head.Type, Data: []byte(data), Time: time.Now()}, len(data), nil
}

// ResponseSender is the interface used by handlers and modules to send
// messages back to clients.
type ResponseSender interface {
	// Encodes and sends the given message payload. Encoding failures are
	// logged and dropped.
	Send(v any)

	// Sends an already encoded message.
	SendMsg(Msg)
}
