package wire

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const scenarioReceiveTimeout = time.Second * 5

// A Scenario runs an ordered sequence of send and receive steps against a
// connection. It is meant for tests that exercise a server end to end.
type Scenario struct {
	conn  *websocket.Conn
	steps []func(ctx context.Context) error
}

func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{conn: conn}
}

// Send appends a step that encodes and sends the given message payload.
func (s *Scenario) Send(makeMsg func() any) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		msg, err := MsgFromPayload(makeMsg())
		if err != nil {
			return errors.New("encoding scenario message failed").Wrap(err)
		}

		if _, err := Send(s.conn, msg); err != nil {
			return errors.New("sending scenario message failed").
				WithTag("msg_type", msg.Type).
				Wrap(err)
		}
		return nil
	})
	return s
}

// Receive appends a step that reads messages until one passes all the given
// func(Msg) bool filters, then calls the given func(Msg) error handlers with
// it. Non matching messages are discarded.
func (s *Scenario) Receive(v ...any) *Scenario {
	var filters []func(Msg) bool
	var handlers []func(Msg) error

	for _, item := range v {
		switch item := item.(type) {
		case func(Msg) bool:
			filters = append(filters, item)

		case func(Msg) error:
			handlers = append(handlers, item)
		}
	}

	s.steps = append(s.steps, func(ctx context.Context) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			s.conn.SetReadDeadline(time.Now().Add(scenarioReceiveTimeout))

			msg, _, err := Receive(s.conn)
			if err != nil {
				return errors.New("receiving scenario message failed").Wrap(err)
			}

			matches := true
			for _, filter := range filters {
				if !filter(msg) {
					matches = false
					break
				}
			}
			if !matches {
				continue
			}

			for _, handle := range handlers {
				if err := handle(msg); err != nil {
					return err
				}
			}
			return nil
		}
	})
	return s
}

// Run executes the scenario steps in order, stopping at the first error.
func (s *Scenario) Run(ctx context.Context) error {
	for _, step := range s.steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FilterByType returns a filter that matches messages of the given type.
func FilterByType(msgType MsgType) func(Msg) bool {
	return func(msg Msg) bool {
		return msg.Type == msgType
	}
}

// FilterByRequestID returns a filter that matches messages carrying the given
// request id.
func FilterByRequestID(requestID uint32) func(Msg) bool {
	return func(msg Msg) bool {
		var head struct {
			RequestID uint32 `json:"request_id"`
		}
		if err := json.Unmarshal(msg.Data, &head); err != nil {
			return false
		}
		return head.RequestID == requestID
	}
}
