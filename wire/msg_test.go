package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMsgFromPayload(t *testing.T) {
	t.Run("type is extracted from the payload", func(t *testing.T) {
		msg, err := MsgFromPayload(Request{
			Type:      MsgTypePingRequest,
			Timestamp: time.Now().UTC(),
			RequestID: 42,
		})
		require.NoError(t, err)
		require.Equal(t, MsgTypePingRequest, msg.Type)
		require.NotEmpty(t, msg.Data)
		require.Zero(t, msg.Time)
	})

	t.Run("payload without a type is rejected", func(t *testing.T) {
		_, err := MsgFromPayload(struct {
			Foo string `json:"foo"`
		}{Foo: "bar"})
		require.Error(t, err)
	})
}

func TestMsgDataTo(t *testing.T) {
	msg, err := MsgFromPayload(Request{
		Type:      MsgTypePingRequest,
		RequestID: 21,
	})
	require.NoError(t, err)

	var req Request
	require.NoError(t, msg.DataTo(&req))
	require.Equal(t, MsgTypePingRequest, req.Type)
	require.Equal(t, uint32(21), req.RequestID)
}
