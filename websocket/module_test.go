package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/proceduralarchitect/ismruntime/models"
	"github.com/proceduralarchitect/ismruntime/modules"
	"github.com/proceduralarchitect/ismruntime/wire"
	"github.com/stretchr/testify/require"
)

const msgTypeTestSkipped wire.MsgType = "test_skipped"

type testModule struct {
	currentScene       *models.Scene
	currentParticipant *models.Participant
	handledMsgs        []wire.MsgType
	skippedMsgs        []wire.MsgType
	onDisconnect       func()
}

func (m *testModule) Name() string {
	return "test-module"
}

func (m *testModule) Init(s *models.Scene, p *models.Participant) {
	m.currentScene = s
	m.currentParticipant = p
}

func (m *testModule) HandleMsg(ctx context.Context, sender wire.ResponseSender, msg wire.Msg) error {
	switch msg.Type {
	case msgTypeTestSkipped:
		m.skippedMsgs = append(m.skippedMsgs, msg.Type)
		return errors.New("message skipped").WithType(wire.ErrTypeMsgSkip)

	default:
		m.handledMsgs = append(m.handledMsgs, msg.Type)
		return nil
	}
}

func (m *testModule) HandleDisconnect() {
	if m.onDisconnect != nil {
		m.onDisconnect()
	}
}

func TestModule(t *testing.T) {
	var wg sync.WaitGroup
	var modA *testModule

	clientA, _, close := NewTestingEnv(t, newTestHandler(func() modules.Module {
		if modA == nil {
			wg.Add(1)
			modA = &testModule{
				onDisconnect: func() {
					wg.Done()
				},
			}
		}
		return modA
	}))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	err := wire.NewScenario(clientA).
		Send(func() any {
			return wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(
			wire.FilterByRequestID(1),
			wire.FilterByType(wire.MsgTypeSceneJoinResponse),
		).
		Receive(
			wire.FilterByType(wire.MsgTypeSceneState),
		).
		Send(func() any {
			return wire.Request{
				Type:      msgTypeTestSkipped,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
			}
		}).
		Send(func() any {
			return wire.Request{
				Type:      wire.MsgTypePingRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
			}
		}).
		Receive(
			wire.FilterByRequestID(3),
			wire.FilterByType(wire.MsgTypePingResponse),
		).
		Run(ctx)
	require.NoError(t, err)

	clientA.Close()

	wg.Wait()
	require.NotNil(t, modA.currentScene)
	require.NotNil(t, modA.currentParticipant)
	require.NotEmpty(t, modA.handledMsgs)
	require.Len(t, modA.skippedMsgs, 1)
	require.Equal(t, msgTypeTestSkipped, modA.skippedMsgs[0])
}
