package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/proceduralarchitect/ismruntime/featureflag"
	ismhttp "github.com/proceduralarchitect/ismruntime/http"
	"github.com/proceduralarchitect/ismruntime/models"
	"github.com/proceduralarchitect/ismruntime/modules"
	"github.com/proceduralarchitect/ismruntime/wire"
	"golang.org/x/net/websocket"
)

const customMessageMaxSize = 10240

// RealtimeHandler represents a service that manages multiple client connections
// and relays their actions in realtime.
type RealtimeHandler struct {
	// The interval between each sync clock message sent to the connected
	// client.
	ClientSyncClockInterval time.Duration

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The store that contains all the server scenes.
	Scenes *models.SceneStore

	// The modules that expand the server features.
	Modules []modules.Module

	FeatureFlags featureflag.FeatureFlag

	conn               *websocket.Conn
	currentScene       *models.Scene
	currentParticipant *models.Participant

	clientID string
	appKey   string
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	req := conn.Request()
	h.clientID = ismhttp.GetClientIDFromRequest(req)
	h.appKey = ismhttp.GetAppKeyFromRequest(req)

	h.conn = conn
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.Request
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	respond.Send(wire.Response{
		Type:      wire.MsgTypePingResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})
	return nil
}

func (h *RealtimeHandler) HandleSceneJoin(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.SceneJoinRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if h.currentScene != nil && h.Scenes.GlobalSceneID(h.currentScene.ID) == req.SceneID {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeSceneAlreadyJoined,
		})
		return nil
	}

	if h.currentParticipant != nil {
		h.leaveScene()
	}

	scene, ok := h.Scenes.GetByGlobalID(req.SceneID)
	if !ok && req.SceneID != "" {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	if !ok {
		scene = models.NewScene(h.Scenes.NewID())
		scene.AppKey = h.appKey
		if err := h.Scenes.Add(ctx, scene); err != nil {
			respond.Send(wire.ErrorResponse{
				Type:      wire.MsgTypeErrorResponse,
				Timestamp: time.Now().UTC(),
				RequestID: req.RequestID,
				Code:      wire.ErrorCodeInternalServerError,
			})
			return nil
		}
	}

	participant := &models.Participant{
		ID:        scene.NewParticipantID(),
		Responder: respond,
	}

	scene.AddParticipant(participant)

	respond.Send(wire.SceneJoinResponse{
		Type:          wire.MsgTypeSceneJoinResponse,
		Timestamp:     time.Now().UTC(),
		RequestID:     req.RequestID,
		SceneID:       h.Scenes.GlobalSceneID(scene.ID),
		SceneUUID:     scene.SceneUUID,
		ParticipantID: participant.ID,
	})

	h.currentScene = scene
	h.currentParticipant = participant

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableSceneState, func() {
		participants := scene.GetParticipants()
		participantIDs := make([]uint32, len(participants))
		for i, p := range participants {
			participantIDs[i] = p.ID
		}

		respond.Send(wire.SceneState{
			Type:         wire.MsgTypeSceneState,
			Timestamp:    time.Now().UTC(),
			Participants: participantIDs,
		})
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantJoinBroadcast, func() {
		scene.Broadcast(participant, wire.ParticipantJoinBroadcast{
			Type:            wire.MsgTypeParticipantJoinBroadcast,
			Timestamp:       time.Now().UTC(),
			OriginTimestamp: req.Timestamp,
			ParticipantID:   participant.ID,
		})
	})

	for _, m := range h.Modules {
		m.Init(scene, participant)
	}

	return nil
}

func (h *RealtimeHandler) HandleDisconnect(_ error) {
	if h.currentParticipant != nil {
		h.leaveScene()
	}
}

func (h *RealtimeHandler) HandleCustomMessage(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var customMessage wire.CustomMessage
	if err := msg.DataTo(&customMessage); err != nil {
		return err
	}

	participant := h.currentParticipant
	scene := h.currentScene
	if participant == nil || scene == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	if len(customMessage.Body) > customMessageMaxSize {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			Code:      wire.ErrorCodeTooLarge,
		})
		return nil
	}

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableCustomMessageBroadcast, func() {
		customMessageBroadcast := wire.CustomMessageBroadcast{
			Type:            wire.MsgTypeCustomMessageBroadcast,
			Timestamp:       time.Now().UTC(),
			OriginTimestamp: customMessage.Timestamp,
			ParticipantID:   participant.ID,
			Body:            customMessage.Body,
		}

		if len(customMessage.ParticipantIDs) != 0 {
			scene.BroadcastTo(participant, customMessageBroadcast, customMessage.ParticipantIDs...)
			return
		}

		scene.Broadcast(participant, customMessageBroadcast)
	})
	return nil
}

func (h *RealtimeHandler) HandleWithModule(ctx context.Context, m modules.Module, respond wire.ResponseSender, msg wire.Msg) error {
	if h.CurrentParticipant() == nil || h.CurrentScene() == nil {
		return nil
	}

	err := m.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, wire.ErrTypeMsgSkip) {
		return nil
	}
	if err != nil {
		return errors.New("handling message with module failed").
			WithTag("module", m.Name()).
			Wrap(err)
	}
	return nil
}

func (h *RealtimeHandler) SendSyncClock(ctx context.Context, respond wire.ResponseSender) error {
	respond.Send(wire.SyncClock{
		Type:      wire.MsgTypeSyncClock,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (h *RealtimeHandler) Receiver() wire.Receiver {
	return func() (wire.Msg, int, error) {
		return wire.Receive(h.conn)
	}
}

func (h *RealtimeHandler) Sender() wire.Sender {
	return func(msg wire.Msg) (int, error) {
		return wire.Send(h.conn, msg)
	}
}

func (h *RealtimeHandler) Close() {
}

func (h *RealtimeHandler) SyncClockInterval() time.Duration {
	return h.ClientSyncClockInterval
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) GetScenes() *models.SceneStore {
	return h.Scenes
}

func (h *RealtimeHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *RealtimeHandler) CurrentScene() *models.Scene {
	return h.currentScene
}

func (h *RealtimeHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *RealtimeHandler) leaveScene() {
	scene := h.currentScene
	participant := h.currentParticipant

	if participant == nil || scene == nil {
		return
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	now := time.Now().UTC()

	scene.RemoveParticipant(participant)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantLeaveBroadcast, func() {
		scene.Broadcast(participant, wire.ParticipantLeaveBroadcast{
			Type:            wire.MsgTypeParticipantLeaveBroadcast,
			Timestamp:       now,
			OriginTimestamp: now,
			ParticipantID:   participant.ID,
		})
	})

	if scene.ParticipantCount() == 0 {
		h.Scenes.Remove(context.Background(), scene)
	}

	h.currentParticipant = nil
	h.currentScene = nil
}

func (h *RealtimeHandler) GetClientID() string {
	return h.clientID
}
