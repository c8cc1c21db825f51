package grid

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/proceduralarchitect/ismruntime/batch"
	"github.com/proceduralarchitect/ismruntime/featureflag"
	"github.com/proceduralarchitect/ismruntime/models"
	"github.com/proceduralarchitect/ismruntime/wire"
)

// DefaultCellSize is the cell size used when a module is created without an
// explicit one.
const DefaultCellSize = 1000

type Module struct {
	// The cell size for new scene indexes. Defaults to DefaultCellSize when
	// non-positive.
	CellSize float64

	// The flags gating instance broadcasts.
	FeatureFlags featureflag.FeatureFlag

	currentScene       *models.Scene
	currentParticipant *models.Participant
	state              *State
}

func (m *Module) Name() string {
	return "grid"
}

func (m *Module) Init(s *models.Scene, p *models.Participant) {
	m.currentScene = s
	m.currentParticipant = p

	cellSize := m.CellSize
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	state, ok := s.ModuleState(m.Name())
	if !ok {
		newState, err := NewState(cellSize)
		if err != nil {
			logs.WithTag("cell_size", cellSize).Error(err)
			return
		}
		state = newState
		s.SetModuleState(m.Name(), state)
	}
	m.state = state.(*State)
}

func (m *Module) HandleMsg(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var err error

	switch msg.Type {
	case MsgTypeGridInstanceAddRequest:
		err = m.HandleInstanceAdd(ctx, respond, msg)

	case MsgTypeGridInstanceRemoveRequest:
		err = m.HandleInstanceRemove(ctx, respond, msg)

	case MsgTypeGridInstanceMoveRequest:
		err = m.HandleInstanceMove(ctx, respond, msg)

	case MsgTypeGridInstanceStateRequest:
		err = m.HandleInstanceState(ctx, respond, msg)

	case MsgTypeGridQueryRadiusRequest:
		err = m.HandleQueryRadius(ctx, respond, msg)

	case MsgTypeGridQueryBoxRequest:
		err = m.HandleQueryBox(ctx, respond, msg)

	case MsgTypeGridNearestRequest:
		err = m.HandleNearest(ctx, respond, msg)

	case MsgTypeGridRebuildRequest:
		err = m.HandleRebuild(ctx, respond, msg)

	case MsgTypeGridStatsRequest:
		err = m.HandleStats(ctx, respond, msg)

	case MsgTypeGridDebugInfoRequest:
		err = m.HandleDebugInfo(ctx, respond, msg)

	case MsgTypeGridBatchMoveRequest:
		err = m.HandleBatchMove(ctx, respond, msg)

	default:
		err = errors.New("message skipped").WithType(wire.ErrTypeMsgSkip)
	}

	return err
}

func (m *Module) HandleDisconnect() {
}

func (m *Module) sceneJoined(msg wire.Msg) error {
	if m.currentScene == nil || m.state == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return nil
}

func (m *Module) HandleInstanceAdd(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req InstanceAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	id := m.state.Add(req.Location)

	respond.Send(InstanceAddResponse{
		Type:       MsgTypeGridInstanceAddResponse,
		Timestamp:  time.Now().UTC(),
		RequestID:  req.RequestID,
		InstanceID: id,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableInstanceAddBroadcast, func() {
		m.currentScene.Broadcast(m.currentParticipant, InstanceAddBroadcast{
			Type:          MsgTypeGridInstanceAddBroadcast,
			Timestamp:     time.Now().UTC(),
			ParticipantID: m.currentParticipant.ID,
			InstanceID:    id,
			Location:      req.Location,
		})
	})
	return nil
}

func (m *Module) HandleInstanceRemove(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req InstanceRemoveRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	if !m.state.Remove(req.InstanceID) {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	respond.Send(wire.Response{
		Type:      MsgTypeGridInstanceRemoveResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableInstanceRemoveBroadcast, func() {
		m.currentScene.Broadcast(m.currentParticipant, InstanceRemoveBroadcast{
			Type:          MsgTypeGridInstanceRemoveBroadcast,
			Timestamp:     time.Now().UTC(),
			ParticipantID: m.currentParticipant.ID,
			InstanceID:    req.InstanceID,
		})
	})
	return nil
}

func (m *Module) HandleInstanceMove(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req InstanceMoveRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	if !m.state.Move(req.InstanceID, req.Location) {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	respond.Send(wire.Response{
		Type:      MsgTypeGridInstanceMoveResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableInstanceMoveBroadcast, func() {
		m.currentScene.Broadcast(m.currentParticipant, InstanceMoveBroadcast{
			Type:          MsgTypeGridInstanceMoveBroadcast,
			Timestamp:     time.Now().UTC(),
			ParticipantID: m.currentParticipant.ID,
			InstanceID:    req.InstanceID,
			Location:      req.Location,
		})
	})
	return nil
}

func (m *Module) HandleInstanceState(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req InstanceStateRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	if !m.state.SetFlags(req.InstanceID, req.Flags) {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	respond.Send(wire.Response{
		Type:      MsgTypeGridInstanceStateResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableInstanceStateBroadcast, func() {
		m.currentScene.Broadcast(m.currentParticipant, InstanceStateBroadcast{
			Type:          MsgTypeGridInstanceStateBroadcast,
			Timestamp:     time.Now().UTC(),
			ParticipantID: m.currentParticipant.ID,
			InstanceID:    req.InstanceID,
			Flags:         req.Flags,
		})
	})
	return nil
}

func (m *Module) HandleQueryRadius(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req QueryRadiusRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	ids := m.state.QueryRadius(req.Center, req.Radius, req.Exact)

	respond.Send(QueryResponse{
		Type:        MsgTypeGridQueryRadiusResponse,
		Timestamp:   time.Now().UTC(),
		RequestID:   req.RequestID,
		InstanceIDs: ids,
	})
	return nil
}

func (m *Module) HandleQueryBox(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req QueryBoxRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	ids := m.state.QueryBox(req.Box)

	respond.Send(QueryResponse{
		Type:        MsgTypeGridQueryBoxResponse,
		Timestamp:   time.Now().UTC(),
		RequestID:   req.RequestID,
		InstanceIDs: ids,
	})
	return nil
}

func (m *Module) HandleNearest(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req NearestRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	id, found := m.state.Nearest(req.Location, req.MaxDistance)

	respond.Send(NearestResponse{
		Type:       MsgTypeGridNearestResponse,
		Timestamp:  time.Now().UTC(),
		RequestID:  req.RequestID,
		Found:      found,
		InstanceID: id,
	})
	return nil
}

func (m *Module) HandleRebuild(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.Request
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	m.state.RebuildIndex()

	respond.Send(wire.Response{
		Type:      MsgTypeGridRebuildResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})
	return nil
}

func (m *Module) HandleStats(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.Request
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	respond.Send(StatsResponse{
		Type:      MsgTypeGridStatsResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
		Stats:     m.state.Stats(),
	})
	return nil
}

func (m *Module) HandleDebugInfo(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.Request
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	respond.Send(DebugInfoResponse{
		Type:      MsgTypeGridDebugInfoResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
		DebugInfo: m.state.DebugInfo(),
	})
	return nil
}

func (m *Module) HandleBatchMove(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req BatchMoveRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if err := m.sceneJoined(msg); err != nil {
		return err
	}

	snapshots := m.state.SnapshotCells(req.Bounds)

	offset := [3]float64{req.Offset.X, req.Offset.Y, req.Offset.Z}
	results, err := batch.Run(ctx, snapshots, batch.Translate(offset), req.Workers)
	if err != nil {
		respond.Send(wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeInternalServerError,
		})
		return err
	}

	applied, stale := m.state.ApplyResults(results)

	respond.Send(BatchMoveResponse{
		Type:      MsgTypeGridBatchMoveResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
		Chunks:    len(results),
		Applied:   applied,
		Stale:     stale,
	})
	return nil
}
