package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/proceduralarchitect/ismruntime/wire"
)

// Scene represents a scene that holds instanced mesh populations and the
// participants who edit and query them.
type Scene struct {
	ID        uint32
	SceneUUID string

	AppKey string

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant

	moduleStates map[string]any
	moduleMutex  sync.RWMutex
}

func NewScene(id uint32) *Scene {
	return &Scene{
		ID:           id,
		SceneUUID:    uuid.New().String(),
		participants: make(map[uint32]*Participant),
		moduleStates: make(map[string]any),
	}
}

func (s *Scene) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

func (s *Scene) AddParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	s.participants[p.ID] = p
}

func (s *Scene) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	delete(s.participants, p.ID)
}

func (s *Scene) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}
	return participants
}

func (s *Scene) GetParticipantsByIDs(ids ...uint32) []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := s.participants[id]
		if ok {
			participants = append(participants, p)
		}
	}
	return participants
}

func (s *Scene) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

func (s *Scene) Broadcast(sender *Participant, payload any) {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	msg, err := wire.MsgFromPayload(payload)
	if err != nil {
		logs.WithTag("message", payload).Debug(err)
		return
	}

	for _, p := range s.participants {
		if p == sender {
			continue
		}
		p.Responder.SendMsg(msg)
	}
}

func (s *Scene) BroadcastTo(sender *Participant, payload any, participantIds ...uint32) {
	participants := s.GetParticipantsByIDs(participantIds...)
	isParticipantHandled := make(map[uint32]struct{}, len(participantIds))

	msg, err := wire.MsgFromPayload(payload)
	if err != nil {
		logs.WithTag("message", payload).Debug(err)
		return
	}

	for _, p := range participants {
		if p == sender {
			continue
		}

		if _, ok := isParticipantHandled[p.ID]; ok {
			continue
		}
		isParticipantHandled[p.ID] = struct{}{}

		p.Responder.SendMsg(msg)
	}
}

func (s *Scene) SetModuleState(moduleName string, state any) {
	s.moduleMutex.Lock()
	defer s.moduleMutex.Unlock()

	s.moduleStates[moduleName] = state
}

func (s *Scene) ModuleState(moduleName string) (any, bool) {
	s.moduleMutex.RLock()
	defer s.moduleMutex.RUnlock()

	state, ok := s.moduleStates[moduleName]
	return state, ok
}

type SceneStore struct {
	// The id advertised to clients as part of global scene ids. Defaults to
	// "ism" when empty.
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	scenes   map[string]*Scene
	ids      SequentialIDGenerator
}

func (s *SceneStore) init() {
	s.scenes = map[string]*Scene{}

	if s.ServerID == "" {
		s.ServerID = "ism"
	}
}

func (s *SceneStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SceneStore) Add(ctx context.Context, scene *Scene) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes[s.GlobalSceneID(scene.ID)] = scene

	instrumentIncreaseSceneGauge(scene.AppKey)
	instrumentCountScene(scene.AppKey)
	return nil
}

func (s *SceneStore) Remove(ctx context.Context, scene *Scene) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.scenes, s.GlobalSceneID(scene.ID))

	s.ids.Reuse(scene.ID)

	instrumentDecreaseSceneGauge(scene.AppKey)
}

func (s *SceneStore) GetByGlobalID(v string) (*Scene, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scene, ok := s.scenes[v]
	return scene, ok
}

func (s *SceneStore) GlobalSceneID(sceneID uint32) string {
	s.initOnce.Do(s.init)

	return fmt.Sprintf("%sx%x", s.ServerID, sceneID)
}
