package wire

import "time"

const (
	MsgTypePingRequest  MsgType = "ping_request"
	MsgTypePingResponse MsgType = "ping_response"
	MsgTypeSyncClock    MsgType = "sync_clock"

	MsgTypeSceneJoinRequest  MsgType = "scene_join_request"
	MsgTypeSceneJoinResponse MsgType = "scene_join_response"
	MsgTypeSceneState        MsgType = "scene_state"

	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"

	MsgTypeCustomMessage          MsgType = "custom_message"
	MsgTypeCustomMessageBroadcast MsgType = "custom_message_broadcast"

	MsgTypeErrorResponse MsgType = "error_response"
)

// ErrorCode qualifies an ErrorResponse.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeSceneAlreadyJoined  ErrorCode = "scene_already_joined"
	ErrorCodeTooLarge            ErrorCode = "too_large"
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
)

// Request is the common shape of request messages that expect a response.
type Request struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
}

// Response is the common shape of responses that carry no payload.
type Response struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
}

type ErrorResponse struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	Code      ErrorCode `json:"code"`
}

type SyncClock struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type SceneJoinRequest struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	SceneID   string    `json:"scene_id"`
}

type SceneJoinResponse struct {
	Type          MsgType   `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     uint32    `json:"request_id"`
	SceneID       string    `json:"scene_id"`
	SceneUUID     string    `json:"scene_uuid"`
	ParticipantID uint32    `json:"participant_id"`
}

type SceneState struct {
	Type         MsgType   `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	Participants []uint32  `json:"participants"`
}

type ParticipantJoinBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
}

type ParticipantLeaveBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
}

type CustomMessage struct {
	Type           MsgType   `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	ParticipantIDs []uint32  `json:"participant_ids,omitempty"`
	Body           []byte    `json:"body"`
}

type CustomMessageBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
	Body            []byte    `json:"body"`
}
