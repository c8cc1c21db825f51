package grid

import (
	"time"

	"github.com/proceduralarchitect/ismruntime/wire"
)

const (
	MsgTypeGridInstanceAddRequest      wire.MsgType = "grid_instance_add_request"
	MsgTypeGridInstanceAddResponse     wire.MsgType = "grid_instance_add_response"
	MsgTypeGridInstanceAddBroadcast    wire.MsgType = "grid_instance_add_broadcast"
	MsgTypeGridInstanceRemoveRequest   wire.MsgType = "grid_instance_remove_request"
	MsgTypeGridInstanceRemoveResponse  wire.MsgType = "grid_instance_remove_response"
	MsgTypeGridInstanceRemoveBroadcast wire.MsgType = "grid_instance_remove_broadcast"
	MsgTypeGridInstanceMoveRequest     wire.MsgType = "grid_instance_move_request"
	MsgTypeGridInstanceMoveResponse    wire.MsgType = "grid_instance_move_response"
	MsgTypeGridInstanceMoveBroadcast   wire.MsgType = "grid_instance_move_broadcast"
	MsgTypeGridInstanceStateRequest    wire.MsgType = "grid_instance_state_request"
	MsgTypeGridInstanceStateResponse   wire.MsgType = "grid_instance_state_response"
	MsgTypeGridInstanceStateBroadcast  wire.MsgType = "grid_instance_state_broadcast"

	MsgTypeGridQueryRadiusRequest  wire.MsgType = "grid_query_radius_request"
	MsgTypeGridQueryRadiusResponse wire.MsgType = "grid_query_radius_response"
	MsgTypeGridQueryBoxRequest     wire.MsgType = "grid_query_box_request"
	MsgTypeGridQueryBoxResponse    wire.MsgType = "grid_query_box_response"
	MsgTypeGridNearestRequest      wire.MsgType = "grid_nearest_request"
	MsgTypeGridNearestResponse     wire.MsgType = "grid_nearest_response"

	MsgTypeGridRebuildRequest    wire.MsgType = "grid_rebuild_request"
	MsgTypeGridRebuildResponse   wire.MsgType = "grid_rebuild_response"
	MsgTypeGridStatsRequest      wire.MsgType = "grid_stats_request"
	MsgTypeGridStatsResponse     wire.MsgType = "grid_stats_response"
	MsgTypeGridDebugInfoRequest  wire.MsgType = "grid_debug_info_request"
	MsgTypeGridDebugInfoResponse wire.MsgType = "grid_debug_info_response"

	MsgTypeGridBatchMoveRequest  wire.MsgType = "grid_batch_move_request"
	MsgTypeGridBatchMoveResponse wire.MsgType = "grid_batch_move_response"
)

type InstanceAddRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Location  Vector3      `json:"location"`
}

type InstanceAddResponse struct {
	Type       wire.MsgType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  uint32       `json:"request_id"`
	InstanceID int32        `json:"instance_id"`
}

type InstanceAddBroadcast struct {
	Type          wire.MsgType `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	ParticipantID uint32       `json:"participant_id"`
	InstanceID    int32        `json:"instance_id"`
	Location      Vector3      `json:"location"`
}

type InstanceRemoveRequest struct {
	Type       wire.MsgType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  uint32       `json:"request_id"`
	InstanceID int32        `json:"instance_id"`
}

type InstanceRemoveBroadcast struct {
	Type          wire.MsgType `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	ParticipantID uint32       `json:"participant_id"`
	InstanceID    int32        `json:"instance_id"`
}

type InstanceMoveRequest struct {
	Type       wire.MsgType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  uint32       `json:"request_id"`
	InstanceID int32        `json:"instance_id"`
	Location   Vector3      `json:"location"`
}

type InstanceMoveBroadcast struct {
	Type          wire.MsgType `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	ParticipantID uint32       `json:"participant_id"`
	InstanceID    int32        `json:"instance_id"`
	Location      Vector3      `json:"location"`
}

type InstanceStateRequest struct {
	Type       wire.MsgType  `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  uint32        `json:"request_id"`
	InstanceID int32         `json:"instance_id"`
	Flags      InstanceFlags `json:"flags"`
}

type InstanceStateBroadcast struct {
	Type          wire.MsgType  `json:"type"`
	Timestamp     time.Time     `json:"timestamp"`
	ParticipantID uint32        `json:"participant_id"`
	InstanceID    int32         `json:"instance_id"`
	Flags         InstanceFlags `json:"flags"`
}

type QueryRadiusRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Center    Vector3      `json:"center"`
	Radius    float64      `json:"radius"`

	// With Exact set, results are post-filtered by true distance. The raw
	// result is a cell-level over-approximation.
	Exact bool `json:"exact"`
}

type QueryResponse struct {
	Type        wire.MsgType `json:"type"`
	Timestamp   time.Time    `json:"timestamp"`
	RequestID   uint32       `json:"request_id"`
	InstanceIDs []int32      `json:"instance_ids"`
}

type QueryBoxRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Box       Box          `json:"box"`
}

type NearestRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Location  Vector3      `json:"location"`

	// Negative means unbounded.
	MaxDistance float64 `json:"max_distance"`
}

type NearestResponse struct {
	Type       wire.MsgType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  uint32       `json:"request_id"`
	Found      bool         `json:"found"`
	InstanceID int32        `json:"instance_id"`
}

type StatsResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Stats     Stats        `json:"stats"`
}

type DebugInfoResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	DebugInfo DebugInfo    `json:"debug_info"`
}

type BatchMoveRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Bounds    Box          `json:"bounds"`
	Offset    Vector3      `json:"offset"`
	Workers   int          `json:"workers,omitempty"`
}

type BatchMoveResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Chunks    int          `json:"chunks"`
	Applied   int          `json:"applied"`
	Stale     int          `json:"stale"`
}
