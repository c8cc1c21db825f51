package featureflag

type Flag string

const (
	FlagDisableSceneState                Flag = "DISABLE_SCENE_STATE"
	FlagDisableParticipantJoinBroadcast  Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
	FlagDisableCustomMessageBroadcast    Flag = "DISABLE_CUSTOM_MESSAGE_BROADCAST"
	FlagDisableInstanceAddBroadcast      Flag = "DISABLE_INSTANCE_ADD_BROADCAST"
	FlagDisableInstanceRemoveBroadcast   Flag = "DISABLE_INSTANCE_REMOVE_BROADCAST"
	FlagDisableInstanceMoveBroadcast     Flag = "DISABLE_INSTANCE_MOVE_BROADCAST"
	FlagDisableInstanceStateBroadcast    Flag = "DISABLE_INSTANCE_STATE_BROADCAST"
)
