package models

import (
	"github.com/proceduralarchitect/ismruntime/wire"
)

// A scene participant.
type Participant struct {
	ID        uint32
	Responder wire.ResponseSender
}
