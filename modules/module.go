package modules

import (
	"context"

	"github.com/proceduralarchitect/ismruntime/models"
	"github.com/proceduralarchitect/ismruntime/wire"
)

// Module is the interface that describes a module that extends the server's
// capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module.
	Init(*models.Scene, *models.Participant)

	// Handles a given message. Modules are free to decide whether they handle
	// a message.
	//
	// Returning an error of type wire.ErrTypeMsgSkip indicates that handling
	// a message was skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, wire.ResponseSender, wire.Msg) error

	// Handles a client disconnection.
	HandleDisconnect()
}
