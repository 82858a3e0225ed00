package node

import "errors"

var (
	// ErrTypeMismatch is returned when two data ports of different types are
	// connected, or a value of the wrong type is stored on a port.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnknownPort is returned when a proxy writes to an output the node
	// does not have.
	ErrUnknownPort = errors.New("unknown port")
	// ErrNotExecutable is returned when a behaviour is invoked on a schema of
	// the wrong kind.
	ErrNotExecutable = errors.New("schema kind does not support this operation")
	// ErrPayloadType is returned when an event payload does not match the
	// payload type the event schema was registered with.
	ErrPayloadType = errors.New("unexpected event payload type")
	// ErrNoEngine is returned by ExecuteContext when the package has no engine.
	ErrNoEngine = errors.New("package has no engine")
	// ErrUnexpectedReply is returned by InvokeAs when the engine replies with
	// a value of another type.
	ErrUnexpectedReply = errors.New("unexpected engine reply type")
)
