package plugin

import "errors"

var (
	// ErrEngineNotRunning is returned when a request targets an engine that
	// was never started or has stopped.
	ErrEngineNotRunning = errors.New("engine not running")
	// ErrEngineReplyLost is returned when an engine dropped an invoke
	// request or stopped before answering it.
	ErrEngineReplyLost = errors.New("engine reply lost")
	// ErrEngineTimeout is returned when an invoke is not answered in time.
	ErrEngineTimeout = errors.New("engine timeout")
	// ErrEngineAlreadyStarted is returned by a second Start.
	ErrEngineAlreadyStarted = errors.New("engine already started")
	// ErrInitialState is returned when an engine's initial state is not of
	// the requested type.
	ErrInitialState = errors.New("unexpected engine initial state")
	// ErrDuplicateSchema is returned when a package registers two schemas
	// with the same name.
	ErrDuplicateSchema = errors.New("duplicate schema")
)
