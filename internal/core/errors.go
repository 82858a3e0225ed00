package core

import (
	"errors"
	"fmt"

	"github.com/vk/patchbay/internal/node"
)

var (
	ErrGraphNotFound   = errors.New("graph not found")
	ErrNodeNotFound    = errors.New("node not found")
	ErrPackageNotFound = errors.New("package not found")
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrPortNotFound    = errors.New("port not found")
	// ErrTypeMismatch is node.ErrTypeMismatch, re-exported for callers of
	// the request API.
	ErrTypeMismatch = node.ErrTypeMismatch
	// ErrLastGraph is returned when deleting the only remaining graph.
	ErrLastGraph = errors.New("cannot delete the last graph")
	// ErrDuplicatePackage is returned when two packages share a name.
	ErrDuplicatePackage = errors.New("duplicate package")
	// ErrUnknownRequest is returned for request types the core does not
	// handle.
	ErrUnknownRequest = errors.New("unknown request")
	// ErrStopped is returned by a Controller once the control loop exited.
	ErrStopped = errors.New("core stopped")
	// ErrStepLimit ends a chain that exceeded the configured step count.
	ErrStepLimit = errors.New("exec chain step limit reached")
)

// InvalidNodesError reports which side of a connection named a node that
// does not exist.
type InvalidNodesError struct {
	Input  bool `json:"input"`
	Output bool `json:"output"`
}

func (e *InvalidNodesError) Error() string {
	return fmt.Sprintf("invalid nodes (input missing: %t, output missing: %t)", e.Input, e.Output)
}

// InvalidIOError reports which side of a connection named a port that does
// not exist on its node.
type InvalidIOError struct {
	Input  bool `json:"input"`
	Output bool `json:"output"`
}

func (e *InvalidIOError) Error() string {
	return fmt.Sprintf("invalid io (input missing: %t, output missing: %t)", e.Input, e.Output)
}
