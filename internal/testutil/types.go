package testutil

import (
	"time"

	"github.com/vk/patchbay/internal/value"
)

// ExecutionRecord holds the start and end times of one node execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Call is one recorded execution of a test schema.
type Call struct {
	Schema string
	Inputs map[string]value.Value
}
