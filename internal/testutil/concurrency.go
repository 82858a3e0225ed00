package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
)

// Sleeper is a package whose "Sleep" node blocks for a fixed duration and
// records when each execution started and ended.
type Sleeper struct {
	ExecutionTimes []ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- ExecutionRecord
}

// NewSleeper creates a sleeper reporting each finished execution on
// completionChan, which may be nil.
func NewSleeper(completionChan chan<- ExecutionRecord, sleep time.Duration) *Sleeper {
	return &Sleeper{sleepDuration: sleep, completionChan: completionChan}
}

// Package returns the "Sleeper" package with its "Sleep" exec schema.
func (s *Sleeper) Package() *plugin.Package {
	pkg := plugin.NewPackage("Sleeper")
	mustAdd(pkg, node.NewExecSchema("Sleep", nil,
		func(ctx context.Context, _ *node.IOProxy, _ node.ExecuteContext) error {
			rec := ExecutionRecord{Start: time.Now()}
			select {
			case <-time.After(s.sleepDuration):
			case <-ctx.Done():
				return ctx.Err()
			}
			rec.End = time.Now()

			s.mu.Lock()
			s.ExecutionTimes = append(s.ExecutionTimes, rec)
			s.mu.Unlock()

			if s.completionChan != nil {
				s.completionChan <- rec
			}
			return nil
		},
	))
	return pkg
}
