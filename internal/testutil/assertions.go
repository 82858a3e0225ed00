package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// AssertLogged waits until the captured log output contains substr.
func AssertLogged(t *testing.T, h *Harness, substr string) {
	t.Helper()
	require.Eventually(t,
		func() bool { return strings.Contains(h.Logs.String(), substr) },
		2*time.Second, 10*time.Millisecond,
		"expected log output %q was not found in logs", substr,
	)
}

// Polling bounds for require.Eventually in tests that wait on chains.
const (
	Wait = 2 * time.Second
	Tick = 10 * time.Millisecond
)
