package value

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_RejectsForeignKinds(t *testing.T) {
	t.Parallel()

	l := NewList(Int)
	assert.ErrorIs(t, l.Append(StringValue("x")), ErrKindMismatch)
	require.NoError(t, l.Append(IntValue(1)))
	assert.ErrorIs(t, l.Set(0, BoolValue(true)), ErrKindMismatch)
	assert.Error(t, l.Set(5, IntValue(2)))

	got, ok := l.Get(0)
	require.True(t, ok)
	assert.True(t, got.Equal(IntValue(1)))

	_, ok = l.Get(1)
	assert.False(t, ok)
}

func TestList_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	l := NewList(Int)
	shared := ListValue(l)
	const numGoroutines = 100

	// --- Act ---
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(n int32) {
			defer wg.Done()
			mine, _ := shared.AsList()
			_ = mine.Append(IntValue(n))
		}(int32(i))
	}
	wg.Wait()

	// --- Assert ---
	assert.Equal(t, numGoroutines, l.Len())
	l.Clear()
	assert.Equal(t, 0, l.Len())
}
