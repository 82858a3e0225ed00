package keyboard_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/testutil"
	"github.com/vk/patchbay/internal/value"
	"github.com/vk/patchbay/modules/keyboard"
	"github.com/vk/patchbay/modules/utils"
)

// Pressing A runs the Print node wired to the A event exactly once.
func TestKeyA_RunsPrintOnce(t *testing.T) {
	t.Parallel()

	// Arrange
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	kb, err := (&keyboard.Module{In: r}).NewPackage(keyboard.Settings{})
	require.NoError(t, err)
	out := &testutil.SafeBuffer{}
	ut, err := (&utils.Module{Out: out}).NewPackage(utils.Settings{})
	require.NoError(t, err)
	h := testutil.StartCore(t, core.Options{}, kb, ut)

	keyA := h.CreateNode(t, keyboard.PackageName, "A")
	print := h.CreateNode(t, utils.PackageName, "Print")
	h.Connect(t, keyA, "Pressed", print, node.ExecutePort)
	h.Do(t, core.SetDefaultValue{Node: print, Input: "Value", Value: value.StringValue("A pressed")})

	// Act
	_, err = w.Write([]byte("a"))
	require.NoError(t, err)

	// Assert
	require.Eventually(t, func() bool { return out.String() != "" }, testutil.Wait, testutil.Tick)
	_, err = w.Write([]byte("b"))
	require.NoError(t, err)
	testutil.AssertLogged(t, h, "event=B")
	assert.Equal(t, "A pressed\n", out.String())

	shift := testutil.Output(t, h.Node(t, keyA), "Shift Pressed")
	assert.Equal(t, value.BoolValue(false), *shift.Value)
}

func TestEngineStopsOnEOF(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	kb, err := (&keyboard.Module{In: r}).NewPackage(keyboard.Settings{})
	require.NoError(t, err)
	h := testutil.StartCore(t, core.Options{}, kb)

	require.NoError(t, w.Close())
	<-kb.Engine().Done()
	assert.NoError(t, kb.Engine().Err())
	testutil.AssertLogged(t, h, "Keyboard input closed")
}

func TestPackageHasEveryLetter(t *testing.T) {
	t.Parallel()

	kb, err := (&keyboard.Module{}).NewPackage(keyboard.Settings{})
	require.NoError(t, err)
	assert.Len(t, kb.Schemas(), 26)
	_, ok := kb.Schema("Z")
	assert.True(t, ok)
}
