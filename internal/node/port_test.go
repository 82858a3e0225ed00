package node

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/patchbay/internal/value"
)

func TestConnectData_ThenDisconnect(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := New(1, 0, sourceSchema(), Position{})
	dst := New(2, 0, sinkSchema(), Position{})
	out := mustDataOutput(src, "Int")
	in := mustDataInput(dst, "Int")

	// --- Act ---
	require.NoError(t, ConnectData(out, in))
	in.SetValue(value.IntValue(42))

	// --- Assert ---
	assert.Same(t, out, in.Source())
	assert.Equal(t, []*DataInput{in}, out.Sinks())

	out.Disconnect()
	assert.Nil(t, in.Source())
	assert.Empty(t, out.Sinks())
	assert.False(t, in.Connected())
	assert.False(t, out.Connected())
	assert.True(t, in.Value().Equal(value.IntValue(7)), "disconnect must reset to default")
}

func TestDataInput_SetValueKeepsDefault(t *testing.T) {
	t.Parallel()

	dst := New(2, 0, sinkSchema(), Position{})
	in := mustDataInput(dst, "Int")

	in.SetValue(value.IntValue(3))

	assert.False(t, in.Connected())
	assert.True(t, in.Value().Equal(value.IntValue(3)))
	assert.True(t, in.Default().Equal(value.IntValue(7)))
	assert.Equal(t, value.Primitive(value.Int), in.Type())

	require.NoError(t, in.SetDefault(value.IntValue(8)))
	assert.True(t, in.Value().Equal(value.IntValue(8)), "an unconnected input takes a new default")
}

func TestConnectData_DisconnectFromInputSide(t *testing.T) {
	t.Parallel()

	src := New(1, 0, sourceSchema(), Position{})
	dst := New(2, 0, sinkSchema(), Position{})
	out := mustDataOutput(src, "Text")
	in := mustDataInput(dst, "Text")
	require.NoError(t, ConnectData(out, in))
	in.SetValue(value.StringValue("pulled"))

	in.Disconnect()

	assert.Empty(t, out.Sinks())
	assert.Nil(t, in.Source())
	assert.True(t, in.Value().Equal(value.StringValue("default")))
}

func TestConnectData_TypeMismatchKeepsExistingLink(t *testing.T) {
	t.Parallel()

	src := New(1, 0, sourceSchema(), Position{})
	dst := New(2, 0, sinkSchema(), Position{})
	in := mustDataInput(dst, "Int")
	require.NoError(t, ConnectData(mustDataOutput(src, "Int"), in))

	err := ConnectData(mustDataOutput(src, "Text"), in)

	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.Same(t, mustDataOutput(src, "Int"), in.Source())
}

func TestConnectData_InputIsSingleSourced(t *testing.T) {
	t.Parallel()

	a := New(1, 0, sourceSchema(), Position{})
	b := New(2, 0, sourceSchema(), Position{})
	dst := New(3, 0, sinkSchema(), Position{})
	in := mustDataInput(dst, "Flag")

	require.NoError(t, ConnectData(mustDataOutput(a, "Flag"), in))
	require.NoError(t, ConnectData(mustDataOutput(b, "Flag"), in))

	assert.Empty(t, mustDataOutput(a, "Flag").Sinks())
	assert.Same(t, mustDataOutput(b, "Flag"), in.Source())
}

func TestDataOutput_FanOutDisconnectResetsEveryConsumer(t *testing.T) {
	t.Parallel()

	src := New(1, 0, sourceSchema(), Position{})
	out := mustDataOutput(src, "Int")
	var inputs []*DataInput
	for id := 2; id < 6; id++ {
		in := mustDataInput(New(id, 0, sinkSchema(), Position{}), "Int")
		require.NoError(t, ConnectData(out, in))
		in.SetValue(value.IntValue(100))
		inputs = append(inputs, in)
	}
	require.Len(t, out.Sinks(), 4)

	out.Disconnect()

	for _, in := range inputs {
		assert.False(t, in.Connected())
		assert.True(t, in.Value().Equal(value.IntValue(7)))
	}
}

func TestConnectExec_ReplacesBothEnds(t *testing.T) {
	t.Parallel()

	a := New(1, 0, sourceSchema(), Position{})
	b := New(2, 0, sinkSchema(), Position{})
	c := New(3, 0, sinkSchema(), Position{})
	out, _ := a.ExecOutput(ExecutePort)
	inB, _ := b.ExecInput(ExecutePort)
	inC, _ := c.ExecInput(ExecutePort)

	ConnectExec(out, inB)
	assert.Same(t, inB, out.Target())
	assert.Same(t, b, a.Next(ExecutePort))

	ConnectExec(out, inC)
	assert.Nil(t, inB.Source(), "previous target must be unlinked")
	assert.Same(t, out, inC.Source())
	assert.Same(t, c, a.Next(ExecutePort))

	inC.Disconnect()
	assert.Nil(t, out.Target())
	assert.Nil(t, a.Next(ExecutePort))
}

func TestReleasedNode_LinksResolveAsDisconnected(t *testing.T) {
	t.Parallel()

	src := New(1, 0, sourceSchema(), Position{})
	dst := New(2, 0, sinkSchema(), Position{})
	in := mustDataInput(dst, "Int")
	out := mustDataOutput(src, "Int")
	require.NoError(t, ConnectData(out, in))

	// Simulate a producer dropped without bookkeeping.
	src.released.Store(true)

	assert.Nil(t, in.Source())
	assert.False(t, in.Connected())
}

func TestRelease_DisconnectsAllPorts(t *testing.T) {
	t.Parallel()

	src := New(1, 0, sourceSchema(), Position{})
	dst := New(2, 0, sinkSchema(), Position{})
	require.NoError(t, ConnectData(mustDataOutput(src, "Int"), mustDataInput(dst, "Int")))
	out, _ := src.ExecOutput(ExecutePort)
	in, _ := dst.ExecInput(ExecutePort)
	ConnectExec(out, in)

	dst.Release()

	assert.True(t, dst.Released())
	assert.Empty(t, mustDataOutput(src, "Int").Sinks())
	assert.Nil(t, out.Target())
}

// TestLinkSymmetry_Property applies random connect and disconnect operations
// to a small pool of ports and checks that every link is mutual afterwards.
func TestLinkSymmetry_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("links stay mutual", prop.ForAll(
		func(ops []int) bool {
			outs := make([]*DataOutput, 3)
			ins := make([]*DataInput, 4)
			for i := range outs {
				outs[i] = mustDataOutput(New(i, 0, sourceSchema(), Position{}), "Int")
			}
			for i := range ins {
				ins[i] = mustDataInput(New(10+i, 0, sinkSchema(), Position{}), "Int")
			}

			for _, op := range ops {
				o, i := outs[op%3], ins[(op/3)%4]
				switch (op / 12) % 3 {
				case 0:
					if err := ConnectData(o, i); err != nil {
						return false
					}
				case 1:
					i.Disconnect()
				case 2:
					o.Disconnect()
				}
			}

			for _, in := range ins {
				src := in.Source()
				if src == nil {
					if !in.Value().Equal(in.Default()) {
						return false
					}
					continue
				}
				found := false
				for _, s := range src.Sinks() {
					found = found || s == in
				}
				if !found {
					return false
				}
			}
			for _, out := range outs {
				for _, s := range out.Sinks() {
					if s.Source() != out {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 35)),
	))

	properties.TestingRun(t)
}
