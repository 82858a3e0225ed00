package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/patchbay/internal/node"
)

func TestPackage_AddSchema(t *testing.T) {
	t.Parallel()

	pkg := NewPackage("Utils")
	s := node.NewExecSchema("Print", nil, func(context.Context, *node.IOProxy, node.ExecuteContext) error { return nil })

	require.NoError(t, pkg.AddSchema(s))
	err := pkg.AddSchema(node.NewExecSchema("Print", nil, nil))

	assert.ErrorIs(t, err, ErrDuplicateSchema)
	assert.Equal(t, "Utils", s.Package())
	got, ok := pkg.Schema("Print")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Len(t, pkg.Schemas(), 1)
	assert.Nil(t, pkg.Engine())

	e := NewEngine(nil, nil)
	pkg.SetEngine(e)
	assert.Same(t, e, pkg.Engine())
}
