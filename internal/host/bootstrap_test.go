package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

func toolModule(name string, tools ...string) Module {
	return Module{
		Name: name,
		Register: func(reg *Registry) error {
			b := NewRegistrations(reg)
			for _, tool := range tools {
				b.Add(reg.Register(protocol.ClassTool, tool, protocol.Schema{}, noop))
			}
			return b.Err()
		},
	}
}

func TestBootstrap_SealsOnSuccess(t *testing.T) {
	reg := NewRegistry()
	err := Bootstrap(reg, toolModule("a", "one", "two"), toolModule("b", "three"), Module{Name: "empty"})
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
	assert.Equal(t, 3, reg.Len(protocol.ClassTool))
}

func TestBootstrap_CollectsAllConflicts(t *testing.T) {
	reg := NewRegistry()
	err := Bootstrap(reg,
		toolModule("a", "one", "two"),
		toolModule("b", "one"),
		toolModule("c", "two"),
	)
	require.Error(t, err)
	assert.False(t, reg.Sealed())

	var dup *protocol.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "one", dup.Name)
	assert.Contains(t, err.Error(), "module b")
	assert.Contains(t, err.Error(), "module c")
	assert.Contains(t, err.Error(), "tool 'two' is already registered")
}

func TestRegistrations_NoErrors(t *testing.T) {
	reg := NewRegistry()
	b := NewRegistrations(reg)
	b.Add(nil)
	assert.NoError(t, b.Err())
	assert.Same(t, reg, b.Registry())
}
