package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken(32)
	require.NoError(t, err)
	require.Len(t, a, 64)

	b, err := NewOpaqueToken(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	// нулевой размер заменяется дефолтом
	c, err := NewOpaqueToken(0)
	require.NoError(t, err)
	require.Len(t, c, 64)
}
