package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSourceIsDeterministic(t *testing.T) {
	a, b := NewSource(42), NewSource(42)
	for range 16 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}

	c, d := NewSource(1), NewSource(2)
	assert.NotEqual(t, c.Uint64(), d.Uint64())
}

func TestNewSeed(t *testing.T) {
	first, err := NewSeed()
	require.NoError(t, err)
	second, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
