package compiler

import (
	"testing"

	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTable_OverwriteKeepsPositionAndLatestTask(t *testing.T) {
	t.Parallel()
	// Arrange
	p := newPendingTable()
	a, b := objectid.New(), objectid.New()

	// Act
	assert.False(t, p.put(a, task("a1")))
	assert.False(t, p.put(b, task("b1")))
	assert.True(t, p.put(a, task("a2")))

	// Assert
	require.Equal(t, 2, p.len())
	id, got, ok := p.pop()
	require.True(t, ok)
	assert.Equal(t, a, id)
	assert.Equal(t, "a2", got.Source())

	id, got, ok = p.pop()
	require.True(t, ok)
	assert.Equal(t, b, id)
	assert.Equal(t, "b1", got.Source())

	_, _, ok = p.pop()
	assert.False(t, ok)
}
