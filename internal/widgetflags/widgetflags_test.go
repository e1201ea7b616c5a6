package widgetflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	t.Parallel()
	var f Flags
	assert.False(t, f.Any())

	f.Merge(Flags{Redraw: true})
	f.Merge(Flags{StoreModified: true})
	f.Merge(Flags{})

	assert.Equal(t, Flags{Redraw: true, StoreModified: true}, f)
	assert.True(t, f.Any())
}
