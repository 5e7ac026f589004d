package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 0, tr.Len())

	tr.Track(0, Ref{Layer: 0, Button: 3})
	tr.Track(1, Ref{Layer: 1, Button: 0})
	assert.Equal(t, 2, tr.Len())

	ref, ok := tr.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, Ref{Layer: 0, Button: 3}, ref)
	assert.Equal(t, 2, tr.Len(), "lookup must not release")

	ref, ok = tr.Release(0)
	require.True(t, ok)
	assert.Equal(t, Ref{Layer: 0, Button: 3}, ref)
	assert.Equal(t, 1, tr.Len())

	_, ok = tr.Release(0)
	assert.False(t, ok, "double release reports unknown")
}

func TestTrackerUnknownSlot(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Lookup(5)
	assert.False(t, ok)
	_, ok = tr.Release(5)
	assert.False(t, ok)
}

func TestTrackerClear(t *testing.T) {
	tr := NewTracker()
	tr.Track(0, Ref{})
	tr.Track(1, Ref{Button: 1})
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	_, ok := tr.Lookup(0)
	assert.False(t, ok)
}
