package blizzard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassemblyBufferAccumulatesChunks(t *testing.T) {
	buf := newReassemblyBuffer(1024)
	require.NoError(t, buf.append(1, []byte{1, 2}))
	require.NoError(t, buf.append(1, []byte{3, 4}))

	data, ok := buf.complete(1)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestReassemblyBufferUnknownStreamOnComplete(t *testing.T) {
	buf := newReassemblyBuffer(1024)
	_, ok := buf.complete(99)
	assert.False(t, ok)
}

func TestReassemblyBufferEnforcesMaxBytes(t *testing.T) {
	buf := newReassemblyBuffer(4)
	require.NoError(t, buf.append(1, []byte{1, 2, 3}))
	err := buf.append(1, []byte{4, 5})
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	// the oversized stream is dropped, not left half-populated
	_, ok := buf.complete(1)
	assert.False(t, ok)
}

func TestReassemblyBufferCompleteRemovesStream(t *testing.T) {
	buf := newReassemblyBuffer(1024)
	require.NoError(t, buf.append(1, []byte{9}))
	_, ok := buf.complete(1)
	require.True(t, ok)

	_, ok = buf.complete(1)
	assert.False(t, ok)
}
