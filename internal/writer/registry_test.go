package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndirectObjectsRegistry_Allocate(t *testing.T) {
	r := NewIndirectObjectsRegistry()
	assert.Equal(t, 1, r.NextObjectID())
	assert.Equal(t, 1, r.AllocateNewObjectID())
	assert.Equal(t, 2, r.AllocateNewObjectID())
	assert.Equal(t, 3, r.NextObjectID())
}

func TestIndirectObjectsRegistry_Seed(t *testing.T) {
	r := NewIndirectObjectsRegistry()
	require.NoError(t, r.SeedNextObjectID(40))
	assert.Equal(t, 40, r.AllocateNewObjectID())

	assert.Error(t, r.SeedNextObjectID(10), "never moves backwards")
	assert.Equal(t, 41, r.NextObjectID())
}

func TestIndirectObjectsRegistry_MarkObjectWritten(t *testing.T) {
	r := NewIndirectObjectsRegistry()
	a := r.AllocateNewObjectID()
	b := r.AllocateNewObjectID()

	require.NoError(t, r.MarkObjectWritten(b, 200))
	require.NoError(t, r.MarkObjectWritten(a, 100))
	assert.True(t, r.IsWritten(a))

	assert.ErrorIs(t, r.MarkObjectWritten(a, 300), ErrObjectAlreadyWritten)
	assert.ErrorIs(t, r.MarkObjectWritten(0, 0), ErrObjectNotAllocated)
	assert.ErrorIs(t, r.MarkObjectWritten(3, 0), ErrObjectNotAllocated)

	assert.Equal(t, []XRefRecord{{ObjectID: 1, Offset: 100}, {ObjectID: 2, Offset: 200}}, r.WrittenObjects())

	r.StartRevision()
	assert.Empty(t, r.WrittenObjects())
	assert.False(t, r.IsWritten(a))
	assert.Equal(t, 3, r.NextObjectID())
}
