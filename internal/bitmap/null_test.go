package bitmap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullBitmap(t *testing.T) {
	b := NewNullBitmap()
	assert.False(t, b.Any())
	assert.Equal(t, 0, b.Count())

	b.Set(3)
	b.Set(1)
	b.Set(3)

	assert.True(t, b.Any())
	assert.Equal(t, 2, b.Count())
	assert.True(t, b.IsNull(1))
	assert.False(t, b.IsNull(2))
	assert.Equal(t, []uint32{1, 3}, slices.Collect(b.Rows()))

	c := b.Clone()
	c.Set(7)
	assert.False(t, b.IsNull(7))
	assert.True(t, c.IsNull(7))

	c.Optimize()
	assert.Equal(t, 3, c.Count())
	assert.Positive(t, c.SizeInBytes())
}
