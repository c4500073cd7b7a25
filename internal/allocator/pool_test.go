package allocator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolFIFO(t *testing.T) {
	var pool Pool

	_, ok := pool.PopFront()
	assert.False(t, ok)

	pool.Push("x")
	pool.Push("y")
	assert.Equal(t, 2, pool.Len())
	assert.True(t, pool.Contains("x"))

	id, ok := pool.PopFront()
	assert.True(t, ok)
	assert.Equal(t, "x", id)
	assert.False(t, pool.Contains("x"))
	assert.Equal(t, []string{"y"}, pool.Items())
}

func TestPoolCompaction(t *testing.T) {
	var pool Pool
	for i := 0; i < 500; i++ {
		pool.Push(fmt.Sprintf("%03d", i))
	}

	for i := 0; i < 400; i++ {
		id, ok := pool.PopFront()
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%03d", i), id)
	}

	pool.Push("new")
	assert.Equal(t, 101, pool.Len())

	items := pool.Items()
	assert.Equal(t, "400", items[0])
	assert.Equal(t, "new", items[len(items)-1])
}
