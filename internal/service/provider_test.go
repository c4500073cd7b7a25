package service

import (
	"context"
	"testing"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocatorFromConfig(t *testing.T) {
	conf, err := config.ParseServerConf([]byte("allocator:\n  alphabet: XY\n  width: 2\n  validate_release: false\n"))
	require.NoError(t, err)

	backend := allocator.NewMemoryBackend()
	alloc, err := NewAllocator(&conf.Allocator, backend, nil)
	require.NoError(t, err)

	ctx := context.Background()
	id, err := alloc.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "XX", id)

	require.NoError(t, alloc.Release(ctx, "not-validated"))
	assert.Equal(t, []string{"not-validated"}, backend.Released())
}

func TestNewAllocatorRejectsBadConfig(t *testing.T) {
	_, err := NewAllocator(&config.Allocator{Alphabet: "Z", Width: 3}, allocator.NewMemoryBackend(), nil)
	assert.Error(t, err)
}
