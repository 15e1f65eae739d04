package jitapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_AllocateAndView(t *testing.T) {
	p := NewPool[int]()
	require.Equal(t, 0, p.Allocated())

	const n = poolPageSize*2 + 5
	ptrs := make([]*int, n)
	for i := 0; i < n; i++ {
		ptrs[i] = p.Allocate()
		*ptrs[i] = i
	}
	require.Equal(t, n, p.Allocated())

	for i := 0; i < n; i++ {
		require.Equal(t, i, *p.View(i))
	}
}

func TestPool_Reset(t *testing.T) {
	p := NewPool[int]()
	v := p.Allocate()
	*v = 42
	p.Reset()
	require.Equal(t, 0, p.Allocated())

	// Allocating again must hand back a zeroed slot, not the stale 42.
	fresh := p.Allocate()
	require.Equal(t, 0, *fresh)
}
