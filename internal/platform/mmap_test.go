package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_WritableThenExecutable(t *testing.T) {
	mem, err := Map(4096)
	require.NoError(t, err)
	require.Len(t, mem, 4096)

	// A ret-only x86-64 function body, just to exercise a non-zero write
	// into the mapped pages before transitioning them to RX.
	mem[0] = 0xc3

	require.NoError(t, MapRX(mem))
	require.NoError(t, Unmap(mem))
}

func TestMap_PanicsOnZeroLength(t *testing.T) {
	require.Panics(t, func() { _, _ = Map(0) })
}

func TestMapRX_PanicsOnZeroLength(t *testing.T) {
	require.Panics(t, func() { _ = MapRX(nil) })
}

func TestUnmap_PanicsOnZeroLength(t *testing.T) {
	require.Panics(t, func() { _ = Unmap(nil) })
}
