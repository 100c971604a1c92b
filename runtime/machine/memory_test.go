package machine

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemoryResizeGrowsAndZeroFills(t *testing.T) {
	m := NewMemory(^uint64(0))
	require.Equal(t, 0, m.Len())

	require.True(t, m.Resize(32))
	require.Equal(t, 32, m.Len())
	require.Equal(t, make([]byte, 32), m.Data())
}

func TestMemoryResizeIsNoopWhenAlreadyBigEnough(t *testing.T) {
	m := NewMemory(^uint64(0))
	require.True(t, m.Resize(64))
	m.Set(0, 4, []byte{1, 2, 3, 4})
	require.True(t, m.Resize(32))
	require.Equal(t, 64, m.Len())
	require.Equal(t, []byte{1, 2, 3, 4}, m.GetCopy(0, 4))
}

func TestMemoryResizeRejectsOverLimit(t *testing.T) {
	m := NewMemory(16)
	require.False(t, m.Resize(17))
	require.Equal(t, 0, m.Len())
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory(^uint64(0))
	require.True(t, m.Resize(32))
	v := uint256.NewInt(0x42)
	m.Set32(0, v)
	got := m.GetCopy(0, 32)
	require.Equal(t, byte(0x42), got[31])
	for i := 0; i < 31; i++ {
		require.Equal(t, byte(0), got[i])
	}
}

func TestMemoryGetCopyOutOfRangeReadsZero(t *testing.T) {
	m := NewMemory(^uint64(0))
	require.True(t, m.Resize(4))
	m.Set(0, 4, []byte{1, 2, 3, 4})

	got := m.GetCopy(2, 8)
	require.Equal(t, []byte{3, 4, 0, 0, 0, 0, 0, 0}, got)
}

func TestMemoryGetCopyEntirelyOutOfRange(t *testing.T) {
	m := NewMemory(^uint64(0))
	require.True(t, m.Resize(4))
	got := m.GetCopy(10, 4)
	require.Equal(t, make([]byte, 4), got)
}
