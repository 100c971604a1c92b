package machine

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	st := NewStack()
	defer st.Return()

	require.Equal(t, 0, st.Len())
	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	require.Equal(t, 2, st.Len())

	v := st.Pop()
	require.Equal(t, uint64(2), v.Uint64())
	require.Equal(t, 1, st.Len())
}

func TestStackPeekDoesNotRemove(t *testing.T) {
	st := NewStack()
	defer st.Return()

	st.Push(uint256.NewInt(42))
	require.Equal(t, uint64(42), st.Peek().Uint64())
	require.Equal(t, 1, st.Len())
}

func TestStackBack(t *testing.T) {
	st := NewStack()
	defer st.Return()

	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	st.Push(uint256.NewInt(3))

	require.Equal(t, uint64(3), st.Back(0).Uint64())
	require.Equal(t, uint64(2), st.Back(1).Uint64())
	require.Equal(t, uint64(1), st.Back(2).Uint64())
}

func TestStackSwap(t *testing.T) {
	st := NewStack()
	defer st.Return()

	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	st.Swap(1)

	v1 := st.Pop()
	v2 := st.Pop()
	require.Equal(t, uint64(1), v1.Uint64())
	require.Equal(t, uint64(2), v2.Uint64())
}

func TestStackDup(t *testing.T) {
	st := NewStack()
	defer st.Return()

	st.Push(uint256.NewInt(7))
	st.Dup(1)

	require.Equal(t, 2, st.Len())
	p1 := st.Pop()
	p2 := st.Pop()
	require.Equal(t, uint64(7), p1.Uint64())
	require.Equal(t, uint64(7), p2.Uint64())
}

func TestStackDataIsBottomToTop(t *testing.T) {
	st := NewStack()
	defer st.Return()

	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	data := st.Data()
	require.Len(t, data, 2)
	require.Equal(t, uint64(1), data[0].Uint64())
	require.Equal(t, uint64(2), data[1].Uint64())
}
