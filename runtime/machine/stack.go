package machine

import (
	"sync"

	"github.com/holiman/uint256"
)

// StackLimit is the maximum depth of the EVM stack.
const StackLimit = 1024

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// Stack is the EVM operand stack: up to StackLimit 256-bit words.
type Stack struct {
	data []uint256.Int
}

// NewStack returns a stack drawn from a shared pool, the same discipline the
// teacher's interpreter uses to avoid an allocation per call frame.
func NewStack() *Stack {
	return stackPool.Get().(*Stack)
}

// Return releases the stack back to the pool. Callers must not use st afterwards.
func (st *Stack) Return() {
	st.data = st.data[:0]
	stackPool.Put(st)
}

// Len returns the number of words currently on the stack.
func (st *Stack) Len() int { return len(st.data) }

// Push appends v to the top of the stack. It does not enforce StackLimit;
// callers must check Len() against StackLimit first.
func (st *Stack) Push(v *uint256.Int) {
	st.data = append(st.data, *v)
}

// Pop removes and returns the top word. Panics on an empty stack; callers
// must check Len() first.
func (st *Stack) Pop() uint256.Int {
	v := st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return v
}

// Peek returns a pointer to the top word without removing it.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns a pointer to the n-th word from the top (0-indexed).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-1-n]
}

// Swap exchanges the top word with the word n slots below it (SWAPn uses n=1..16).
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup pushes a copy of the word n slots from the top (1-indexed, as in DUPn).
func (st *Stack) Dup(n int) {
	v := st.data[len(st.data)-n]
	st.data = append(st.data, v)
}

// Data returns the live backing slice, bottom to top, for trace snapshots.
// Callers must treat it as read-only.
func (st *Stack) Data() []uint256.Int {
	return st.data
}
