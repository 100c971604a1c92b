package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidsMarksJumpdests(t *testing.T) {
	code := []byte{byte(JUMPDEST), byte(PUSH1), 0x5b, byte(JUMPDEST)}
	v := NewValids(code)

	require.True(t, v.IsValid(0))
	// pc=2 is the PUSH1 immediate byte, which happens to equal 0x5b
	// (JUMPDEST's opcode) but must not be a valid jump target.
	require.False(t, v.IsValid(2))
	require.True(t, v.IsValid(3))
}

func TestValidsOutOfRangeIsInvalid(t *testing.T) {
	v := NewValids([]byte{byte(JUMPDEST)})
	require.False(t, v.IsValid(100))
}

func TestValidsEmptyCode(t *testing.T) {
	v := NewValids(nil)
	require.False(t, v.IsValid(0))
}
