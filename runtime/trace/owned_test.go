package trace

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/rlp"
)

func TestOwnedEncodeDecodeRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x01")
	o := Owned{
		Kind:        KindStep,
		CodeAddress: addr,
		Input:       []byte{0x01, 0x02, 0x03},
		IsStatic:    true,
		Value:       *uint256.NewInt(42),
		Opcode:      0x60,
		Position:    PositionInfo{Kind: PositionOK, PC: 7},
		Stack:       []uint256.Int{*uint256.NewInt(1), *uint256.NewInt(2)},
		Memory:      []byte{0xaa, 0xbb, 0xcc},
		Result:      StepResultInfo{OK: true},
	}

	enc, err := rlp.EncodeToBytes(o)
	require.NoError(t, err)

	var got Owned
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, o.Kind, got.Kind)
	require.Equal(t, o.CodeAddress, got.CodeAddress)
	require.Equal(t, o.Input, got.Input)
	require.Equal(t, o.IsStatic, got.IsStatic)
	require.Equal(t, o.Value, got.Value)
	require.Equal(t, o.Opcode, got.Opcode)
	require.Equal(t, o.Position, got.Position)
	require.Equal(t, o.Stack, got.Stack)
	require.Equal(t, o.Memory, got.Memory)
	require.Equal(t, o.Result, got.Result)
}

func TestOwnedEncodeDecodeRoundTripWithTargetGasAndTransfer(t *testing.T) {
	gas := uint64(21000)
	o := Owned{
		Kind:      KindCall,
		TargetGas: &gas,
		Transfer: &TransferInfo{
			Source: common.HexToAddress("0x01"),
			Target: common.HexToAddress("0x02"),
			Value:  *uint256.NewInt(100),
		},
	}

	enc, err := rlp.EncodeToBytes(o)
	require.NoError(t, err)

	var got Owned
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, *o.TargetGas, *got.TargetGas)
	require.Equal(t, *o.Transfer, *got.Transfer)
}

func TestOwnedEncodeDecodeRoundTripExitReason(t *testing.T) {
	o := Owned{
		Kind:        KindExit,
		Reason:      ExitInfo{Kind: ExitRevert, Message: "execution reverted"},
		ReturnValue: []byte{0xde, 0xad, 0xbe, 0xef},
	}

	enc, err := rlp.EncodeToBytes(o)
	require.NoError(t, err)

	var got Owned
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, o.Kind, got.Kind)
	require.Equal(t, o.Reason, got.Reason)
	require.Equal(t, o.ReturnValue, got.ReturnValue)
}

func TestEventToOwnedEncodeDecodeRoundTrip(t *testing.T) {
	e := Event{
		Kind:        KindSuicide,
		Target:      common.HexToAddress("0x03"),
		Source:      common.HexToAddress("0x04"),
		Balance:     *uint256.NewInt(500),
		Reason:      ExitInfo{Kind: ExitSucceed, SucceedKind: 2},
		ReturnValue: []byte{0x01},
	}
	o := e.ToOwned()

	enc, err := rlp.EncodeToBytes(o)
	require.NoError(t, err)

	var got Owned
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, o.Kind, got.Kind)
	require.Equal(t, o.Target, got.Target)
	require.Equal(t, o.Source, got.Source)
	require.Equal(t, o.Balance, got.Balance)
	require.Equal(t, o.Reason, got.Reason)
	require.Equal(t, o.ReturnValue, got.ReturnValue)
}
