package runtimetest

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/multigas"
	"github.com/ethgo-labs/evmruntime/runtime"
	"github.com/ethgo-labs/evmruntime/runtime/trace"
)

var addr1 = common.HexToAddress("0x01")
var addr2 = common.HexToAddress("0x02")

func TestHandlerBalanceDefaultsZero(t *testing.T) {
	h := NewHandler()
	bal := h.Balance(addr1)
	require.True(t, bal.IsZero())
}

func TestHandlerSetStorageEmitsEvent(t *testing.T) {
	h := NewHandler()
	var seen bool
	h.Sink = trace.SinkFunc(func(e trace.Event) {
		if e.Kind == trace.KindSetStorage {
			seen = true
		}
	})
	require.NoError(t, h.SetStorage(addr1, common.HexToHash("0x01"), common.HexToHash("0x02")))
	require.True(t, seen)
	require.Equal(t, common.HexToHash("0x02"), h.Storage(addr1, common.HexToHash("0x01")))
}

func TestHandlerCreateDefaultDeploysInitCodeVerbatim(t *testing.T) {
	h := NewHandler()
	initCode := []byte{0x60, 0x00}
	cap := h.Create(addr1, runtime.LegacyCreate(addr1), uint256.Int{}, initCode, nil)
	require.True(t, cap.IsExit())
	require.True(t, cap.Reason().IsSucceed())
	addr := cap.CreatedAddress()
	require.NotNil(t, addr)
	require.Equal(t, initCode, h.Code(*addr))
}

func TestHandlerMarkDeleteMovesBalance(t *testing.T) {
	h := NewHandler()
	h.SetBalance(addr1, *uint256.NewInt(100))

	var events []trace.Event
	h.Sink = trace.SinkFunc(func(e trace.Event) { events = append(events, e) })

	require.NoError(t, h.MarkDelete(addr1, addr2))
	require.True(t, h.Deleted(addr1))
	bal2 := h.Balance(addr2)
	bal1 := h.Balance(addr1)
	require.Equal(t, uint64(100), bal2.Uint64())
	require.Equal(t, uint64(0), bal1.Uint64())

	// Withdraw records the pre-move balance, then SelfDestruct marks the
	// account.
	require.Len(t, events, 2)
	require.Equal(t, trace.KindWithdraw, events[0].Kind)
	require.Equal(t, addr1, events[0].Source)
	require.Equal(t, uint64(100), events[0].Value.Uint64())
	require.Equal(t, trace.KindSelfDestruct, events[1].Kind)
	require.Equal(t, addr1, events[1].Address)
}

func TestHandlerPreValidateDeductsStepCostAndTracksLedger(t *testing.T) {
	h := NewHandler()
	h.StepCost = 10
	h.GasLeftValue = 15

	ctx := runtime.Context{Address: addr1}
	require.Nil(t, h.PreValidate(ctx, 0x01, nil))
	require.Equal(t, uint64(5), h.GasLeftValue)
	require.Equal(t, uint64(10), h.Ledger.Get(multigas.ResourceKindComputation))

	reason := h.PreValidate(ctx, 0x01, nil)
	require.NotNil(t, reason)
	require.True(t, reason.IsError())
}

func TestHandlerStaticRejectsStateChangingCalls(t *testing.T) {
	h := NewHandler()
	h.Static = true

	err := h.SetStorage(addr1, common.HexToHash("0x01"), common.HexToHash("0x02"))
	require.ErrorIs(t, err, runtime.ErrStaticStateChange)

	err = h.Log(addr1, nil, nil)
	require.ErrorIs(t, err, runtime.ErrStaticStateChange)

	err = h.MarkDelete(addr1, addr2)
	require.ErrorIs(t, err, runtime.ErrStaticStateChange)
}

func TestHandlerCreateCollisionRejectsExistingCode(t *testing.T) {
	h := NewHandler()
	initCode := []byte{0x60, 0x00}

	first := h.Create(addr1, runtime.LegacyCreate(addr1), uint256.Int{}, initCode, nil)
	require.True(t, first.IsExit())
	require.True(t, first.Reason().IsSucceed())
	addr := first.CreatedAddress()
	require.NotNil(t, addr)

	collide := h.Create(addr2, runtime.FixedCreate(*addr), uint256.Int{}, initCode, nil)
	require.True(t, collide.IsExit())
	require.True(t, collide.Reason().IsError())
	require.ErrorIs(t, collide.Reason().Err(), runtime.ErrCreateCollision)
}

func TestHandlerCallAppliesTransferByDefault(t *testing.T) {
	h := NewHandler()
	h.SetBalance(addr1, *uint256.NewInt(50))
	transfer := &runtime.Transfer{Source: addr1, Target: addr2, Value: *uint256.NewInt(20)}

	cap := h.Call(addr2, nil, runtime.Context{}, transfer, false, nil)
	require.True(t, cap.IsExit())
	balAfter1 := h.Balance(addr1)
	balAfter2 := h.Balance(addr2)
	require.Equal(t, uint64(30), balAfter1.Uint64())
	require.Equal(t, uint64(20), balAfter2.Uint64())
}
