package runtime_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/runtime"
	"github.com/ethgo-labs/evmruntime/runtime/machine"
	"github.com/ethgo-labs/evmruntime/runtime/runtimetest"
	"github.com/ethgo-labs/evmruntime/runtime/trace"
)

var testAddr = common.HexToAddress("0x00000000000000000000000000000000000001")
var testCaller = common.HexToAddress("0x00000000000000000000000000000000000002")

func testContext() runtime.Context {
	return runtime.Context{Address: testAddr, Caller: testCaller}
}

func newRuntime(code []byte, input []byte) *runtime.Runtime {
	valids := machine.NewValids(code)
	return runtime.NewRuntime(code, valids, input, testContext(), nil)
}

func runToCompletion(t *testing.T, r *runtime.Runtime, h runtime.Handler, maxSteps uint64) runtime.StepCapture {
	t.Helper()
	_, cap := r.Run(maxSteps, h)
	return cap
}

// Scenario 1: plain SSTORE then SLOAD, with pre-image SStore trace preceding
// the SLoad trace (spec.md §8 scenario 1).
func TestSStoreThenSLoad(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x42, // value
		byte(machine.PUSH1), 0x07, // key
		byte(machine.SSTORE),
		byte(machine.PUSH1), 0x07, // key
		byte(machine.SLOAD),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()

	var kinds []trace.Kind
	r.SetSink(trace.SinkFunc(func(e trace.Event) { kinds = append(kinds, e.Kind) }))

	cap := runToCompletion(t, r, h, 100)
	require.True(t, cap.IsExit())
	reason := cap.Exit()
	require.True(t, reason.IsSucceed())

	sstoreIdx, sloadIdx := -1, -1
	for i, k := range kinds {
		if k == trace.KindSStore && sstoreIdx == -1 {
			sstoreIdx = i
		}
		if k == trace.KindSLoad && sloadIdx == -1 {
			sloadIdx = i
		}
	}
	require.NotEqual(t, -1, sstoreIdx)
	require.NotEqual(t, -1, sloadIdx)
	require.Less(t, sstoreIdx, sloadIdx)

	require.Equal(t, common.HexToHash("0x42"), h.Storage(testAddr, common.HexToHash("0x07")))
}

// Scenario: CALL with out_len=0 leaves memory untouched but still updates
// the return-data buffer and pushes success (spec.md §8 scenario 2).
func TestCallWithZeroOutLen(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x00, // out_len = 0
		byte(machine.PUSH1), 0x00, // out_offset
		byte(machine.PUSH1), 0x00, // in_len
		byte(machine.PUSH1), 0x00, // in_offset
		byte(machine.PUSH1), 0x00, // value
		byte(machine.PUSH1), 0xaa, // target (low byte, placeholder)
		byte(machine.PUSH1), 0x00, // gas
		byte(machine.CALL),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		return runtime.CallExit(runtime.Succeed(runtime.Returned), []byte{0xAA, 0xBB, 0xCC})
	}
	obs := observeOp(r, machine.CALL)

	cap := runToCompletion(t, r, h, 100)
	require.True(t, cap.IsExit())
	require.True(t, cap.Exit().IsSucceed())
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, r.ReturnData())

	// Push is 1, and with out_len=0 the memory window is never grown or
	// written.
	require.NotNil(t, obs.top)
	require.Equal(t, uint64(1), obs.top.Uint64())
	require.Empty(t, obs.mem)
}

// opObserver snapshots the parent's stack top and memory from the StepResult
// immediately following the watched opcode's step.
type opObserver struct {
	top *uint256.Int
	mem []byte
}

func observeOp(r *runtime.Runtime, op machine.OpCode) *opObserver {
	obs := &opObserver{}
	watching := false
	r.SetSink(trace.SinkFunc(func(e trace.Event) {
		switch e.Kind {
		case trace.KindStep:
			watching = e.Opcode == byte(op)
		case trace.KindStepResult:
			if watching {
				if n := len(e.Stack); n > 0 {
					v := e.Stack[n-1]
					obs.top = &v
				}
				obs.mem = append([]byte(nil), e.Memory...)
				watching = false
			}
		}
	}))
	return obs
}

// Scenario: CALL returning REVERT with data copies only what's requested
// and pushes zero (spec.md §8 scenario 3).
func TestCallRevertWithData(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x04, // out_len = 4
		byte(machine.PUSH1), 0x00, // out_offset
		byte(machine.PUSH1), 0x00, // in_len
		byte(machine.PUSH1), 0x00, // in_offset
		byte(machine.PUSH1), 0x00, // value
		byte(machine.PUSH1), 0xaa, // target
		byte(machine.PUSH1), 0x00, // gas
		byte(machine.CALL),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		return runtime.CallExit(runtime.Revert(), []byte{0xDE, 0xAD})
	}
	obs := observeOp(r, machine.CALL)

	cap := runToCompletion(t, r, h, 100)
	require.True(t, cap.IsExit())
	require.True(t, cap.Exit().IsSucceed())
	require.Equal(t, []byte{0xDE, 0xAD}, r.ReturnData())

	// Push is 0; the revert data lands in the first two bytes of the
	// freshly resized four-byte window, the rest stays zero.
	require.NotNil(t, obs.top)
	require.True(t, obs.top.IsZero())
	require.Equal(t, []byte{0xDE, 0xAD, 0x00, 0x00}, obs.mem)
}

// Scenario: CREATE2 success pushes the new contract's address, left-padded
// to 32 bytes (spec.md §8 scenario 4).
func TestCreate2Success(t *testing.T) {
	wantAddr := common.HexToAddress("0x0000000000000000000000000000000000abc1")
	code := []byte{
		byte(machine.PUSH1), 0x01, // salt
		byte(machine.PUSH1), 0x00, // code_len = 0
		byte(machine.PUSH1), 0x00, // code_off
		byte(machine.PUSH1), 0x00, // value
		byte(machine.CREATE2),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCreate = func(caller common.Address, scheme runtime.CreateScheme, value uint256.Int, initCode []byte, targetGas *uint64) runtime.Capture {
		require.Equal(t, runtime.CreateWithSalt, scheme.Kind)
		return runtime.CreateExit(runtime.Succeed(runtime.Returned), &wantAddr)
	}
	obs := observeOp(r, machine.CREATE2)

	cap := runToCompletion(t, r, h, 100)
	require.True(t, cap.IsExit())
	require.True(t, cap.Exit().IsSucceed())

	require.NotNil(t, obs.top)
	require.Equal(t, wantAddr.Hash(), common.BigToHash(obs.top))
}

// Scenario: a suspended CALL resolved with Fatal pushes zero and the parent
// also exits with the same Fatal reason (spec.md §8 scenario 5).
func TestCallTrapResolvedFatalPropagates(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x00, // out_len
		byte(machine.PUSH1), 0x00, // out_off
		byte(machine.PUSH1), 0x00, // in_len
		byte(machine.PUSH1), 0x00, // in_off
		byte(machine.PUSH1), 0x00, // value
		byte(machine.PUSH1), 0xaa, // target
		byte(machine.PUSH1), 0x00, // gas
		byte(machine.CALL),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		return runtime.CaptureTrap()
	}

	var cap runtime.StepCapture
	for i := 0; i < 100; i++ {
		cap = r.Step(h)
		if !cap.IsContinue() {
			break
		}
	}
	require.True(t, cap.IsCallTrap())

	fatalErr := runtime.Fatal(runtime.ErrCallDepthExceeded)
	cap.CallResolve().Resolve(fatalErr, nil)

	reason, ok := r.ExitReason()
	require.True(t, ok)
	require.True(t, reason.IsFatal())
}

// Scenario: run(max_steps) returns StepLimitReached without terminating the
// frame; a later run resumes and completes (spec.md §8 scenario 6).
func TestRunStepLimitIsResumable(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x01,
		byte(machine.PUSH1), 0x02,
		byte(machine.ADD),
		byte(machine.PUSH1), 0x03,
		byte(machine.ADD),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()

	steps, cap := r.Run(3, h)
	require.Equal(t, uint64(3), steps)
	require.True(t, cap.IsExit())
	require.True(t, cap.Exit().IsStepLimitReached())
	require.False(t, r.Terminated())

	steps2, cap2 := r.Run(100, h)
	require.Equal(t, uint64(3), steps2)
	require.True(t, cap2.IsExit())
	require.True(t, cap2.Exit().IsSucceed())
	require.True(t, r.Terminated())
}

// Trace sandwiching: every Step is followed by exactly one StepResult
// before the next Step.
func TestTraceSandwiching(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x01,
		byte(machine.PUSH1), 0x02,
		byte(machine.ADD),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()

	var kinds []trace.Kind
	r.SetSink(trace.SinkFunc(func(e trace.Event) { kinds = append(kinds, e.Kind) }))
	runToCompletion(t, r, h, 100)

	state := "none"
	for _, k := range kinds {
		switch k {
		case trace.KindStep:
			require.Equal(t, "none", state, "a Step must not follow another Step without an intervening StepResult")
			state = "step"
		case trace.KindStepResult:
			require.Equal(t, "step", state, "a StepResult must follow a Step")
			state = "none"
		}
	}
}

// Idempotence: repeated Step calls after termination replay the same exit.
func TestStepAfterTerminationReplaysExit(t *testing.T) {
	r := newRuntime([]byte{byte(machine.STOP)}, nil)
	h := runtimetest.NewHandler()

	first := r.Step(h)
	require.True(t, first.IsExit())
	second := r.Step(h)
	require.True(t, second.IsExit())
	require.Equal(t, first.Exit(), second.Exit())
}

// PreValidate failure terminates the frame before the opcode executes, and
// no StepResult follows (it's a Step-without-sandwich case).
func TestPreValidateFailureTerminatesBeforeExecuting(t *testing.T) {
	code := []byte{byte(machine.PUSH1), 0x01, byte(machine.STOP)}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.StepCost = 1
	h.GasLeftValue = 0

	cap := r.Step(h)
	require.True(t, cap.IsExit())
	require.True(t, cap.Exit().IsError())
}

// Return-data freshness: return_data_buffer is empty immediately after a
// CALL dispatch yields a suspension, before it is resolved.
func TestReturnDataEmptyDuringSuspension(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0xaa,
		byte(machine.PUSH1), 0x00,
		byte(machine.CALL),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		return runtime.CaptureTrap()
	}

	var cap runtime.StepCapture
	for i := 0; i < 100; i++ {
		cap = r.Step(h)
		if !cap.IsContinue() {
			break
		}
	}
	require.True(t, cap.IsCallTrap())
	require.Empty(t, r.ReturnData())

	cap.CallResolve().Resolve(runtime.Succeed(runtime.Returned), []byte{0x01, 0x02})
	require.Equal(t, []byte{0x01, 0x02}, r.ReturnData())
}

// Resolving a trap a second time panics: the handle grants exclusive,
// single-use access.
func TestResolveCallPanicsOnDoubleResolve(t *testing.T) {
	code := []byte{
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0x00,
		byte(machine.PUSH1), 0xaa,
		byte(machine.PUSH1), 0x00,
		byte(machine.CALL),
		byte(machine.STOP),
	}
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		return runtime.CaptureTrap()
	}

	var cap runtime.StepCapture
	for i := 0; i < 100; i++ {
		cap = r.Step(h)
		if !cap.IsContinue() {
			break
		}
	}
	require.True(t, cap.IsCallTrap())
	cap.CallResolve().Resolve(runtime.Succeed(runtime.Returned), nil)
	require.Panics(t, func() {
		cap.CallResolve().Resolve(runtime.Succeed(runtime.Returned), nil)
	})
}

func TestGasArgumentAboveUint64MaxBecomesUnlimited(t *testing.T) {
	// Stack must hold, bottom to top: out_len, out_off, in_len, in_off,
	// value, target, gas — CALL pops gas first, so gas (the PUSH32 of
	// all-0xff) is pushed last, immediately before CALL.
	code := []byte{
		byte(machine.PUSH1), 0x00, // out_len
		byte(machine.PUSH1), 0x00, // out_off
		byte(machine.PUSH1), 0x00, // in_len
		byte(machine.PUSH1), 0x00, // in_off
		byte(machine.PUSH1), 0x00, // value
		byte(machine.PUSH1), 0xaa, // target
		byte(machine.PUSH32),
	}
	for i := 0; i < 32; i++ {
		code = append(code, 0xff)
	}
	code = append(code,
		byte(machine.CALL),
		byte(machine.STOP),
	)
	r := newRuntime(code, nil)
	h := runtimetest.NewHandler()
	var sawTargetGas *uint64
	sawNil := false
	h.OnCall = func(codeAddress common.Address, input []byte, ctx runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture {
		sawTargetGas = targetGas
		sawNil = targetGas == nil
		return runtime.CallExit(runtime.Succeed(runtime.Returned), nil)
	}

	cap := runToCompletion(t, r, h, 100)
	require.True(t, cap.IsExit())
	require.True(t, sawNil)
	require.Nil(t, sawTargetGas)
}
