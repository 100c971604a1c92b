package runtime

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/runtime/machine"
)

// ResolveCall is handed back to the outer driver alongside a Trap capture
// from CALL/CALLCODE/DELEGATECALL/STATICCALL dispatch. It grants the
// exclusive right to deliver the child frame's outcome into the parent
// Runtime exactly once; the parent must not be stepped again until this
// happens.
type ResolveCall struct {
	rt       *Runtime
	trap     CallTrap
	resolved bool
}

func newResolveCall(rt *Runtime, trap CallTrap) *ResolveCall {
	return &ResolveCall{rt: rt, trap: trap}
}

// Trap returns the call parameters the outer driver needs to construct and
// run a child Runtime: which code to load, the input, the child's Context,
// any accompanying Transfer, whether the child runs under a static-call
// restriction, and an optional gas budget.
func (h *ResolveCall) Trap() CallTrap { return h.trap }

// Resolve delivers the child frame's outcome, pushing the parent's result
// word and splicing return_data into the parent's memory window per
// save_return_value. It panics if called more than once.
func (h *ResolveCall) Resolve(reason ExitReason, returnData []byte) {
	if h.resolved {
		panic("runtime: ResolveCall.Resolve called more than once")
	}
	h.resolved = true
	// The suspended CALL* step already emitted its StepResult (as a Trap)
	// when it yielded this handle; resuming it does not re-enter step() or
	// emit a fresh Step/StepResult pair, it only ever pushes the parent's
	// result word and, for a Fatal reason, terminates the parent frame.
	if ctrl := saveReturnValue(h.rt, h.trap, reason, returnData); ctrl.IsExit() {
		h.rt.machine.Exit(machine.Halt{Kind: machine.HaltExternal})
		h.rt.terminate(ctrl.ExitReason())
	}
}

// ResolveCreate is the CREATE/CREATE2 counterpart of ResolveCall.
type ResolveCreate struct {
	rt       *Runtime
	trap     CreateTrap
	resolved bool
}

func newResolveCreate(rt *Runtime, trap CreateTrap) *ResolveCreate {
	return &ResolveCreate{rt: rt, trap: trap}
}

// Trap returns the creation parameters the outer driver needs to construct
// and run a child Runtime over the init code.
func (h *ResolveCreate) Trap() CreateTrap { return h.trap }

// Resolve delivers the child frame's outcome, pushing the new contract's
// address (or zero) per save_created_address. address is nil unless reason
// is a success. It panics if called more than once.
func (h *ResolveCreate) Resolve(reason ExitReason, address *common.Address) {
	if h.resolved {
		panic("runtime: ResolveCreate.Resolve called more than once")
	}
	h.resolved = true
	if ctrl := saveCreatedAddress(h.rt, h.trap, reason, address); ctrl.IsExit() {
		h.rt.machine.Exit(machine.Halt{Kind: machine.HaltExternal})
		h.rt.terminate(ctrl.ExitReason())
	}
}
