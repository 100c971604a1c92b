package runtime

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/holiman/uint256"
)

// Capture is the outcome of a Handler.Call or Handler.Create invocation:
// either the child frame already finished (Exit) or the Handler wants the
// caller to recurse into a child Runtime and resume this one later (Trap).
// The same shape serves both call sites; system.go is the only caller and
// already holds everything needed to build the full CallTrap/CreateTrap
// record itself once it sees Trap, so no payload travels through Capture
// for that case.
type Capture struct {
	exited      bool
	trapped     bool
	reason      ExitReason
	returnData  []byte
	createdAddr *common.Address
}

// CallExit reports that a CALL* completed without needing to recurse.
func CallExit(reason ExitReason, returnData []byte) Capture {
	return Capture{exited: true, reason: reason, returnData: returnData}
}

// CreateExit reports that a CREATE* completed without needing to recurse.
// address is nil unless reason is a success.
func CreateExit(reason ExitReason, address *common.Address) Capture {
	return Capture{exited: true, reason: reason, createdAddr: address}
}

// CaptureTrap reports that the Handler needs the caller to recurse into a
// child Runtime before this CALL*/CREATE* can complete.
func CaptureTrap() Capture { return Capture{trapped: true} }

// IsExit reports whether the Capture is already resolved.
func (c Capture) IsExit() bool { return c.exited }

// IsTrap reports whether the Capture requires the caller to recurse.
func (c Capture) IsTrap() bool { return c.trapped }

// Reason returns the resolved ExitReason; valid only when IsExit.
func (c Capture) Reason() ExitReason { return c.reason }

// ReturnData returns the child's return bytes; valid only for a Call Exit.
func (c Capture) ReturnData() []byte { return c.returnData }

// CreatedAddress returns the new contract's address, or nil on a failed
// creation; valid only for a Create Exit.
func (c Capture) CreatedAddress() *common.Address { return c.createdAddr }

// CallTrap carries everything the outer driver needs to set up a child
// Runtime for CALL/CALLCODE/DELEGATECALL/STATICCALL, plus enough of the
// parent's state (out_offset/out_len) for ResolveCall to later splice the
// child's return data back into the parent's memory. The driver fetches
// the callee's code itself via Handler.Code(CodeAddress) — the trap only
// identifies which code, matching handler.call's own (target, ...)
// signature rather than duplicating the code bytes through two paths.
//
// Unlike the Rust original, which leaves out_offset/out_len sitting on the
// parent's stack across the suspension, this port pops them at dispatch
// time and carries them here instead — equivalent in effect (the parent's
// stack still gets exactly one pushed word, and only at resume time) and a
// better fit for a Go struct-based suspension handle than a borrowed,
// still-mid-instruction stack.
type CallTrap struct {
	CodeAddress common.Address
	Input       []byte
	Context     Context
	Transfer    *Transfer
	IsStatic    bool
	TargetGas   *uint64
	OutOffset   uint64
	OutLen      uint64
}

// CreateTrap carries everything the outer driver needs to set up a child
// Runtime for CREATE/CREATE2. InitCode is the memory slice the parent
// already captured; the driver derives its jump-destination bitmap with
// machine.NewValids before constructing the child.
type CreateTrap struct {
	Caller    common.Address
	Scheme    CreateScheme
	Value     uint256.Int
	InitCode  []byte
	TargetGas *uint64
}
