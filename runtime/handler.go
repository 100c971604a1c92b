package runtime

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/holiman/uint256"
)

// Handler mediates every environment-touching opcode. A Runtime never reads
// world state, chain context, or nested code directly: every SLOAD,
// BALANCE, LOGn, CALL, CREATE, and SELFDESTRUCT is routed through the
// embedding Handler, which is free to back it with a live state trie, an
// in-memory fixture, or a proving backend.
//
// Call and Create return a Capture: either the child frame's outcome is
// already known (Exit, e.g. a precompile or a cached result) or the
// Handler wants the caller to recurse into a fresh Runtime and resume this
// one later with the child's result (Trap).
type Handler interface {
	// Balance returns the wei balance of address.
	Balance(address common.Address) uint256.Int
	// CodeSize returns the length of address's code.
	CodeSize(address common.Address) uint64
	// CodeHash returns the keccak256 hash of address's code.
	CodeHash(address common.Address) common.Hash
	// Code returns address's code.
	Code(address common.Address) []byte
	// Storage returns the value stored at (address, key).
	Storage(address common.Address, key common.Hash) common.Hash
	// OriginalStorage returns the value at (address, key) as of the start
	// of the enclosing transaction, for SSTORE refund accounting.
	OriginalStorage(address common.Address, key common.Hash) common.Hash

	// Gas introspection.
	GasLeft() uint64
	GasPrice() uint256.Int
	Origin() common.Address

	// Block and chain introspection.
	ChainID() uint256.Int
	BlockHash(number uint64) common.Hash
	BlockCoinbase() common.Address
	BlockTimestamp() uint64
	BlockNumber() uint64
	BlockDifficulty() uint256.Int
	BlockGasLimit() uint64
	BlockBaseFeePerGas() uint256.Int

	// Exists reports whether address has any state (balance, nonce, or
	// code) associated with it.
	Exists(address common.Address) bool
	// Deleted reports whether address has been marked for deletion by
	// SELFDESTRUCT earlier in the enclosing transaction.
	Deleted(address common.Address) bool

	// SetStorage records value at (address, key). It is invoked for the
	// side effect immediately, before the opcode dispatch observes any
	// result — SSTORE's trace event in particular must be emitted before
	// this call, not after, so an observer sees the pre-image.
	SetStorage(address common.Address, key, value common.Hash) error
	// Log appends an event log entry.
	Log(address common.Address, topics []common.Hash, data []byte) error
	// MarkDelete records that address should be deleted at the end of the
	// enclosing transaction, with any remaining balance sent to target.
	MarkDelete(address common.Address, target common.Address) error

	// Call dispatches a CALL/CALLCODE/DELEGATECALL/STATICCALL against the
	// code at codeAddress, which is the call's target address for every
	// scheme. context.Address is where that code runs: the target for
	// CALL/STATICCALL, the current frame's own address for CALLCODE, and
	// the current frame's context address for DELEGATECALL. isStatic is
	// true only for STATICCALL; the runtime does not track whether the
	// calling frame is itself static.
	Call(
		codeAddress common.Address,
		input []byte,
		context Context,
		transfer *Transfer,
		isStatic bool,
		targetGas *uint64,
	) Capture

	// Create dispatches a CREATE/CREATE2.
	Create(
		caller common.Address,
		scheme CreateScheme,
		value uint256.Int,
		initCode []byte,
		targetGas *uint64,
	) Capture

	// PreValidate is invoked once per Step, before the opcode executes,
	// and may itself produce an ExitReason (e.g. insufficient gas) that
	// aborts the step before it runs. stack is a read-only, bottom-to-top
	// view of the frame's operand stack, so an embedder can meter opcodes
	// whose cost depends on their arguments (SSTORE, EXP, the copy family)
	// and enforce its own depth rules. It must not be retained or mutated.
	PreValidate(context Context, opcode byte, stack []uint256.Int) *ExitReason

	// Keccak256 hashes data. Routed through the Handler rather than called
	// directly so embedders that memoize or precompute hashes (e.g. for
	// known bytecode) can short-circuit it.
	Keccak256(data []byte) common.Hash
}
