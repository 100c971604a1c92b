// Package runtimetest provides an in-memory runtime.Handler test double,
// grounded on the teacher's table-driven vm package test harnesses (e.g.
// instructions_multigas_test.go's per-opcode ScopeContext/Contract fixtures)
// adapted into a single reusable fixture for this module's own tests and
// for embedders exercising the runtime package without a live state trie.
package runtimetest

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/crypto"
	"github.com/ethgo-labs/evmruntime/multigas"
	"github.com/ethgo-labs/evmruntime/runtime"
	"github.com/ethgo-labs/evmruntime/runtime/trace"
)

// account is the in-memory fixture's per-address state.
type account struct {
	balance         uint256.Int
	nonce           uint64
	code            []byte
	codeHash        common.Hash
	storage         map[common.Hash]common.Hash
	originalStorage map[common.Hash]common.Hash
}

func newAccount() *account {
	return &account{
		storage:         make(map[common.Hash]common.Hash),
		originalStorage: make(map[common.Hash]common.Hash),
	}
}

// CallFunc lets a test substitute its own nested-call behavior in place of
// Handler's default (apply any value transfer, then succeed with empty
// return data).
type CallFunc func(codeAddress common.Address, input []byte, context runtime.Context, transfer *runtime.Transfer, isStatic bool, targetGas *uint64) runtime.Capture

// CreateFunc lets a test substitute its own nested-create behavior in place
// of Handler's default (deploy initCode verbatim at the derived address).
type CreateFunc func(caller common.Address, scheme runtime.CreateScheme, value uint256.Int, initCode []byte, targetGas *uint64) runtime.Capture

// Handler is an in-memory runtime.Handler: every account lives in a map,
// every CALL/CREATE resolves synchronously (no suspension) unless OnCall/
// OnCreate is set, and every trace-worthy mutation it performs emits the
// corresponding Handler-side Event (SetStorage/IncrementNonce/SetCode/
// SelfDestruct) to its Sink.
type Handler struct {
	accounts map[common.Address]*account
	deleted  mapset.Set[common.Address]
	logs     []Log

	Sink   trace.Sink
	Ledger *GasLedger

	GasLeftValue    uint64
	GasPriceValue   uint256.Int
	OriginValue     common.Address
	ChainIDValue    uint256.Int
	CoinbaseValue   common.Address
	TimestampValue  uint64
	NumberValue     uint64
	DifficultyValue uint256.Int
	GasLimitValue   uint64
	BaseFeeValue    uint256.Int
	BlockHashes     map[uint64]common.Hash

	OnCall   CallFunc
	OnCreate CreateFunc

	// StepCost is deducted from GasLeftValue, and recorded in Ledger under
	// ResourceKindComputation, on every PreValidate call. Zero disables gas
	// accounting entirely (PreValidate always succeeds).
	StepCost uint64

	// Static, when set, rejects SetStorage/Log/MarkDelete with
	// runtime.ErrStaticStateChange, modeling the enforcement a Handler
	// embedded under STATICCALL is expected to perform on its own — the
	// dispatch layer never tracks staticness itself.
	Static bool
}

// Log records one Handler.Log call for test assertions.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// NewHandler returns an empty Handler with a generous default gas budget and
// tracing disabled.
func NewHandler() *Handler {
	return &Handler{
		accounts:     make(map[common.Address]*account),
		deleted:      mapset.NewSet[common.Address](),
		Sink:         trace.Discard,
		Ledger:       NewGasLedger(),
		GasLeftValue: math.MaxUint64,
		BlockHashes:  make(map[uint64]common.Hash),
	}
}

func (h *Handler) account(addr common.Address) *account {
	a, ok := h.accounts[addr]
	if !ok {
		a = newAccount()
		h.accounts[addr] = a
	}
	return a
}

// SetBalance sets address's wei balance, creating the account if absent.
func (h *Handler) SetBalance(addr common.Address, balance uint256.Int) {
	h.account(addr).balance = balance
}

// SetCode sets address's code and codeHash, creating the account if absent.
func (h *Handler) SetCode(addr common.Address, code []byte) {
	a := h.account(addr)
	a.code = code
	a.codeHash = crypto.Keccak256Hash(code)
}

// SetStorageValue seeds both the live and original storage slot for address
// at key, the way a test fixture models "as of the start of the
// transaction" state without going through SSTORE.
func (h *Handler) SetStorageValue(addr common.Address, key, value common.Hash) {
	a := h.account(addr)
	a.storage[key] = value
	a.originalStorage[key] = value
}

// Logs returns every Log recorded so far.
func (h *Handler) Logs() []Log { return h.logs }

// Balance implements runtime.Handler.
func (h *Handler) Balance(addr common.Address) uint256.Int {
	if a, ok := h.accounts[addr]; ok {
		return a.balance
	}
	return uint256.Int{}
}

// CodeSize implements runtime.Handler.
func (h *Handler) CodeSize(addr common.Address) uint64 {
	if a, ok := h.accounts[addr]; ok {
		return uint64(len(a.code))
	}
	return 0
}

// CodeHash implements runtime.Handler.
func (h *Handler) CodeHash(addr common.Address) common.Hash {
	if a, ok := h.accounts[addr]; ok {
		return a.codeHash
	}
	return common.Hash{}
}

// Code implements runtime.Handler.
func (h *Handler) Code(addr common.Address) []byte {
	if a, ok := h.accounts[addr]; ok {
		return a.code
	}
	return nil
}

// Storage implements runtime.Handler.
func (h *Handler) Storage(addr common.Address, key common.Hash) common.Hash {
	if a, ok := h.accounts[addr]; ok {
		return a.storage[key]
	}
	return common.Hash{}
}

// OriginalStorage implements runtime.Handler.
func (h *Handler) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	if a, ok := h.accounts[addr]; ok {
		return a.originalStorage[key]
	}
	return common.Hash{}
}

// GasLeft implements runtime.Handler.
func (h *Handler) GasLeft() uint64 { return h.GasLeftValue }

// GasPrice implements runtime.Handler.
func (h *Handler) GasPrice() uint256.Int { return h.GasPriceValue }

// Origin implements runtime.Handler.
func (h *Handler) Origin() common.Address { return h.OriginValue }

// ChainID implements runtime.Handler.
func (h *Handler) ChainID() uint256.Int { return h.ChainIDValue }

// BlockHash implements runtime.Handler.
func (h *Handler) BlockHash(number uint64) common.Hash { return h.BlockHashes[number] }

// BlockCoinbase implements runtime.Handler.
func (h *Handler) BlockCoinbase() common.Address { return h.CoinbaseValue }

// BlockTimestamp implements runtime.Handler.
func (h *Handler) BlockTimestamp() uint64 { return h.TimestampValue }

// BlockNumber implements runtime.Handler.
func (h *Handler) BlockNumber() uint64 { return h.NumberValue }

// BlockDifficulty implements runtime.Handler.
func (h *Handler) BlockDifficulty() uint256.Int { return h.DifficultyValue }

// BlockGasLimit implements runtime.Handler.
func (h *Handler) BlockGasLimit() uint64 { return h.GasLimitValue }

// BlockBaseFeePerGas implements runtime.Handler.
func (h *Handler) BlockBaseFeePerGas() uint256.Int { return h.BaseFeeValue }

// Exists implements runtime.Handler.
func (h *Handler) Exists(addr common.Address) bool {
	_, ok := h.accounts[addr]
	return ok
}

// Deleted implements runtime.Handler.
func (h *Handler) Deleted(addr common.Address) bool {
	return h.deleted.Contains(addr)
}

// SetStorage implements runtime.Handler, applying the write and emitting a
// SetStorage event — the Handler-side counterpart to the runtime's own
// pre-image SStore event.
func (h *Handler) SetStorage(addr common.Address, key, value common.Hash) error {
	if h.Static {
		return runtime.ErrStaticStateChange
	}
	h.account(addr).storage[key] = value
	h.Sink.OnEvent(trace.Event{
		Kind:    trace.KindSetStorage,
		Address: addr,
		Key:     key,
		Value:   *value.Big(),
	})
	return nil
}

// Log implements runtime.Handler.
func (h *Handler) Log(addr common.Address, topics []common.Hash, data []byte) error {
	if h.Static {
		return runtime.ErrStaticStateChange
	}
	h.logs = append(h.logs, Log{Address: addr, Topics: topics, Data: data})
	return nil
}

// MarkDelete implements runtime.Handler: moves address's balance to target,
// marks it deleted, and emits the Handler-side Withdraw (before the balance
// moves, so the trace is a pre-image log) and SelfDestruct events.
func (h *Handler) MarkDelete(addr common.Address, target common.Address) error {
	if h.Static {
		return runtime.ErrStaticStateChange
	}
	src := h.account(addr)
	h.Sink.OnEvent(trace.Event{
		Kind:   trace.KindWithdraw,
		Source: addr,
		Value:  src.balance,
	})
	if !addr.IsZero() && addr != target {
		dst := h.account(target)
		dst.balance.Add(&dst.balance, &src.balance)
		src.balance = uint256.Int{}
	}
	h.deleted.Add(addr)
	h.Sink.OnEvent(trace.Event{
		Kind:    trace.KindSelfDestruct,
		Address: addr,
	})
	return nil
}

// Call implements runtime.Handler. Absent an OnCall override, it applies
// transfer (if any) and resolves immediately with an empty, successful
// return — modeling a call into an account with no code.
func (h *Handler) Call(
	codeAddress common.Address,
	input []byte,
	context runtime.Context,
	transfer *runtime.Transfer,
	isStatic bool,
	targetGas *uint64,
) runtime.Capture {
	if h.OnCall != nil {
		return h.OnCall(codeAddress, input, context, transfer, isStatic, targetGas)
	}
	h.applyTransfer(transfer)
	return runtime.CallExit(runtime.Succeed(runtime.Stopped), nil)
}

// Create implements runtime.Handler. Absent an OnCreate override, it
// derives the new address the same way crypto.CreateAddress/CreateAddress2
// would, rejects with runtime.ErrCreateCollision if that address already
// holds code, and otherwise deploys initCode verbatim (no constructor
// execution) and emits IncrementNonce/SetCode.
func (h *Handler) Create(
	caller common.Address,
	scheme runtime.CreateScheme,
	value uint256.Int,
	initCode []byte,
	targetGas *uint64,
) runtime.Capture {
	if h.OnCreate != nil {
		return h.OnCreate(caller, scheme, value, initCode, targetGas)
	}

	var addr common.Address
	switch scheme.Kind {
	case runtime.CreateWithSalt:
		addr = crypto.CreateAddress2(caller, scheme.Salt, crypto.Keccak256(initCode))
	case runtime.CreateFixed:
		addr = scheme.Fixed
	default:
		a := h.account(caller)
		addr = crypto.CreateAddress(caller, a.nonce)
	}

	if existing, ok := h.accounts[addr]; ok && len(existing.code) > 0 {
		return runtime.CreateExit(runtime.Error(runtime.ErrCreateCollision), nil)
	}

	callerAcct := h.account(caller)
	callerAcct.nonce++
	h.Sink.OnEvent(trace.Event{Kind: trace.KindIncrementNonce, Address: caller})

	dst := h.account(addr)
	dst.balance.Add(&dst.balance, &value)
	dst.code = initCode
	dst.codeHash = crypto.Keccak256Hash(initCode)
	h.Sink.OnEvent(trace.Event{Kind: trace.KindSetCode, Address: addr, Code: initCode})

	return runtime.CreateExit(runtime.Succeed(runtime.Returned), &addr)
}

func (h *Handler) applyTransfer(t *runtime.Transfer) {
	if t == nil {
		return
	}
	src := h.account(t.Source)
	dst := h.account(t.Target)
	src.balance.Sub(&src.balance, &t.Value)
	dst.balance.Add(&dst.balance, &t.Value)
}

// PreValidate implements runtime.Handler. When StepCost is zero, every step
// is free and PreValidate always succeeds; otherwise it deducts StepCost
// from GasLeftValue and records it under ResourceKindComputation, failing
// with ErrOutOfGas once the budget is exhausted — a minimal stand-in for
// the per-opcode gas schedule this layer intentionally leaves to the
// embedder.
func (h *Handler) PreValidate(ctx runtime.Context, opcode byte, stack []uint256.Int) *runtime.ExitReason {
	if h.StepCost == 0 {
		return nil
	}
	if h.GasLeftValue < h.StepCost {
		reason := runtime.Error(runtime.ErrOutOfGas)
		return &reason
	}
	h.GasLeftValue -= h.StepCost
	if h.Ledger != nil {
		h.Ledger.Record(multigas.ResourceKindComputation, h.StepCost)
	}
	return nil
}

// Keccak256 implements runtime.Handler.
func (h *Handler) Keccak256(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}

var _ runtime.Handler = (*Handler)(nil)
