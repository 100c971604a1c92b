package runtime

import (
	"github.com/ethgo-labs/evmruntime/common"
	"github.com/ethgo-labs/evmruntime/log"
	"github.com/ethgo-labs/evmruntime/runtime/machine"
	"github.com/ethgo-labs/evmruntime/runtime/trace"
	"github.com/holiman/uint256"
)

// dispatchSystem handles every opcode the pure machine surfaced as a Trap:
// everything that touches the Handler (storage, balance, hashing, logs,
// nested call/create, self-destruct, block/chain introspection). It pops
// arguments in EVM order, validates them, invokes the Handler, and returns
// a Control telling Step how to proceed.
func dispatchSystem(r *Runtime, op machine.OpCode, handler Handler) Control {
	switch {
	case op.IsLog():
		return opLog(r, op.LogTopics(), handler)
	}

	switch op {
	case machine.SHA3:
		return opSha3(r, handler)
	case machine.ADDRESS:
		return opAddress(r)
	case machine.BALANCE:
		return opBalance(r, handler)
	case machine.ORIGIN:
		return opOrigin(r, handler)
	case machine.CALLER:
		return opCaller(r)
	case machine.CALLVALUE:
		return opCallValue(r)
	case machine.GASPRICE:
		return opGasPrice(r, handler)
	case machine.EXTCODESIZE:
		return opExtCodeSize(r, handler)
	case machine.EXTCODEHASH:
		return opExtCodeHash(r, handler)
	case machine.EXTCODECOPY:
		return opExtCodeCopy(r, handler)
	case machine.RETURNDATASIZE:
		return opReturnDataSize(r)
	case machine.RETURNDATACOPY:
		return opReturnDataCopy(r)
	case machine.BLOCKHASH:
		return opBlockHash(r, handler)
	case machine.COINBASE:
		return opCoinbase(r, handler)
	case machine.TIMESTAMP:
		return opTimestamp(r, handler)
	case machine.NUMBER:
		return opNumber(r, handler)
	case machine.DIFFICULTY:
		return opDifficulty(r, handler)
	case machine.GASLIMIT:
		return opGasLimit(r, handler)
	case machine.CHAINID:
		return opChainID(r, handler)
	case machine.SELFBALANCE:
		return opSelfBalance(r, handler)
	case machine.SLOAD:
		return opSLoad(r, handler)
	case machine.SSTORE:
		return opSStore(r, handler)
	case machine.GAS:
		return opGas(r, handler)
	case machine.SELFDESTRUCT:
		return opSelfDestruct(r, handler)
	case machine.CREATE:
		return opCreate(r, false, handler)
	case machine.CREATE2:
		return opCreate(r, true, handler)
	case machine.CALL:
		return opCall(r, Call, handler)
	case machine.CALLCODE:
		return opCall(r, CallCode, handler)
	case machine.DELEGATECALL:
		return opCall(r, DelegateCall, handler)
	case machine.STATICCALL:
		return opCall(r, StaticCall, handler)
	default:
		return ControlExit(Error(ErrInvalidOpcode))
	}
}

func requireStack(stack *machine.Stack, n int) bool { return stack.Len() >= n }

func requireStackRoom(stack *machine.Stack) bool { return stack.Len() < machine.StackLimit }

func underflowExit() Control { return ControlExit(Error(ErrStackUnderflow)) }

func overflowExit() Control { return ControlExit(Error(ErrStackOverflow)) }

// popAddress pops the top word and interprets its low 20 bytes as an
// address, the same truncation the EVM uses whenever an address-valued
// word is read off the stack.
func popAddress(stack *machine.Stack) common.Address {
	v := stack.Pop()
	b := v.Bytes32()
	return common.BytesToAddress(b[12:])
}

func pushHash(stack *machine.Stack, h common.Hash) {
	stack.Push(h.Big())
}

func pushAddress(stack *machine.Stack, addr common.Address) {
	pushHash(stack, addr.Hash())
}

func pushUint64(stack *machine.Stack, v uint64) {
	stack.Push(uint256.NewInt(v))
}

func pushUint256(stack *machine.Stack, v *uint256.Int) {
	stack.Push(v)
}

func pushBool(stack *machine.Stack, ok bool) {
	if ok {
		stack.Push(uint256.NewInt(1))
	} else {
		stack.Push(new(uint256.Int))
	}
}

// memoryResize resizes memory to cover [offset, offset+length), or just
// offset when length is zero (the "len=0 ops still resize to (offset,0)"
// rule). It reports the ExitReason to surface on failure: an offset/length
// too large to address is OutOfOffset, a within-range resize that exceeds
// the configured ceiling is MemoryLimitExceeded.
func memoryResize(mem *machine.Memory, offset, length *uint256.Int) (ExitReason, bool) {
	if !offset.IsUint64() {
		return Error(ErrOutOfOffset), false
	}
	off := offset.Uint64()
	if length.IsZero() {
		if !mem.Resize(off) {
			return Error(ErrMemoryLimitExceeded), false
		}
		return ExitReason{}, true
	}
	if !length.IsUint64() {
		return Error(ErrOutOfOffset), false
	}
	end, overflow := new(uint256.Int).AddOverflow(offset, length)
	if overflow || !end.IsUint64() {
		return Error(ErrOutOfOffset), false
	}
	if !mem.Resize(end.Uint64()) {
		return Error(ErrMemoryLimitExceeded), false
	}
	return ExitReason{}, true
}

// memoryRead resizes memory to [offset, offset+length) and returns a copy
// of that range, or nil with ok=false on a resize failure.
func memoryRead(mem *machine.Memory, offset, length *uint256.Int) ([]byte, ExitReason, bool) {
	reason, ok := memoryResize(mem, offset, length)
	if !ok {
		return nil, reason, false
	}
	if length.IsZero() {
		return nil, ExitReason{}, true
	}
	return mem.GetCopy(offset.Uint64(), length.Uint64()), ExitReason{}, true
}

func opSha3(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 2) {
		return underflowExit()
	}
	off := stack.Pop()
	size := stack.Pop()
	data, reason, ok := memoryRead(r.machine.Memory(), &off, &size)
	if !ok {
		return ControlExit(reason)
	}
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushHash(stack, handler.Keccak256(data))
	return ControlContinue()
}

func opAddress(r *Runtime) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushAddress(stack, r.context.Address)
	return ControlContinue()
}

func opBalance(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	addr := popAddress(stack)
	balance := handler.Balance(addr)
	pushUint256(stack, &balance)
	return ControlContinue()
}

func opOrigin(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushAddress(stack, handler.Origin())
	return ControlContinue()
}

func opCaller(r *Runtime) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushAddress(stack, r.context.Caller)
	return ControlContinue()
}

func opCallValue(r *Runtime) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	v := r.context.ApparentValue
	pushUint256(stack, &v)
	return ControlContinue()
}

func opGasPrice(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	v := handler.GasPrice()
	pushUint256(stack, &v)
	return ControlContinue()
}

func opExtCodeSize(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	addr := popAddress(stack)
	pushUint64(stack, handler.CodeSize(addr))
	return ControlContinue()
}

func opExtCodeHash(r *Runtime, handler Handler) Control {
	if !r.config.HasExtCodeHash {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	addr := popAddress(stack)
	pushHash(stack, handler.CodeHash(addr))
	return ControlContinue()
}

func opExtCodeCopy(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 4) {
		return underflowExit()
	}
	addr := popAddress(stack)
	memOff := stack.Pop()
	codeOff := stack.Pop()
	size := stack.Pop()

	if reason, ok := memoryResize(r.machine.Memory(), &memOff, &size); !ok {
		return ControlExit(reason)
	}
	if size.IsZero() {
		return ControlContinue()
	}
	if !memOff.IsUint64() || !size.IsUint64() {
		return ControlExit(Error(ErrOutOfOffset))
	}
	code := handler.Code(addr)
	var from uint64
	if codeOff.IsUint64() {
		from = codeOff.Uint64()
	} else {
		from = uint64(len(code))
	}
	r.machine.Memory().Set(memOff.Uint64(), size.Uint64(), paddedSlice(code, from, int(size.Uint64())))
	return ControlContinue()
}

// paddedSlice returns n bytes of src starting at off, zero-filling past the
// end, the same semantics machine.go uses for CALLDATACOPY/CODECOPY.
func paddedSlice(src []byte, off uint64, n int) []byte {
	out := make([]byte, n)
	if off >= uint64(len(src)) {
		return out
	}
	end := off + uint64(n)
	if end > uint64(len(src)) {
		end = uint64(len(src))
	}
	copy(out, src[off:end])
	return out
}

func opReturnDataSize(r *Runtime) Control {
	if !r.config.HasReturnData {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushUint64(stack, uint64(len(r.returnData)))
	return ControlContinue()
}

func opReturnDataCopy(r *Runtime) Control {
	if !r.config.HasReturnData {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}
	stack := r.machine.Stack()
	if !requireStack(stack, 3) {
		return underflowExit()
	}
	memOff := stack.Pop()
	dataOff := stack.Pop()
	size := stack.Pop()

	if reason, ok := memoryResize(r.machine.Memory(), &memOff, &size); !ok {
		return ControlExit(reason)
	}

	end, overflow := new(uint256.Int).AddOverflow(&dataOff, &size)
	if overflow || !end.IsUint64() || end.Uint64() > uint64(len(r.returnData)) {
		return ControlExit(Error(ErrOutOfOffset))
	}
	if size.IsZero() {
		return ControlContinue()
	}
	r.machine.Memory().Set(memOff.Uint64(), size.Uint64(), r.returnData[dataOff.Uint64():end.Uint64()])
	return ControlContinue()
}

func opBlockHash(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	number := stack.Pop()
	var n uint64
	if number.IsUint64() {
		n = number.Uint64()
	}
	pushHash(stack, handler.BlockHash(n))
	return ControlContinue()
}

func opCoinbase(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushAddress(stack, handler.BlockCoinbase())
	return ControlContinue()
}

func opTimestamp(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushUint64(stack, handler.BlockTimestamp())
	return ControlContinue()
}

func opNumber(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushUint64(stack, handler.BlockNumber())
	return ControlContinue()
}

func opDifficulty(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	v := handler.BlockDifficulty()
	pushUint256(stack, &v)
	return ControlContinue()
}

func opGasLimit(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushUint64(stack, handler.BlockGasLimit())
	return ControlContinue()
}

func opChainID(r *Runtime, handler Handler) Control {
	if !r.config.HasChainID {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	v := handler.ChainID()
	pushUint256(stack, &v)
	return ControlContinue()
}

func opSelfBalance(r *Runtime, handler Handler) Control {
	if !r.config.HasSelfBalance {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	v := handler.Balance(r.context.Address)
	pushUint256(stack, &v)
	return ControlContinue()
}

func opSLoad(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	index := common.BigToHash(stack.Peek())
	value := handler.Storage(r.context.Address, index)
	stack.Pop()
	pushHash(stack, value)

	r.emit(trace.Event{
		Kind:    trace.KindSLoad,
		Address: r.context.Address,
		Key:     index,
		Value:   *value.Big(),
	})
	return ControlContinue()
}

func opSStore(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 2) {
		return underflowExit()
	}
	idxWord := stack.Pop()
	valWord := stack.Pop()
	index := common.BigToHash(&idxWord)
	value := common.BigToHash(&valWord)

	r.emit(trace.Event{
		Kind:    trace.KindSStore,
		Address: r.context.Address,
		Key:     index,
		Value:   *value.Big(),
	})

	if err := handler.SetStorage(r.context.Address, index, value); err != nil {
		return ControlExit(Error(err))
	}
	return ControlContinue()
}

func opGas(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStackRoom(stack) {
		return overflowExit()
	}
	pushUint64(stack, handler.GasLeft())
	return ControlContinue()
}

func opLog(r *Runtime, n int, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 2+n) {
		return underflowExit()
	}
	off := stack.Pop()
	size := stack.Pop()
	data, reason, ok := memoryRead(r.machine.Memory(), &off, &size)
	if !ok {
		return ControlExit(reason)
	}

	topics := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		v := stack.Pop()
		topics[i] = common.BigToHash(&v)
	}

	if err := handler.Log(r.context.Address, topics, data); err != nil {
		return ControlExit(Error(err))
	}
	return ControlContinue()
}

func opSelfDestruct(r *Runtime, handler Handler) Control {
	stack := r.machine.Stack()
	if !requireStack(stack, 1) {
		return underflowExit()
	}
	target := popAddress(stack)
	balance := handler.Balance(r.context.Address)

	r.emit(trace.Event{
		Kind:    trace.KindSuicide,
		Address: r.context.Address,
		Target:  target,
		Balance: balance,
	})

	if err := handler.MarkDelete(r.context.Address, target); err != nil {
		return ControlExit(Error(err))
	}
	return ControlExit(Succeed(Suicided))
}

func opCreate(r *Runtime, isCreate2 bool, handler Handler) Control {
	if isCreate2 && !r.config.HasCreate2 {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}

	stack := r.machine.Stack()
	need := 3
	if isCreate2 {
		need = 4
	}
	if !requireStack(stack, need) {
		return underflowExit()
	}

	r.returnData = nil

	value := stack.Pop()
	codeOff := stack.Pop()
	codeLen := stack.Pop()

	initCode, reason, ok := memoryRead(r.machine.Memory(), &codeOff, &codeLen)
	if !ok {
		return ControlExit(reason)
	}

	var scheme CreateScheme
	if isCreate2 {
		saltWord := stack.Pop()
		salt := common.BigToHash(&saltWord)
		codeHash := handler.Keccak256(initCode)
		scheme = Create2Scheme(r.context.Address, codeHash, salt)
	} else {
		scheme = LegacyCreate(r.context.Address)
	}

	capture := handler.Create(r.context.Address, scheme, value, initCode, nil)
	trap := CreateTrap{
		Caller:   r.context.Address,
		Scheme:   scheme,
		Value:    value,
		InitCode: initCode,
	}
	if capture.IsTrap() {
		return ControlCreateInterrupt(trap)
	}
	return saveCreatedAddress(r, trap, capture.Reason(), capture.CreatedAddress())
}

func opCall(r *Runtime, scheme CallScheme, handler Handler) Control {
	if scheme == DelegateCall && !r.config.HasDelegateCall {
		return ControlExit(Error(ErrFeatureNotEnabled))
	}

	stack := r.machine.Stack()
	need := 6
	hasValue := scheme == Call || scheme == CallCode
	if hasValue {
		need = 7
	}
	if !requireStack(stack, need) {
		return underflowExit()
	}

	r.returnData = nil

	gasWord := stack.Pop()
	var targetGas *uint64
	if gasWord.IsUint64() {
		g := gasWord.Uint64()
		targetGas = &g
	}

	to := popAddress(stack)

	var value uint256.Int
	if hasValue {
		value = stack.Pop()
	}

	inOff := stack.Pop()
	inLen := stack.Pop()
	outOff := stack.Pop()
	outLen := stack.Pop()

	input, reason, ok := memoryRead(r.machine.Memory(), &inOff, &inLen)
	if !ok {
		return ControlExit(reason)
	}

	childContext := buildCallContext(r.context, scheme, to, value)
	transfer := buildTransfer(r.context.Address, to, scheme, value)
	isStatic := scheme == StaticCall

	if !outOff.IsUint64() || !outLen.IsUint64() {
		return ControlExit(Error(ErrOutOfOffset))
	}

	trap := CallTrap{
		CodeAddress: to,
		Input:       input,
		Context:     childContext,
		Transfer:    transfer,
		IsStatic:    isStatic,
		TargetGas:   targetGas,
		OutOffset:   outOff.Uint64(),
		OutLen:      outLen.Uint64(),
	}

	// The Call event is an entry record: it precedes the Transfer pre-image
	// and every event the child frame will emit.
	r.emit(trace.Event{
		Kind:        trace.KindCall,
		CodeAddress: trap.CodeAddress,
		Transfer:    toTransferInfo(trap.Transfer),
		Input:       trap.Input,
		TargetGas:   trap.TargetGas,
		IsStatic:    trap.IsStatic,
		Context:     toContextInfoValue(trap.Context),
	})
	if transfer != nil {
		r.emit(trace.Event{
			Kind:   trace.KindTransfer,
			Source: transfer.Source,
			Target: transfer.Target,
			Value:  transfer.Value,
		})
	}

	capture := handler.Call(to, input, childContext, transfer, isStatic, targetGas)
	if capture.IsTrap() {
		return ControlCallInterrupt(trap)
	}
	return saveReturnValue(r, trap, capture.Reason(), capture.ReturnData())
}

func buildCallContext(parent Context, scheme CallScheme, to common.Address, value uint256.Int) Context {
	switch scheme {
	case Call, StaticCall:
		return Context{Address: to, Caller: parent.Address, ApparentValue: value}
	case CallCode:
		return Context{Address: parent.Address, Caller: parent.Address, ApparentValue: value}
	default: // DelegateCall
		return parent
	}
}

func buildTransfer(self, to common.Address, scheme CallScheme, value uint256.Int) *Transfer {
	switch scheme {
	case Call:
		return &Transfer{Source: self, Target: to, Value: value}
	case CallCode:
		return &Transfer{Source: self, Target: self, Value: value}
	default:
		return nil
	}
}

// saveCreatedAddress folds a resolved CREATE*/CREATE2 outcome into the
// parent frame: the stack does not yet hold the result word on entry.
func saveCreatedAddress(r *Runtime, trap CreateTrap, reason ExitReason, address *common.Address) Control {
	var resolved common.Address
	if address != nil {
		resolved = *address
	}

	// Unlike Call, the Create event waits for the merge point: the created
	// address is the Handler's to derive and only known here.
	r.emit(trace.Event{
		Kind:      trace.KindCreate,
		Caller:    trap.Caller,
		Address:   resolved,
		Scheme:    toCreateSchemeInfo(trap.Scheme),
		Value:     trap.Value,
		InitCode:  trap.InitCode,
		TargetGas: trap.TargetGas,
	})

	stack := r.machine.Stack()
	switch {
	case reason.IsSucceed():
		if !requireStackRoom(stack) {
			return overflowExit()
		}
		pushAddress(stack, resolved)
		return ControlContinue()
	case reason.IsRevert(), reason.IsError():
		if !requireStackRoom(stack) {
			return overflowExit()
		}
		pushAddress(stack, common.Address{})
		return ControlContinue()
	case reason.IsFatal():
		if requireStackRoom(stack) {
			pushAddress(stack, common.Address{})
		}
		return ControlExit(reason)
	default:
		// StepLimitReached can never be an inner frame's resolved reason;
		// treat it as the programmer error the original design calls it.
		log.Error("runtime: save_created_address observed StepLimitReached", "address", trap.Caller)
		panic("runtime: save_created_address observed StepLimitReached")
	}
}

// saveReturnValue folds a resolved CALL*/CALLCODE/DELEGATECALL/STATICCALL
// outcome into the parent frame, using the out_offset/out_len this port
// carries on CallTrap rather than leaving them on the stack (see CallTrap's
// doc comment).
func saveReturnValue(r *Runtime, trap CallTrap, reason ExitReason, returnData []byte) Control {
	outOffset := uint256.NewInt(trap.OutOffset)
	outLen := uint256.NewInt(trap.OutLen)
	if reason, ok := memoryResize(r.machine.Memory(), outOffset, outLen); !ok {
		return ControlExit(reason)
	}

	r.returnData = returnData
	targetLen := trap.OutLen
	if uint64(len(returnData)) < targetLen {
		targetLen = uint64(len(returnData))
	}

	stack := r.machine.Stack()
	switch {
	case reason.IsSucceed():
		r.machine.Memory().Set(trap.OutOffset, targetLen, returnData[:targetLen])
		if !requireStackRoom(stack) {
			return overflowExit()
		}
		pushBool(stack, true)
		return ControlContinue()

	case reason.IsRevert():
		r.machine.Memory().Set(trap.OutOffset, targetLen, returnData[:targetLen])
		if !requireStackRoom(stack) {
			return overflowExit()
		}
		pushBool(stack, false)
		return ControlContinue()

	case reason.IsError():
		if !requireStackRoom(stack) {
			return overflowExit()
		}
		pushBool(stack, false)
		return ControlContinue()

	case reason.IsFatal():
		if requireStackRoom(stack) {
			pushBool(stack, false)
		}
		return ControlExit(reason)

	default:
		log.Error("runtime: save_return_value observed StepLimitReached", "code_address", trap.CodeAddress)
		panic("runtime: save_return_value observed StepLimitReached")
	}
}

func toCreateSchemeInfo(s CreateScheme) trace.CreateSchemeInfo {
	return trace.CreateSchemeInfo{
		Kind:     trace.CreateSchemeKind(s.Kind),
		Caller:   s.Caller,
		CodeHash: s.CodeHash,
		Salt:     s.Salt,
		Fixed:    s.Fixed,
	}
}

func toTransferInfo(t *Transfer) *trace.TransferInfo {
	if t == nil {
		return nil
	}
	return &trace.TransferInfo{Source: t.Source, Target: t.Target, Value: t.Value}
}

func toContextInfoValue(c Context) trace.ContextInfo {
	return trace.ContextInfo{Address: c.Address, Caller: c.Caller, ApparentValue: c.ApparentValue}
}
