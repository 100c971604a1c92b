package machine

import "github.com/holiman/uint256"

// HaltKind classifies why a Machine stopped executing on its own, without
// needing to trap out to the system-opcode dispatch layer.
type HaltKind int

const (
	HaltStopped HaltKind = iota
	HaltReturned
	HaltReverted
	HaltInvalid
	HaltStackUnderflow
	HaltStackOverflow
	HaltInvalidJump
	HaltMemoryLimit
	// HaltExternal marks a machine forced to stop by its owning Runtime's
	// system-opcode dispatch layer (or a Resolve handle), rather than by
	// the pure interpreter reaching STOP/RETURN/REVERT/INVALID or an
	// internal limit on its own. The Runtime's own status is authoritative
	// for these; HaltResult() is not consulted for them.
	HaltExternal
)

// Halt is the terminal outcome of a Machine that stopped without a trap.
type Halt struct {
	Kind        HaltKind
	ReturnValue []byte
}

// StepKind discriminates the three things a single Step can produce.
type StepKind int

const (
	StepContinue StepKind = iota
	StepTrap
	StepHalt
)

// StepOutcome is the result of one Machine.Step call.
type StepOutcome struct {
	Kind StepKind
	Trap OpCode
	Halt Halt
}

// Machine executes the pure, non-environment-touching half of the EVM
// opcode table: stack/memory primitives, arithmetic, comparisons, bitwise
// ops, control flow, and CALLDATA*/CODE* (which only ever read the frame's
// own input and code, never the Handler). Every other opcode is surfaced to
// the caller as StepTrap for the runtime's system dispatch to handle.
type Machine struct {
	code   []byte
	valids Valids
	input  []byte
	stack  *Stack
	memory *Memory
	pc     uint64

	halted bool
	halt   Halt
}

// New constructs a Machine over code, with precomputed jump-destination
// bitmap valids and calldata input.
func New(code []byte, valids Valids, input []byte, memoryLimit uint64) *Machine {
	return &Machine{
		code:   code,
		valids: valids,
		input:  input,
		stack:  NewStack(),
		memory: NewMemory(memoryLimit),
	}
}

func (m *Machine) Stack() *Stack   { return m.stack }
func (m *Machine) Memory() *Memory { return m.memory }
func (m *Machine) Code() []byte    { return m.code }
func (m *Machine) Input() []byte   { return m.input }
func (m *Machine) Halted() bool    { return m.halted }
func (m *Machine) HaltResult() Halt {
	return m.halt
}

// Exit forcibly halts the machine, used when pre_validate rejects the next
// opcode or system dispatch produces a terminal ExitReason.
func (m *Machine) Exit(h Halt) {
	m.halted = true
	m.halt = h
}

// Inspect returns the next opcode to execute and the live stack, or ok=false
// if the machine has already halted or run off the end of its code.
func (m *Machine) Inspect() (op OpCode, stack *Stack, ok bool) {
	if m.halted || m.pc >= uint64(len(m.code)) {
		return 0, m.stack, false
	}
	return OpCode(m.code[m.pc]), m.stack, true
}

// Position returns the current program counter, or ok=false if halted.
func (m *Machine) Position() (uint64, bool) {
	return m.pc, !m.halted
}

func (m *Machine) require(n int) bool { return m.stack.Len() >= n }

// Step executes exactly one instruction. Pure opcodes run to completion and
// return StepContinue or StepHalt; opcodes needing the Handler advance pc
// past themselves and return StepTrap, leaving stack and memory untouched.
func (m *Machine) Step() StepOutcome {
	if m.halted {
		return StepOutcome{Kind: StepHalt, Halt: m.halt}
	}
	if m.pc >= uint64(len(m.code)) {
		m.Exit(Halt{Kind: HaltStopped})
		return StepOutcome{Kind: StepHalt, Halt: m.halt}
	}

	op := OpCode(m.code[m.pc])

	switch {
	case op.IsPush():
		return m.stepPush(op)
	case op.IsDup():
		return m.stepDup(op)
	case op.IsSwap():
		return m.stepSwap(op)
	}

	switch op {
	case STOP:
		m.Exit(Halt{Kind: HaltStopped})
		return StepOutcome{Kind: StepHalt, Halt: m.halt}

	case ADD, MUL, SUB, DIV, SDIV, MOD, SMOD, LT, GT, SLT, SGT, EQ, AND, OR, XOR, BYTE, SHL, SHR, SAR, SIGNEXTEND:
		return m.stepBinary(op)

	case ADDMOD, MULMOD:
		return m.stepTernary(op)

	case EXP:
		return m.stepBinary(op)

	case ISZERO, NOT:
		return m.stepUnary(op)

	case POP:
		if !m.require(1) {
			return m.underflow()
		}
		m.stack.Pop()
		m.pc++
		return m.cont()

	case MLOAD:
		if !m.require(1) {
			return m.underflow()
		}
		off := m.stack.Pop()
		offset, ok := memOffset(&off, 32)
		if !ok || !m.memory.Resize(offset+32) {
			return m.memoryLimit()
		}
		var v uint256.Int
		v.SetBytes(m.memory.GetPtr(offset, 32))
		m.stack.Push(&v)
		m.pc++
		return m.cont()

	case MSTORE:
		if !m.require(2) {
			return m.underflow()
		}
		off := m.stack.Pop()
		val := m.stack.Pop()
		offset, ok := memOffset(&off, 32)
		if !ok || !m.memory.Resize(offset+32) {
			return m.memoryLimit()
		}
		m.memory.Set32(offset, &val)
		m.pc++
		return m.cont()

	case MSTORE8:
		if !m.require(2) {
			return m.underflow()
		}
		off := m.stack.Pop()
		val := m.stack.Pop()
		offset, ok := memOffset(&off, 1)
		if !ok || !m.memory.Resize(offset+1) {
			return m.memoryLimit()
		}
		m.memory.Set(offset, 1, []byte{byte(val.Uint64())})
		m.pc++
		return m.cont()

	case MSIZE:
		if m.stack.Len() >= StackLimit {
			return m.overflow()
		}
		v := uint256.NewInt(uint64(m.memory.Len()))
		m.stack.Push(v)
		m.pc++
		return m.cont()

	case JUMP:
		if !m.require(1) {
			return m.underflow()
		}
		dest := m.stack.Pop()
		if !dest.IsUint64() || !m.valids.IsValid(dest.Uint64()) {
			return m.invalidJump()
		}
		m.pc = dest.Uint64()
		return m.cont()

	case JUMPI:
		if !m.require(2) {
			return m.underflow()
		}
		dest := m.stack.Pop()
		cond := m.stack.Pop()
		if cond.IsZero() {
			m.pc++
			return m.cont()
		}
		if !dest.IsUint64() || !m.valids.IsValid(dest.Uint64()) {
			return m.invalidJump()
		}
		m.pc = dest.Uint64()
		return m.cont()

	case PC:
		if m.stack.Len() >= StackLimit {
			return m.overflow()
		}
		v := uint256.NewInt(m.pc)
		m.stack.Push(v)
		m.pc++
		return m.cont()

	case JUMPDEST:
		m.pc++
		return m.cont()

	case CALLDATALOAD:
		if !m.require(1) {
			return m.underflow()
		}
		off := m.stack.Pop()
		var v uint256.Int
		if off.IsUint64() {
			v.SetBytes(paddedSlice(m.input, off.Uint64(), 32))
		}
		m.stack.Push(&v)
		m.pc++
		return m.cont()

	case CALLDATASIZE:
		if m.stack.Len() >= StackLimit {
			return m.overflow()
		}
		v := uint256.NewInt(uint64(len(m.input)))
		m.stack.Push(v)
		m.pc++
		return m.cont()

	case CALLDATACOPY:
		return m.stepCopy(m.input)

	case CODESIZE:
		if m.stack.Len() >= StackLimit {
			return m.overflow()
		}
		v := uint256.NewInt(uint64(len(m.code)))
		m.stack.Push(v)
		m.pc++
		return m.cont()

	case CODECOPY:
		return m.stepCopy(m.code)

	case RETURN:
		if !m.require(2) {
			return m.underflow()
		}
		off := m.stack.Pop()
		size := m.stack.Pop()
		data, ok := m.readMemoryRange(&off, &size)
		if !ok {
			return m.memoryLimit()
		}
		m.Exit(Halt{Kind: HaltReturned, ReturnValue: data})
		return StepOutcome{Kind: StepHalt, Halt: m.halt}

	case REVERT:
		if !m.require(2) {
			return m.underflow()
		}
		off := m.stack.Pop()
		size := m.stack.Pop()
		data, ok := m.readMemoryRange(&off, &size)
		if !ok {
			return m.memoryLimit()
		}
		m.Exit(Halt{Kind: HaltReverted, ReturnValue: data})
		return StepOutcome{Kind: StepHalt, Halt: m.halt}

	case INVALID:
		m.Exit(Halt{Kind: HaltInvalid})
		return StepOutcome{Kind: StepHalt, Halt: m.halt}

	default:
		// Every other opcode (SHA3, ADDRESS, BALANCE, SLOAD/SSTORE, LOGn,
		// CREATE*/CALL*/SELFDESTRUCT, block/chain introspection, GAS,
		// RETURNDATA*, EXTCODE*) is a Handler-mediated system opcode. pc
		// moves past it here; the dispatch layer pops the arguments still
		// on the stack and pushes any result itself.
		m.pc++
		return StepOutcome{Kind: StepTrap, Trap: op}
	}
}

func (m *Machine) cont() StepOutcome { return StepOutcome{Kind: StepContinue} }

func (m *Machine) underflow() StepOutcome {
	m.Exit(Halt{Kind: HaltStackUnderflow})
	return StepOutcome{Kind: StepHalt, Halt: m.halt}
}

func (m *Machine) overflow() StepOutcome {
	m.Exit(Halt{Kind: HaltStackOverflow})
	return StepOutcome{Kind: StepHalt, Halt: m.halt}
}

func (m *Machine) invalidJump() StepOutcome {
	m.Exit(Halt{Kind: HaltInvalidJump})
	return StepOutcome{Kind: StepHalt, Halt: m.halt}
}

func (m *Machine) memoryLimit() StepOutcome {
	m.Exit(Halt{Kind: HaltMemoryLimit})
	return StepOutcome{Kind: StepHalt, Halt: m.halt}
}

func (m *Machine) stepPush(op OpCode) StepOutcome {
	if m.stack.Len() >= StackLimit {
		return m.overflow()
	}
	n := op.PushSize()
	var v uint256.Int
	v.SetBytes(paddedSlice(m.code, m.pc+1, n))
	m.stack.Push(&v)
	m.pc += uint64(1 + n)
	return m.cont()
}

func (m *Machine) stepDup(op OpCode) StepOutcome {
	n := op.DupN()
	if !m.require(n) {
		return m.underflow()
	}
	if m.stack.Len() >= StackLimit {
		return m.overflow()
	}
	m.stack.Dup(n)
	m.pc++
	return m.cont()
}

func (m *Machine) stepSwap(op OpCode) StepOutcome {
	n := op.SwapN()
	if !m.require(n + 1) {
		return m.underflow()
	}
	m.stack.Swap(n)
	m.pc++
	return m.cont()
}

func (m *Machine) stepUnary(op OpCode) StepOutcome {
	if !m.require(1) {
		return m.underflow()
	}
	a := m.stack.Peek()
	switch op {
	case ISZERO:
		if a.IsZero() {
			a.SetOne()
		} else {
			a.Clear()
		}
	case NOT:
		a.Not(a)
	}
	m.pc++
	return m.cont()
}

// stepBinary handles every two-operand opcode. EVM order: b is the popped
// top of stack (μs[0]), a is the value left behind by Peek (μs[1]); results
// land back in a. For non-commutative ops the operand order is b <op> a.
func (m *Machine) stepBinary(op OpCode) StepOutcome {
	if !m.require(2) {
		return m.underflow()
	}
	b := m.stack.Pop()
	a := m.stack.Peek()
	switch op {
	case ADD:
		a.Add(a, &b)
	case MUL:
		a.Mul(a, &b)
	case SUB:
		a.Sub(&b, a)
	case DIV:
		a.Div(&b, a)
	case SDIV:
		a.SDiv(&b, a)
	case MOD:
		a.Mod(&b, a)
	case SMOD:
		a.SMod(&b, a)
	case EXP:
		a.Exp(&b, a)
	case LT:
		if b.Lt(a) {
			a.SetOne()
		} else {
			a.Clear()
		}
	case GT:
		if b.Gt(a) {
			a.SetOne()
		} else {
			a.Clear()
		}
	case SLT:
		if b.Slt(a) {
			a.SetOne()
		} else {
			a.Clear()
		}
	case SGT:
		if b.Sgt(a) {
			a.SetOne()
		} else {
			a.Clear()
		}
	case EQ:
		if a.Eq(&b) {
			a.SetOne()
		} else {
			a.Clear()
		}
	case AND:
		a.And(a, &b)
	case OR:
		a.Or(a, &b)
	case XOR:
		a.Xor(a, &b)
	case BYTE:
		a.Byte(&b)
	case SHL:
		a.Lsh(a, uint(shiftAmount(&b)))
	case SHR:
		a.Rsh(a, uint(shiftAmount(&b)))
	case SAR:
		a.SRsh(a, uint(shiftAmount(&b)))
	case SIGNEXTEND:
		a.ExtendSign(a, &b)
	}
	m.pc++
	return m.cont()
}

func shiftAmount(shift *uint256.Int) uint64 {
	if !shift.IsUint64() || shift.Uint64() > 256 {
		return 256
	}
	return shift.Uint64()
}

func (m *Machine) stepTernary(op OpCode) StepOutcome {
	if !m.require(3) {
		return m.underflow()
	}
	b := m.stack.Pop()
	c := m.stack.Pop()
	a := m.stack.Peek()
	switch op {
	case ADDMOD:
		a.AddMod(&b, &c, a)
	case MULMOD:
		a.MulMod(&b, &c, a)
	}
	m.pc++
	return m.cont()
}

func (m *Machine) stepCopy(src []byte) StepOutcome {
	if !m.require(3) {
		return m.underflow()
	}
	destOff := m.stack.Pop()
	srcOff := m.stack.Pop()
	size := m.stack.Pop()
	if size.IsZero() {
		m.pc++
		return m.cont()
	}
	if !destOff.IsUint64() || !size.IsUint64() {
		return m.memoryLimit()
	}
	dest, sz := destOff.Uint64(), size.Uint64()
	if dest+sz < dest || !m.memory.Resize(dest+sz) {
		return m.memoryLimit()
	}
	var from uint64
	if srcOff.IsUint64() {
		from = srcOff.Uint64()
	} else {
		from = uint64(len(src))
	}
	m.memory.Set(dest, sz, paddedSlice(src, from, int(sz)))
	m.pc++
	return m.cont()
}

// readMemoryRange resizes memory to cover [offset, offset+size) and returns
// a copy of that range, used by RETURN/REVERT to snapshot the return value.
func (m *Machine) readMemoryRange(offset, size *uint256.Int) ([]byte, bool) {
	if size.IsZero() {
		return nil, true
	}
	if !offset.IsUint64() || !size.IsUint64() {
		return nil, false
	}
	off, sz := offset.Uint64(), size.Uint64()
	if off+sz < off || !m.memory.Resize(off+sz) {
		return nil, false
	}
	return m.memory.GetCopy(off, sz), true
}

// memOffset validates off as a memory offset for which [off, off+size)
// still fits in a uint64, returning its value.
func memOffset(off *uint256.Int, size uint64) (uint64, bool) {
	if !off.IsUint64() {
		return 0, false
	}
	o := off.Uint64()
	if o+size < o {
		return 0, false
	}
	return o, true
}

// paddedSlice returns n bytes of src starting at off, zero-filling past the
// end, matching CALLDATACOPY/CODECOPY/PUSH semantics for short reads.
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
