package machine

// Valids is a bitmap, one bit per code byte, marking valid JUMPDEST targets.
// Bytes that fall inside a PUSH immediate are never valid, even if their
// value happens to equal 0x5b.
type Valids []byte

// NewValids computes the jump-destination bitmap for code.
func NewValids(code []byte) Valids {
	v := make(Valids, (len(code)+7)/8)
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			v[pc/8] |= 1 << (pc % 8)
			pc++
			continue
		}
		if op.IsPush() {
			pc += 1 + op.PushSize()
			continue
		}
		pc++
	}
	return v
}

// IsValid reports whether dest is a valid jump destination in code.
func (v Valids) IsValid(dest uint64) bool {
	if dest >= uint64(len(v))*8 {
		return false
	}
	return v[dest/8]&(1<<(dest%8)) != 0
}
