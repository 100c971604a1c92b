package machine

import "github.com/holiman/uint256"

// Memory is the EVM's byte-addressable, growable working memory. It never
// shrinks within a frame and is bounded by the configured memory limit.
type Memory struct {
	store []byte
	limit uint64
}

// NewMemory returns an empty memory bounded at limit bytes.
func NewMemory(limit uint64) *Memory {
	return &Memory{limit: limit}
}

// Len returns the current memory size in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Resize grows the memory to at least size bytes, zero-filling the new
// region. It is a no-op if size is already within the current length.
// Reports false if doing so would exceed the configured limit.
func (m *Memory) Resize(size uint64) bool {
	if size <= uint64(len(m.store)) {
		return true
	}
	if size > m.limit {
		return false
	}
	grown := make([]byte, size)
	copy(grown, m.store)
	m.store = grown
	return true
}

// Set writes data into memory at offset, which must already be within bounds
// (callers resize first).
func (m *Memory) Set(offset, size uint64, data []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		return
	}
	copy(m.store[offset:offset+size], data)
}

// Set32 writes a 256-bit word at offset, left-padded/truncated to 32 bytes,
// used by MSTORE.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		return
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// GetCopy returns an independent copy of size bytes starting at offset.
// Out-of-range bytes read as zero, matching EXTCODECOPY/CALLDATACOPY semantics.
func (m *Memory) GetCopy(offset, size uint64) []byte {
	out := make([]byte, size)
	if offset >= uint64(len(m.store)) {
		return out
	}
	end := offset + size
	if end > uint64(len(m.store)) {
		end = uint64(len(m.store))
	}
	copy(out, m.store[offset:end])
	return out
}

// GetPtr returns a slice into the live backing array; the caller must not
// retain it across a mutating call.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Data returns the live backing slice for trace snapshots; read-only.
func (m *Memory) Data() []byte { return m.store }
