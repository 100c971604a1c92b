// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package crypto

import (
	"hash"

	"github.com/ethgo-labs/evmruntime/common"
	"golang.org/x/crypto/sha3"
)

// KeccakState wraps sha3.state. In addition to the usual hash methods, it
// also supports Read to get a variable amount of data from the hash state.
// Read is faster than Sum because it doesn't copy the internal state, but
// also modifies the internal state.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewKeccakState creates a new KeccakState.
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 calculates and returns the Keccak256 hash of the input data,
// concatenating each slice before hashing.
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, 32)
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(b)
	return b
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to the fixed-size common.Hash representation the runtime
// pushes onto the stack for SHA3.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// CreateAddress derives the address of a contract created via CREATE, from
// the creator's address and its nonce at the time of the call.
func CreateAddress(b common.Address, nonce uint64) common.Address {
	nonceBytes := encodeUint64(nonce)
	return common.BytesToAddress(Keccak256(rlpList(b.Bytes(), nonceBytes))[12:])
}

// CreateAddress2 derives the address of a contract created via CREATE2, from
// the creator's address, the salt, and the keccak256 hash of the init code.
func CreateAddress2(b common.Address, salt common.Hash, inithash []byte) common.Address {
	return common.BytesToAddress(Keccak256([]byte{0xff}, b.Bytes(), salt.Bytes(), inithash)[12:])
}

// encodeUint64 encodes n the way RLP would encode an unsigned integer:
// the minimal big-endian byte string (empty for zero).
func encodeUint64(n uint64) []byte {
	if n == 0 {
		return nil
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	i := 0
	for i < 8 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}

// rlpList RLP-encodes a short list of byte strings, exactly as needed to
// reproduce go-ethereum's CreateAddress preimage without pulling in the
// full RLP codec for this one call site.
func rlpList(items ...[]byte) []byte {
	var payload []byte
	for _, item := range items {
		payload = append(payload, rlpString(item)...)
	}
	return append(rlpHeader(0xc0, len(payload)), payload...)
}

func rlpString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(rlpHeader(0x80, len(b)), b...)
}

func rlpHeader(offset byte, size int) []byte {
	if size < 56 {
		return []byte{offset + byte(size)}
	}
	lenBytes := encodeUint64(uint64(size))
	return append([]byte{offset + 55 + byte(len(lenBytes))}, lenBytes...)
}
