// Copyright 2015 The go-ethereum Authors
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

package common

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// AddressLength is the expected length of the account address.
	AddressLength = 20
	// HashLength is the expected length of the hash.
	HashLength = 32
)

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// SetBytes sets the address to the value of b, cropping from the left if b is
// larger than AddressLength.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the raw bytes of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hash returns a Hash type with the address left-padded to 32 bytes, the
// representation used to push an address onto the EVM stack.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// Hex returns an EIP55-uncompliant hex string representation of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Hash represents the 32-byte output of the Keccak256 hash function, and is
// also used to hold any other 256-bit word (e.g. a storage key or value)
// that needs a fixed-size, big-endian representation.
type Hash [HashLength]byte

// BytesToHash returns Hash with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// SetBytes sets the hash to the value of b, cropping from the left if b is
// larger than HashLength.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// BigToHash sets the big-endian representation of n into a Hash, wrapping
// (truncating the high bits) if n doesn't fit in 256 bits.
func BigToHash(n *uint256.Int) Hash {
	return Hash(n.Bytes32())
}

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Big interprets h as a big-endian unsigned 256-bit integer.
func (h Hash) Big() *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}

// Address returns the last AddressLength bytes of h as an Address, the
// inverse of Address.Hash for values the EVM leaves zero-padded.
func (h Hash) Address() Address {
	return BytesToAddress(h[HashLength-AddressLength:])
}

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// GoStringer-friendly formatting for test failure output.
func (a Address) GoString() string { return fmt.Sprintf("common.HexToAddress(%q)", a.Hex()) }
func (h Hash) GoString() string    { return fmt.Sprintf("common.HexToHash(%q)", h.Hex()) }

// HexToAddress returns Address with byte values of s, which can be either a
// hex-encoded string with or without the "0x" prefix.
func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

// HexToHash returns Hash with byte values of s, which can be either a
// hex-encoded string with or without the "0x" prefix.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

func fromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}
