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

package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is encountered where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string or byte")
	// ErrExpectedList is returned when a string is encountered where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list")
	// ErrCanonInt is returned when an integer uses non-canonical encoding (leading zeros).
	ErrCanonInt = errors.New("rlp: non-canonical integer format")
	// ErrCanonSize is returned when a string's size header is not in its
	// shortest form: a single byte below 0x80 wrapped in a one-byte string
	// header, or the long string form used for 55 bytes or fewer.
	ErrCanonSize = errors.New("rlp: non-canonical size information")
	// ErrElemTooLarge is returned when a size prefix is not in canonical form.
	ErrElemTooLarge = errors.New("rlp: non-canonical size for list or string")
	// ErrEOL is returned when the end of the current list has been reached during streaming.
	ErrEOL = errors.New("rlp: end of list")
	// ErrUint64Range is returned when a decoded integer exceeds uint64 range.
	ErrUint64Range = errors.New("rlp: uint64 overflow")
	// ErrValueTooLarge is returned by Encode for a value this package does not know how
	// to encode (channels, functions, maps, and similar).
	ErrValueTooLarge = errors.New("rlp: value too large")
)
