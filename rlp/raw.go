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

// RawValue represents an already-encoded RLP value. EncodeToBytes/Encode
// write a top-level RawValue verbatim; nested inside another value, or as a
// Decode target, it is handled as an ordinary byte string.
type RawValue []byte

// Encoder is implemented by types that want to control their own RLP
// encoding, the same escape hatch go-ethereum's rlp package offers types
// like types.Transaction.
type Encoder interface {
	EncodeRLP() ([]byte, error)
}

// Decoder is implemented by types that want to control their own RLP
// decoding.
type Decoder interface {
	DecodeRLP(s *Stream) error
}
