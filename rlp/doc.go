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

// Package rlp implements the RLP (Recursive Length Prefix) serialization
// format used to encode trace.Owned events for the wire. It reproduces the
// subset of github.com/ethereum/go-ethereum/rlp's encoding rules this module
// needs: booleans, unsigned integers, *uint256.Int, byte slices/arrays,
// strings, slices, and structs (exported fields only, encoded in field
// order), plus the Encoder/Decoder escape hatch for types that want full
// control over their own wire shape.
package rlp
