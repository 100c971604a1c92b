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

import (
	"bytes"
	"io"
	"reflect"

	"github.com/holiman/uint256"
)

// Kind represents the type tag of an RLP value.
type Kind int

const (
	Byte   Kind = iota // single byte in [0x00, 0x7f]
	String             // RLP string, including the empty string
	List               // RLP list
)

// Decode reads a single RLP-encoded value from r and stores it in the value
// pointed to by val.
func Decode(r io.Reader, val interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(data, val)
}

// DecodeBytes decodes an RLP-encoded byte slice into the value pointed to by val.
func DecodeBytes(b []byte, val interface{}) error {
	if dec, ok := val.(Decoder); ok {
		return dec.DecodeRLP(newByteStream(b))
	}
	return newByteStream(b).decodeValue(reflect.ValueOf(val))
}

// Stream provides low-level, cursor-based access to RLP-encoded data, used
// by types implementing Decoder to read their own wire shape.
type Stream struct {
	data  []byte
	pos   int
	stack []listFrame
}

type listFrame struct {
	end int
}

// NewStream creates a new RLP stream reading from r.
func NewStream(r io.Reader) *Stream {
	data, _ := io.ReadAll(r)
	return newByteStream(data)
}

func newByteStream(data []byte) *Stream {
	return &Stream{data: data}
}

func (s *Stream) limit() int {
	if len(s.stack) > 0 {
		return s.stack[len(s.stack)-1].end
	}
	return len(s.data)
}

// MoreDataInList reports whether the innermost list being read still has
// unread items.
func (s *Stream) MoreDataInList() bool {
	if len(s.stack) == 0 {
		return s.pos < len(s.data)
	}
	return s.pos < s.stack[len(s.stack)-1].end
}

// peekIsEmptyString reports whether the item at the current position is the
// canonical empty-string marker (0x80), without consuming it.
func (s *Stream) peekIsEmptyString() bool {
	return s.pos < s.limit() && s.data[s.pos] == 0x80
}

func (s *Stream) readItem() (kind Kind, payload []byte, err error) {
	lim := s.limit()
	if s.pos >= lim {
		return 0, nil, io.EOF
	}
	prefix := s.data[s.pos]

	switch {
	case prefix <= 0x7f:
		payload = s.data[s.pos : s.pos+1]
		s.pos++
		return Byte, payload, nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		if size == 1 && s.data[start] <= 0x7f {
			return 0, nil, ErrCanonSize
		}
		s.pos = end
		return String, s.data[start:end], nil

	case prefix <= 0xbf:
		lenOfLen := int(prefix - 0xb7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, nil, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, ErrCanonSize
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		s.pos = end
		return String, s.data[start:end], nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		s.pos = end
		return List, s.data[start:end], nil

	default:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, nil, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, ErrElemTooLarge
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		s.pos = end
		return List, s.data[start:end], nil
	}
}

// Bytes reads an RLP string (or single byte) value.
func (s *Stream) Bytes() ([]byte, error) {
	kind, payload, err := s.readItem()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	return payload, nil
}

// List enters the list at the current position, returning the byte length of
// its payload. Pair every List call with a matching ListEnd.
func (s *Stream) List() (size uint64, err error) {
	lim := s.limit()
	if s.pos >= lim {
		return 0, io.EOF
	}
	prefix := s.data[s.pos]

	var start, end int
	switch {
	case prefix >= 0xc0 && prefix <= 0xf7:
		n := int(prefix - 0xc0)
		start = s.pos + 1
		end = start + n
	case prefix > 0xf7:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > lim {
			return 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, ErrCanonInt
		}
		n := int(readBigEndian(sizeBytes))
		if n <= 55 {
			return 0, ErrElemTooLarge
		}
		start = s.pos + 1 + lenOfLen
		end = start + n
	default:
		return 0, ErrExpectedList
	}
	if end > lim {
		return 0, io.ErrUnexpectedEOF
	}
	s.stack = append(s.stack, listFrame{end: end})
	s.pos = start
	return uint64(end - start), nil
}

// ListEnd closes the list scope opened by the matching List call, failing if
// unread items remain.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return ErrExpectedList
	}
	top := s.stack[len(s.stack)-1]
	if s.pos != top.end {
		return ErrEOL
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Uint64 reads an RLP-encoded unsigned integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > 8 {
		return 0, ErrUint64Range
	}
	if len(b) > 1 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	return readBigEndian(b), nil
}

// Uint256 reads an RLP-encoded 256-bit unsigned integer.
func (s *Stream) Uint256() (*uint256.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(uint256.Int).SetBytes(b), nil
}

// Decode reads a single RLP-encoded value from the stream's current
// position into the value pointed to by val, the same reflective decoder
// DecodeBytes uses, exposed for Decoder implementations that shadow their
// type into a plain struct (see trace.Owned.DecodeRLP).
func (s *Stream) Decode(val interface{}) error {
	return s.decodeValue(reflect.ValueOf(val))
}

func readBigEndian(b []byte) uint64 {
	var val uint64
	for _, x := range b {
		val = (val << 8) | uint64(x)
	}
	return val
}

func (s *Stream) decodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrExpectedString
	}
	return s.decodeInto(v.Elem())
}

func (s *Stream) decodeInto(v reflect.Value) error {
	if v.CanAddr() {
		if dec, ok := v.Addr().Interface().(Decoder); ok {
			return dec.DecodeRLP(s)
		}
	}

	if v.Type() == reflect.TypeOf(uint256.Int{}) {
		u, err := s.Uint256()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(*u))
		return nil
	}

	if v.Kind() == reflect.Ptr {
		// encodeValue writes the empty-string marker for any nil pointer
		// (encode.go's Ptr/Interface loop), so a bare 0x80 here means the
		// field was nil at encode time: consume the marker and leave the
		// pointer nil rather than recursing into decodeStruct/decodeList,
		// which expect a list header and would fail on it.
		if s.peekIsEmptyString() {
			if _, err := s.Bytes(); err != nil {
				return err
			}
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		if v.Type() == reflect.TypeOf((*uint256.Int)(nil)) {
			u, err := s.Uint256()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(u))
			return nil
		}
		return s.decodeInto(v.Elem())
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		switch {
		case len(b) == 0:
			v.SetBool(false)
		case len(b) == 1 && b[0] == 0x01:
			v.SetBool(true)
		case len(b) == 1 && b[0] == 0x00:
			v.SetBool(false)
		default:
			return ErrCanonInt
		}
		return nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(u)
		return nil

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetInt(int64(u))
		return nil

	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(bytes.Clone(b))
			return nil
		}
		return s.decodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			for i := 0; i < v.Len() && i < len(b); i++ {
				v.Index(i).SetUint(uint64(b[i]))
			}
			return nil
		}
		return s.decodeList(v)

	case reflect.Struct:
		return s.decodeStruct(v)

	default:
		return ErrExpectedString
	}
}

func (s *Stream) decodeList(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	isSlice := v.Kind() == reflect.Slice
	i := 0
	for s.MoreDataInList() {
		if isSlice && i >= v.Len() {
			v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
		}
		if i < v.Len() {
			if err := s.decodeInto(v.Index(i)); err != nil {
				return err
			}
		}
		i++
	}
	return s.ListEnd()
}

func (s *Stream) decodeStruct(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if err := s.decodeInto(v.Field(i)); err != nil {
			return err
		}
	}
	return s.ListEnd()
}
