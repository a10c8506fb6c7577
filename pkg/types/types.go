// Package types describes the closed set of column types a table can hold
// and how their values are laid out on disk.
package types

import (
	"encoding/binary"
	"fmt"

	"go-rowdb/pkg/customerrors"

	"github.com/pkg/errors"
)

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

type TypeCode int32

// Values are persisted as int32 tags in the table header; do not reorder.
const (
	TYPE_INT    TypeCode = iota // 4 byte signed integer
	TYPE_FLOAT                  // 4 byte IEEE-754 float
	TYPE_CHAR                   // single byte
	TYPE_BOOL                   // single byte, 0 or 1
	TYPE_STRING                 // zero padded, up to the declared size
)

type descriptor struct {
	name string
	// fixedSize is the on-disk width, 0 for types sized by the column.
	fixedSize int

	coerce  func(v interface{}) (interface{}, error)
	encode  func(v interface{}, dst []byte)
	decode  func(src []byte) interface{}
	compare func(a, b interface{}) int
}

var typesMap = map[TypeCode]descriptor{}

func lookup(code TypeCode) descriptor {
	d, ok := typesMap[code]
	if !ok {
		panic(fmt.Errorf("invalid type code => %d", code))
	}
	return d
}

func (c TypeCode) Valid() bool {
	_, ok := typesMap[c]
	return ok
}

func (c TypeCode) String() string {
	if d, ok := typesMap[c]; ok {
		return d.name
	}
	return fmt.Sprintf("TypeCode(%d)", int32(c))
}

// FixedSize returns the width of fixed size types and false for types whose
// width is declared per column.
func (c TypeCode) FixedSize() (int, bool) {
	d := lookup(c)
	return d.fixedSize, d.fixedSize != 0
}

// ValidateSize checks a declared column width against the type.
func (c TypeCode) ValidateSize(size uint32) error {
	d, ok := typesMap[c]
	if !ok {
		return errors.Wrapf(customerrors.ErrSchemaMismatch, "unknown type code %d", int32(c))
	}
	if d.fixedSize != 0 && int(size) != d.fixedSize {
		return errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"%s must be %d bytes wide, got %d", d.name, d.fixedSize, size,
		)
	}
	if size == 0 {
		return errors.Wrapf(customerrors.ErrSchemaMismatch, "%s with zero width", d.name)
	}
	return nil
}

// Coerce converts v to the canonical Go type of code: int32, float32, byte,
// bool or string.
func Coerce(code TypeCode, v interface{}) (interface{}, error) {
	return lookup(code).coerce(v)
}

// Encode writes v, already coerced, into dst. dst must be exactly as wide
// as the column.
func Encode(code TypeCode, v interface{}, dst []byte) error {
	if code == TYPE_STRING && len(v.(string)) > len(dst) {
		return errors.Wrapf(
			customerrors.ErrTypeMismatch,
			"string of %d bytes exceeds column width %d", len(v.(string)), len(dst),
		)
	}
	lookup(code).encode(v, dst)
	return nil
}

func Decode(code TypeCode, src []byte) interface{} {
	return lookup(code).decode(src)
}

// Compare orders two coerced values of the same type.
func Compare(code TypeCode, a, b interface{}) int {
	return lookup(code).compare(a, b)
}

func mismatch(code TypeCode, v interface{}) error {
	return errors.Wrapf(customerrors.ErrTypeMismatch, "%T(%v) is not %s", v, v, code)
}
