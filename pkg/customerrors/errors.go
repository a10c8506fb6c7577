// Package customerrors defines the sentinel errors shared by the storage
// packages. Callers wrap them with context and match with errors.Is.
package customerrors

import (
	"errors"
)

var (
	// ErrKeyTooLarge is returned by index implementations when a key is
	// wider than the key width the index was created with.
	ErrKeyTooLarge = errors.New("key is too large")

	// ErrFreeListExhausted is returned when the free-row stack embedded in
	// the header page cannot take another entry.
	ErrFreeListExhausted = errors.New("free-list page exhausted")

	// ErrNodeOverflow is returned when a B+ tree node cannot be laid out
	// inside a single page.
	ErrNodeOverflow = errors.New("index node overflow unrecoverable")

	// ErrSchemaMismatch is returned when a column schema is inconsistent.
	// Nothing is written when it is returned.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCorruptFile is returned when an on-disk file does not match the
	// layout it is expected to hold.
	ErrCorruptFile = errors.New("corrupt file")

	ErrTypeMismatch  = errors.New("value does not match column type")
	ErrRowOutOfRange = errors.New("row location out of range")
	ErrNotIndexed    = errors.New("column is not indexed")
	ErrClosed        = errors.New("already closed")
)
