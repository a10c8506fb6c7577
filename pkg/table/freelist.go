package table

import (
	"go-rowdb/pkg/customerrors"

	"github.com/pkg/errors"
)

// NextFreeRowLocation returns the slot the next row goes to: the most
// recently freed location, or numRows when nothing is free. Popping
// persists the new stack pointer into the header page.
func (t *Table) NextFreeRowLocation() uint32 {
	if t.stackPtr == 0 {
		return t.numRows
	}

	header := t.pager.Header()
	t.stackPtr--
	loc := header.Uint32(t.layout.stackEntry(t.stackPtr))
	header.PutInt32(t.layout.offsets[fieldStackPtr], t.stackPtr)
	t.log.Debugf("reusing row %d, %d free left", loc, t.stackPtr)
	return loc
}

// AddFreeRowLocation pushes loc onto the free-row stack. Nothing is
// written when the header page has no room for another entry.
func (t *Table) AddFreeRowLocation(loc uint32) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if loc >= t.numRows {
		return errors.Wrapf(customerrors.ErrRowOutOfRange, "row %d of %d", loc, t.numRows)
	}
	if int(t.stackPtr) >= t.layout.stackCapacity() {
		t.log.Warnf("free-row stack full at %d entries, row %d not reclaimed", t.stackPtr, loc)
		return errors.Wrapf(customerrors.ErrFreeListExhausted, "table '%s'", t.name)
	}

	header := t.pager.Header()
	header.PutUint32(t.layout.stackEntry(t.stackPtr), loc)
	t.stackPtr++
	header.PutInt32(t.layout.offsets[fieldStackPtr], t.stackPtr)
	t.log.Debugf("freed row %d, %d free", loc, t.stackPtr)
	return nil
}

// IncreaseRowCount grows the row extent by one. Callers only invoke it
// when NextFreeRowLocation handed out numRows itself, so numRows stays the
// highest assigned location plus one. Inserts into reused slots
// deliberately leave it unchanged; counting them as well would let numRows
// run past slots that were never written (DESIGN.md, numRows semantics).
func (t *Table) IncreaseRowCount() {
	t.numRows++
	t.pager.Header().PutUint32(t.layout.offsets[fieldNumRows], t.numRows)
}

// FreeSlots returns the free-row stack from bottom to top.
func (t *Table) FreeSlots() []uint32 {
	if t.pager == nil {
		return nil
	}
	header := t.pager.Header()
	slots := make([]uint32, t.stackPtr)
	for i := range slots {
		slots[i] = header.Uint32(t.layout.stackEntry(int32(i)))
	}
	return slots
}

// FreeCapacity is the number of free-row entries the header page can hold.
func (t *Table) FreeCapacity() int {
	return t.layout.stackCapacity()
}

// IsFree reports whether loc is on the free-row stack.
func (t *Table) IsFree(loc uint32) bool {
	if t.pager == nil {
		return false
	}
	header := t.pager.Header()
	for i := int32(0); i < t.stackPtr; i++ {
		if header.Uint32(t.layout.stackEntry(i)) == loc {
			return true
		}
	}
	return false
}
