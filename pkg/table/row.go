package table

import (
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

// Row is a decoded row and the location it was read from.
type Row struct {
	Loc    uint32
	Values []any
}

// WriteRow encodes values into slot loc. loc may be numRows, the slot
// right past the extent; the extent itself is not changed.
func (t *Table) WriteRow(loc uint32, values []any) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if loc > t.numRows {
		return errors.Wrapf(customerrors.ErrRowOutOfRange, "write row %d of %d", loc, t.numRows)
	}

	_, buf, err := t.encodeRow(values)
	if err != nil {
		return err
	}
	return t.writeSlot(loc, buf)
}

// ReadRow decodes the row in slot loc. Free slots read as zero values.
func (t *Table) ReadRow(loc uint32) ([]any, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if loc >= t.numRows {
		return nil, errors.Wrapf(customerrors.ErrRowOutOfRange, "read row %d of %d", loc, t.numRows)
	}

	page, err := t.pager.Get(t.geo.PagerIndex(loc))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read row %d", loc)
	}

	base := int(t.geo.Offset(loc))
	values := make([]any, len(t.typs))
	for i, typ := range t.typs {
		at := base + int(t.offsets[i])
		values[i] = types.Decode(typ, page.Data[at:at+int(t.sizes[i])])
	}
	return values, nil
}

// Insert stores a row in the most recently freed slot, or appends it, and
// adds it to every index. Nothing is changed when any value or index
// rejects the row.
func (t *Table) Insert(values []any) (uint32, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}

	coerced, buf, err := t.encodeRow(values)
	if err != nil {
		return 0, err
	}
	if err := t.canInsertBTree(coerced); err != nil {
		return 0, err
	}

	loc := t.NextFreeRowLocation()
	appended := loc == t.numRows

	err = t.writeSlot(loc, buf)
	if err == nil {
		err = t.InsertBTree(coerced, loc)
	}
	if err != nil {
		t.releaseSlot(loc, appended)
		return 0, err
	}

	// a reused slot is already inside the extent
	if appended {
		t.IncreaseRowCount()
	}
	return loc, nil
}

// releaseSlot undoes the allocation of loc after a failed insert.
func (t *Table) releaseSlot(loc uint32, appended bool) {
	_ = t.writeSlot(loc, make([]byte, t.geo.RowSize))
	if appended {
		return
	}
	if err := t.AddFreeRowLocation(loc); err != nil {
		t.log.WithError(err).Errorf("row %d lost from the free-row stack", loc)
	}
}

// Delete removes the row at loc from every index, zeroes its slot and
// pushes loc onto the free-row stack.
func (t *Table) Delete(loc uint32) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if loc >= t.numRows {
		return errors.Wrapf(customerrors.ErrRowOutOfRange, "delete row %d of %d", loc, t.numRows)
	}
	if t.IsFree(loc) {
		return errors.Wrapf(customerrors.ErrRowOutOfRange, "row %d is already free", loc)
	}
	if int(t.stackPtr) >= t.layout.stackCapacity() {
		t.log.Warnf("free-row stack full, row %d not deleted", loc)
		return errors.Wrapf(customerrors.ErrFreeListExhausted, "table '%s'", t.name)
	}

	values, err := t.ReadRow(loc)
	if err != nil {
		return err
	}
	for i, tree := range t.trees {
		if tree == nil {
			continue
		}
		if _, err := tree.Delete(values[i], loc); err != nil {
			return errors.Wrapf(err, "failed to unindex row %d on '%s'", loc, t.names[i])
		}
	}

	if err := t.writeSlot(loc, make([]byte, t.geo.RowSize)); err != nil {
		return err
	}
	return t.AddFreeRowLocation(loc)
}

// encodeRow coerces values to the column types and lays them out as one
// row. Nothing is written.
func (t *Table) encodeRow(values []any) ([]any, []byte, error) {
	if len(values) != len(t.typs) {
		return nil, nil, errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"%d values for %d columns", len(values), len(t.typs),
		)
	}

	coerced := make([]any, len(values))
	buf := make([]byte, t.geo.RowSize)
	for i, v := range values {
		c, err := types.Coerce(t.typs[i], v)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "column '%s'", t.names[i])
		}
		at := t.offsets[i]
		if err := types.Encode(t.typs[i], c, buf[at:at+t.sizes[i]]); err != nil {
			return nil, nil, errors.Wrapf(err, "column '%s'", t.names[i])
		}
		coerced[i] = c
	}
	return coerced, buf, nil
}

func (t *Table) writeSlot(loc uint32, buf []byte) error {
	page, err := t.pager.Get(t.geo.PagerIndex(loc))
	if err != nil {
		return errors.Wrapf(err, "failed to write row %d", loc)
	}
	page.Write(int(t.geo.Offset(loc)), buf)
	return nil
}
