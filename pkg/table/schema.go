package table

import (
	"go-rowdb/pkg/column"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

// CreateColumns sets the schema of a new table. Nothing is written until
// StoreMetadata.
func (t *Table) CreateColumns(names []string, typs []types.TypeCode, sizes []uint32) error {
	if err := validateSchema(names, typs, sizes); err != nil {
		t.log.WithError(err).Error("rejected schema")
		return err
	}

	t.names = append([]string{}, names...)
	t.typs = append([]types.TypeCode{}, typs...)
	t.sizes = append([]uint32{}, sizes...)
	t.rebuildColumnIndex()
	return nil
}

// StoreMetadata writes the schema, row count and free-row stack pointer
// into the header page and flushes it right away, so a new table's schema
// is on disk before any row is.
func (t *Table) StoreMetadata() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if err := validateSchema(t.names, t.typs, t.sizes); err != nil {
		t.log.WithError(err).Error("metadata not written")
		return err
	}

	layout := newHeaderLayout(len(t.names))
	geo, err := newGeometry(rowSize(t.sizes))
	if err != nil {
		return err
	}

	err = layout.marshal(&metadata{
		numRows:  t.numRows,
		names:    t.names,
		sizes:    t.sizes,
		types:    t.typs,
		stackPtr: t.stackPtr,
	}, t.pager.Header())
	if err != nil {
		t.log.WithError(err).Error("metadata not written")
		return err
	}

	if err := t.pager.Flush(pager.HeaderPage); err != nil {
		return errors.Wrap(err, "failed to flush metadata")
	}

	t.layout = layout
	t.applyGeometry(geo)
	t.log.Debugf("stored metadata for %d columns, row size %d", len(t.names), geo.RowSize)
	return nil
}

// LoadMetadata reads the schema back from the header page.
func (t *Table) LoadMetadata() error {
	if err := t.checkOpen(); err != nil {
		return err
	}

	m, layout, err := unmarshalHeader(t.pager.Header())
	if err != nil {
		return errors.Wrapf(err, "failed to load metadata of '%s'", t.name)
	}
	if err := validateSchema(m.names, m.types, m.sizes); err != nil {
		return errors.Wrapf(customerrors.ErrCorruptFile, "stored schema of '%s': %v", t.name, err)
	}

	geo, err := newGeometry(rowSize(m.sizes))
	if err != nil {
		return errors.Wrapf(customerrors.ErrCorruptFile, "stored schema of '%s': %v", t.name, err)
	}

	t.names, t.typs, t.sizes = m.names, m.types, m.sizes
	t.numRows = m.numRows
	t.stackPtr = m.stackPtr
	t.layout = layout
	t.rebuildColumnIndex()
	t.applyGeometry(geo)
	t.log.Debugf("loaded metadata: %d columns, %d rows, %d free", len(t.names), t.numRows, t.stackPtr)
	return nil
}

func (t *Table) rebuildColumnIndex() {
	t.columnIndex = make(map[string]int, len(t.names))
	for i, name := range t.names {
		t.columnIndex[name] = i
	}
}

// applyGeometry derives row geometry and column offsets and resets the
// index slots, one per column.
func (t *Table) applyGeometry(geo Geometry) {
	t.geo = geo
	t.offsets = make([]uint32, len(t.sizes))
	offset := uint32(0)
	for i, size := range t.sizes {
		t.offsets[i] = offset
		offset += size
	}

	t.indexed = make([]bool, len(t.names))
	t.trees = make([]Index, len(t.names))
	t.tableIsIndexed = false
	t.anyIndex = -1
}

func rowSize(sizes []uint32) uint32 {
	sum := uint64(0)
	for _, s := range sizes {
		sum += uint64(s)
	}
	if sum > pager.PageSize {
		return pager.PageSize + 1
	}
	return uint32(sum)
}

func validateSchema(names []string, typs []types.TypeCode, sizes []uint32) error {
	if len(names) != len(typs) || len(names) != len(sizes) {
		return errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"%d names, %d types, %d sizes", len(names), len(typs), len(sizes),
		)
	}
	if len(names) == 0 {
		return errors.Wrap(customerrors.ErrSchemaMismatch, "no columns")
	}

	seen := make(map[string]struct{}, len(names))
	for i := range names {
		if err := column.Sized(names[i], typs[i], sizes[i]).Validate(); err != nil {
			return err
		}
		if _, ok := seen[names[i]]; ok {
			return errors.Wrapf(customerrors.ErrSchemaMismatch, "duplicate column '%s'", names[i])
		}
		seen[names[i]] = struct{}{}
	}

	if l := newHeaderLayout(len(names)); l.stackBase > pager.PageSize {
		return errors.Wrapf(customerrors.ErrSchemaMismatch, "%d columns do not fit the header page", len(names))
	}
	if _, err := newGeometry(rowSize(sizes)); err != nil {
		return err
	}
	return nil
}
