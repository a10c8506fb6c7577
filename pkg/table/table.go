// Package table stores fixed-schema rows in a paged file. Page 0 of the
// file is the header page: it holds the schema, the row count and a stack
// of reclaimed row locations. Rows are packed back to back in the pages
// after it and never straddle a page boundary.
//
// A Table is not safe for concurrent use.
package table

import (
	"fmt"

	"go-rowdb/pkg/column"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"
	"go-rowdb/util/helpers"
	"go-rowdb/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// dataPageBase is the first page holding rows.
const dataPageBase = pager.HeaderPage + 1

type Table struct {
	name  string
	opts  *Options
	pager *pager.Pager
	log   *logrus.Entry

	// schema
	names       []string
	typs        []types.TypeCode
	sizes       []uint32
	columnIndex map[string]int
	offsets     []uint32

	layout headerLayout
	geo    Geometry

	numRows  uint32
	stackPtr int32

	indexed        []bool
	trees          []Index
	tableIsIndexed bool
	anyIndex       int
	pk             uint64
}

// Open opens the table file. The schema is unknown until CreateColumns and
// StoreMetadata, or LoadMetadata, are called.
func Open(name, fileName string, opts *Options) (*Table, error) {
	if opts == nil {
		opts = &DefaultOptions
	}

	mode := opts.FileMode
	if mode == 0 {
		mode = DefaultOptions.FileMode
	}

	p, err := pager.Open(fileName, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open table '%s'", name)
	}

	return &Table{
		name:     name,
		opts:     opts,
		pager:    p,
		log:      logger.For("table").WithField("table", name),
		anyIndex: -1,
	}, nil
}

// Create opens a new table file and stores the schema given by columns. A
// file created by a failed Create is removed again.
// Columns flagged Indexed are marked, but their index files are created by
// CreateIndex.
func Create(name, fileName string, columns []*column.Column, opts *Options) (*Table, error) {
	existed := helpers.FileExists(fileName)
	t, err := Open(name, fileName, opts)
	if err != nil {
		return nil, err
	}

	names, typs, sizes := column.Split(columns)
	if err = t.CreateColumns(names, typs, sizes); err == nil {
		err = t.StoreMetadata()
	}
	if err != nil {
		_ = t.pager.Close()
		if !existed {
			if rmErr := helpers.RemoveIfExists(fileName); rmErr != nil {
				t.log.WithError(rmErr).Warnf("failed to remove '%s'", fileName)
			}
		}
		return nil, err
	}

	for i, c := range columns {
		t.indexed[i] = c.Indexed
	}
	return t, nil
}

// Load opens an existing table file and reads its schema.
func Load(name, fileName string, opts *Options) (*Table, error) {
	t, err := Open(name, fileName, opts)
	if err != nil {
		return nil, err
	}

	if err := t.LoadMetadata(); err != nil {
		_ = t.pager.Close()
		return nil, err
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

// NumRows returns the extent of assigned row locations. Deleted rows still
// count; see FreeSlots.
func (t *Table) NumRows() uint32 { return t.numRows }

func (t *Table) Geometry() Geometry { return t.geo }

func (t *Table) Columns() []*column.Column {
	cols := make([]*column.Column, len(t.names))
	for i := range t.names {
		cols[i] = column.Sized(t.names[i], t.typs[i], t.sizes[i])
		cols[i].Indexed = t.indexed[i]
	}
	return cols
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.columnIndex[name]
	return i, ok
}

func (t *Table) String() string {
	return fmt.Sprintf(
		"Table{name='%s', columns=%d, rows=%d, free=%d, rowSize=%d}",
		t.name, len(t.names), t.numRows, t.stackPtr, t.geo.RowSize,
	)
}

// Flush writes every dirty row page, the header page and all indexes.
func (t *Table) Flush() error {
	if t.pager == nil {
		return customerrors.ErrClosed
	}
	for _, tree := range t.trees {
		if tree != nil {
			if err := tree.Flush(); err != nil {
				return err
			}
		}
	}
	return t.pager.FlushAll()
}

// Close closes every index, flushes the header page followed by every dirty
// row page and releases the file. All resources are released even when a
// step fails; the first error is returned.
func (t *Table) Close() error {
	if t.pager == nil {
		return nil
	}

	var err error
	for i, tree := range t.trees {
		if tree == nil {
			continue
		}
		if cerr := tree.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close index on '%s'", t.names[i])
		}
	}

	if cerr := t.pager.Close(); cerr != nil && err == nil {
		err = cerr
	}
	t.pager = nil
	t.log.Debug("closed")
	return err
}

func (t *Table) checkOpen() error {
	if t.pager == nil {
		return errors.Wrapf(customerrors.ErrClosed, "table '%s'", t.name)
	}
	return nil
}
