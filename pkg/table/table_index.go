package table

import (
	"go-rowdb/pkg/bptree"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/util/helpers"

	"github.com/pkg/errors"
)

// SetIndexed marks whether the named column is indexed. The index file is
// opened by CreateIndex.
func (t *Table) SetIndexed(name string, on bool) error {
	i, err := t.column(name)
	if err != nil {
		return err
	}
	if !on && t.trees[i] != nil {
		return errors.Errorf("column '%s' has an open index", name)
	}
	t.indexed[i] = on
	return nil
}

// IsIndexed reports whether the named column is marked as indexed.
func (t *Table) IsIndexed(name string) bool {
	i, ok := t.columnIndex[name]
	return ok && t.indexed[i]
}

// CreateIndex opens or creates fileName as the index of the named column.
// It does nothing for columns not marked by SetIndexed. A new, empty index
// on a table that already holds rows is filled from the live rows.
func (t *Table) CreateIndex(name, fileName string) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	i, err := t.column(name)
	if err != nil {
		return err
	}
	if !t.indexed[i] || t.trees[i] != nil {
		return nil
	}

	tree, err := openIndex(t.typs[i], t.sizes[i], fileName, &bptree.Options{
		Degree:        t.opts.IndexDegree,
		NodeCacheSize: t.opts.NodeCacheSize,
		FileMode:      t.opts.FileMode,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create index on '%s'", name)
	}

	if tree.Len() == 0 && t.numRows > uint32(t.stackPtr) {
		if err := t.backfill(i, tree); err != nil {
			_ = tree.Close()
			return err
		}
	}

	t.trees[i] = tree
	t.tableIsIndexed = true
	if t.anyIndex < 0 {
		t.anyIndex = i
	}
	t.pk = helpers.Max(t.pk, tree.Counter())
	t.log.Infof("index on '%s' ready: %d entries, degree %d", name, tree.Len(), tree.Degree())
	return nil
}

// backfill inserts every live row of column i into tree, under fresh pks.
func (t *Table) backfill(i int, tree Index) error {
	for c := t.StartLive(); !c.EndOfTable(); c.Advance() {
		values, err := c.Value()
		if err != nil {
			return err
		}
		t.pk++
		if err := tree.Insert(values[i], t.pk, c.Row()); err != nil {
			return errors.Wrapf(err, "failed to index row %d on '%s'", c.Row(), t.names[i])
		}
	}
	return nil
}

// InsertBTree adds (value, pk, loc) to the index of every indexed column,
// under one pk drawn for the row. Every index is checked before any is
// changed; if an insert still fails, the entries already added for this
// row are removed again.
func (t *Table) InsertBTree(values []any, loc uint32) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if !t.tableIsIndexed {
		return nil
	}
	if len(values) != len(t.names) {
		return errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"%d values for %d columns", len(values), len(t.names),
		)
	}
	if err := t.canInsertBTree(values); err != nil {
		return err
	}

	pk := t.pk + 1
	done := make([]int, 0, len(t.trees))
	for i, tree := range t.trees {
		if tree == nil {
			continue
		}
		if err := tree.Insert(values[i], pk, loc); err != nil {
			t.rollbackBTree(values, loc, done)
			return errors.Wrapf(err, "failed to index row %d on '%s'", loc, t.names[i])
		}
		done = append(done, i)
	}

	t.pk = pk
	return nil
}

func (t *Table) canInsertBTree(values []any) error {
	for i, tree := range t.trees {
		if tree == nil {
			continue
		}
		if err := tree.CanInsert(values[i]); err != nil {
			return errors.Wrapf(err, "column '%s'", t.names[i])
		}
	}
	return nil
}

func (t *Table) rollbackBTree(values []any, loc uint32, done []int) {
	for _, i := range done {
		if _, err := t.trees[i].Delete(values[i], loc); err != nil {
			t.log.WithError(err).Errorf("rollback of row %d on '%s' failed", loc, t.names[i])
		}
	}
}

// Index returns the open index of the named column.
func (t *Table) Index(name string) (Index, error) {
	i, err := t.column(name)
	if err != nil {
		return nil, err
	}
	if t.trees[i] == nil {
		return nil, errors.Wrapf(customerrors.ErrNotIndexed, "column '%s'", name)
	}
	return t.trees[i], nil
}

// AnyIndex returns the name of the first indexed column, if any.
func (t *Table) AnyIndex() (string, bool) {
	if t.anyIndex < 0 {
		return "", false
	}
	return t.names[t.anyIndex], true
}

// Lookup returns the rows whose column equals value, in pk order.
func (t *Table) Lookup(name string, value any) ([]Row, error) {
	rows := []Row{}
	err := t.Range(name, value, value, func(r Row) (bool, error) {
		rows = append(rows, r)
		return false, nil
	})
	return rows, err
}

// Range calls fn for every row with lo <= column <= hi, in column order. A
// nil bound is open. fn returning true stops the scan.
func (t *Table) Range(name string, lo, hi any, fn func(Row) (bool, error)) error {
	ix, err := t.Index(name)
	if err != nil {
		return err
	}
	return ix.Range(lo, hi, func(h Hit) (bool, error) {
		values, err := t.ReadRow(h.Loc)
		if err != nil {
			return true, err
		}
		return fn(Row{Loc: h.Loc, Values: values})
	})
}

func (t *Table) column(name string) (int, error) {
	i, ok := t.columnIndex[name]
	if !ok {
		return 0, errors.Wrapf(customerrors.ErrSchemaMismatch, "no column '%s' in '%s'", name, t.name)
	}
	return i, nil
}
