package table

import (
	"os"
	"path/filepath"
	"testing"

	"go-rowdb/pkg/column"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"

	"github.com/stretchr/testify/require"
)

func people() []*column.Column {
	return []*column.Column{
		column.New("id", types.TYPE_INT),
		column.Sized("name", types.TYPE_STRING, 20),
	}
}

func createPeople(t *testing.T, dir string) *Table {
	t.Helper()
	tbl, err := Create("people", filepath.Join(dir, "people.tbl"), people(), nil)
	require.NoError(t, err)
	return tbl
}

func TestCreateStoresSchema(t *testing.T) {
	dir := t.TempDir()
	tbl := createPeople(t, dir)
	defer tbl.Close()

	require.Equal(t, "people", tbl.Name())
	require.Equal(t, uint32(0), tbl.NumRows())
	require.Equal(t, Geometry{RowSize: 24, RowsPerPage: pager.PageSize / 24}, tbl.Geometry())

	i, ok := tbl.ColumnIndex("name")
	require.True(t, ok)
	require.Equal(t, 1, i)
	_, ok = tbl.ColumnIndex("age")
	require.False(t, ok)

	fi, err := os.Stat(filepath.Join(dir, "people.tbl"))
	require.NoError(t, err)
	require.Equal(t, int64(pager.PageSize), fi.Size())
}

func TestCreateRejectsBadSchema(t *testing.T) {
	cases := map[string][]*column.Column{
		"empty":     {},
		"duplicate": {column.New("id", types.TYPE_INT), column.New("id", types.TYPE_BOOL)},
		"bad size":  {column.Sized("id", types.TYPE_INT, 8)},
		"zero size": {column.Sized("s", types.TYPE_STRING, 0)},
		"long name": {column.New("a_column_name_well_past_32_bytes_long", types.TYPE_INT)},
		"row size":  {column.Sized("blob", types.TYPE_STRING, pager.PageSize+1)},
	}

	for name, columns := range cases {
		t.Run(name, func(t *testing.T) {
			fileName := filepath.Join(t.TempDir(), "bad.tbl")
			_, err := Create("bad", fileName, columns, nil)
			require.ErrorIs(t, err, customerrors.ErrSchemaMismatch)
			require.NoFileExists(t, fileName)
		})
	}
}

func TestFailedCreateKeepsExistingFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "kept.tbl")
	require.NoError(t, os.WriteFile(fileName, make([]byte, pager.PageSize), 0644))

	_, err := Create("kept", fileName, []*column.Column{}, nil)
	require.ErrorIs(t, err, customerrors.ErrSchemaMismatch)

	fi, err := os.Stat(fileName)
	require.NoError(t, err)
	require.Equal(t, int64(pager.PageSize), fi.Size())
}

func TestCreateColumnsLengthMismatch(t *testing.T) {
	tbl, err := Open("t", filepath.Join(t.TempDir(), "t.tbl"), nil)
	require.NoError(t, err)
	defer tbl.Close()

	err = tbl.CreateColumns([]string{"a", "b"}, []types.TypeCode{types.TYPE_INT}, []uint32{4, 4})
	require.ErrorIs(t, err, customerrors.ErrSchemaMismatch)
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := createPeople(t, dir)
	for i := 0; i < 5; i++ {
		_, err := tbl.Insert([]any{i, "person"})
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Delete(3))
	require.NoError(t, tbl.Delete(1))
	require.NoError(t, tbl.Close())

	loaded, err := Load("people", filepath.Join(dir, "people.tbl"), nil)
	require.NoError(t, err)
	defer loaded.Close()

	require.Equal(t, uint32(5), loaded.NumRows())
	require.Equal(t, []uint32{3, 1}, loaded.FreeSlots())
	require.Equal(t, tbl.Geometry(), loaded.Geometry())

	cols := loaded.Columns()
	require.Len(t, cols, 2)
	require.Equal(t, "id INT(4)", cols[0].String())
	require.Equal(t, "name STRING(20)", cols[1].String())

	row, err := loaded.ReadRow(4)
	require.NoError(t, err)
	require.Equal(t, []any{int32(4), "person"}, row)
}

func TestLoadCorruptHeader(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "corrupt.tbl")

	page := make([]byte, pager.PageSize)
	page[4] = 0xff
	page[5] = 0xff
	page[6] = 0xff
	page[7] = 0x7f
	require.NoError(t, os.WriteFile(fileName, page, 0644))

	_, err := Load("corrupt", fileName, nil)
	require.ErrorIs(t, err, customerrors.ErrCorruptFile)
}

func TestLoadUnknownType(t *testing.T) {
	dir := t.TempDir()
	tbl := createPeople(t, dir)
	require.NoError(t, tbl.Close())

	fileName := filepath.Join(dir, "people.tbl")
	data, err := os.ReadFile(fileName)
	require.NoError(t, err)

	// type tag of column 0 sits after numRows, count, 2 names and 2 sizes
	at := 4 + 4 + 2*column.MaxNameSize + 2*4
	data[at] = 42
	require.NoError(t, os.WriteFile(fileName, data, 0644))

	_, err = Load("people", fileName, nil)
	require.ErrorIs(t, err, customerrors.ErrCorruptFile)
}

func TestRowGeometry(t *testing.T) {
	geo, err := newGeometry(24)
	require.NoError(t, err)
	require.Equal(t, uint32(170), geo.RowsPerPage)

	require.Equal(t, uint32(0), geo.Page(169))
	require.Equal(t, uint32(169*24), geo.Offset(169))
	require.Equal(t, uint32(1), geo.Page(170))
	require.Equal(t, uint32(0), geo.Offset(170))
	require.Equal(t, uint32(24), geo.Offset(171))
	require.Equal(t, uint32(2), geo.PagerIndex(170))

	for _, loc := range []uint32{0, 1, 169, 170, 1000} {
		require.LessOrEqual(t, geo.Offset(loc)+geo.RowSize, uint32(pager.PageSize))
	}

	_, err = newGeometry(0)
	require.ErrorIs(t, err, customerrors.ErrSchemaMismatch)
	_, err = newGeometry(pager.PageSize + 1)
	require.ErrorIs(t, err, customerrors.ErrSchemaMismatch)

	geo, err = newGeometry(pager.PageSize)
	require.NoError(t, err)
	require.Equal(t, uint32(1), geo.RowsPerPage)
}

func TestRowsSpanPages(t *testing.T) {
	dir := t.TempDir()
	tbl := createPeople(t, dir)

	n := int(tbl.Geometry().RowsPerPage)*2 + 7
	for i := 0; i < n; i++ {
		loc, err := tbl.Insert([]any{i, "p"})
		require.NoError(t, err)
		require.Equal(t, uint32(i), loc)
	}
	require.NoError(t, tbl.Close())

	fi, err := os.Stat(filepath.Join(dir, "people.tbl"))
	require.NoError(t, err)
	require.Equal(t, int64(4*pager.PageSize), fi.Size())

	tbl, err = Load("people", filepath.Join(dir, "people.tbl"), nil)
	require.NoError(t, err)
	defer tbl.Close()

	for i := 0; i < n; i++ {
		row, err := tbl.ReadRow(uint32(i))
		require.NoError(t, err)
		require.Equal(t, int32(i), row[0])
	}
}

func TestWriteAndReadRow(t *testing.T) {
	tbl := createPeople(t, t.TempDir())
	defer tbl.Close()

	require.NoError(t, tbl.WriteRow(0, []any{7, "seven"}))
	_, err := tbl.ReadRow(0)
	require.ErrorIs(t, err, customerrors.ErrRowOutOfRange)

	tbl.IncreaseRowCount()
	row, err := tbl.ReadRow(0)
	require.NoError(t, err)
	require.Equal(t, []any{int32(7), "seven"}, row)

	require.ErrorIs(t, tbl.WriteRow(5, []any{1, "x"}), customerrors.ErrRowOutOfRange)
	require.ErrorIs(t, tbl.WriteRow(0, []any{1}), customerrors.ErrSchemaMismatch)
	require.ErrorIs(t, tbl.WriteRow(0, []any{"x", "x"}), customerrors.ErrTypeMismatch)
	require.ErrorIs(t, tbl.WriteRow(0, []any{1, "a name longer than twenty"}), customerrors.ErrTypeMismatch)

	row, err = tbl.ReadRow(0)
	require.NoError(t, err)
	require.Equal(t, []any{int32(7), "seven"}, row)
}

func TestClosedTable(t *testing.T) {
	tbl := createPeople(t, t.TempDir())
	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())

	_, err := tbl.Insert([]any{1, "x"})
	require.ErrorIs(t, err, customerrors.ErrClosed)
	_, err = tbl.ReadRow(0)
	require.ErrorIs(t, err, customerrors.ErrClosed)
	require.ErrorIs(t, tbl.Flush(), customerrors.ErrClosed)
}

func TestCursor(t *testing.T) {
	tbl := createPeople(t, t.TempDir())
	defer tbl.Close()

	c := tbl.Start()
	require.True(t, c.EndOfTable())

	for i := 0; i < 4; i++ {
		_, err := tbl.Insert([]any{i, "p"})
		require.NoError(t, err)
	}

	rows := []uint32{}
	for c := tbl.Start(); !c.EndOfTable(); c.Advance() {
		rows = append(rows, c.Row())
	}
	require.Equal(t, []uint32{0, 1, 2, 3}, rows)

	end := tbl.End()
	require.True(t, end.EndOfTable())
	require.Equal(t, uint32(4), end.Row())

	require.NoError(t, tbl.Delete(0))
	require.NoError(t, tbl.Delete(2))

	rows = rows[:0]
	for c := tbl.StartLive(); !c.EndOfTable(); c.Advance() {
		v, err := c.Value()
		require.NoError(t, err)
		require.Equal(t, int32(c.Row()), v[0])
		rows = append(rows, c.Row())
	}
	require.Equal(t, []uint32{1, 3}, rows)
}
