package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go-rowdb/pkg/column"
	"go-rowdb/pkg/table"
	"go-rowdb/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schema() []*column.Column {
	return []*column.Column{
		column.New("id", types.TYPE_INT).WithIndex(),
		column.Sized("name", types.TYPE_STRING, 16),
	}
}

func newManager(t *testing.T, dir string) *TableManager {
	t.Helper()
	m, err := New(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.CloseAll() })
	return m
}

func TestFileNames(t *testing.T) {
	m := newManager(t, t.TempDir())
	require.Equal(t, filepath.Join(m.Dir(), "users.tbl"), m.FileName("users", BaseTable))
	require.Equal(t, filepath.Join(m.Dir(), "users.id.idx"), m.IndexFileName("users", "id"))
}

func TestCreateOpenClose(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)

	_, res := m.Open("users")
	require.Equal(t, TableNotFound, res)

	tbl, res, err := m.Create("users", schema())
	require.NoError(t, err)
	require.Equal(t, CreatedSuccessfully, res)
	require.FileExists(t, filepath.Join(dir, "users.tbl"))
	require.FileExists(t, filepath.Join(dir, "users.id.idx"))
	require.NoFileExists(t, filepath.Join(dir, "users.name.idx"))

	got, res := m.Open("users")
	require.Equal(t, OpenedSuccessfully, res)
	require.Same(t, tbl, got)

	_, res, err = m.Create("users", schema())
	require.NoError(t, err)
	require.Equal(t, TableAlreadyExists, res)

	res, err = m.Close("users")
	require.NoError(t, err)
	require.Equal(t, ClosedSuccessfully, res)

	res, err = m.Close("users")
	require.NoError(t, err)
	require.Equal(t, TableNotFound, res)

	_, res, err = m.Create("users", schema())
	require.NoError(t, err)
	require.Equal(t, TableAlreadyExists, res)
}

func TestCreateFailures(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)

	_, res, err := m.Create("bad name", schema())
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, CreationFailure, res)

	_, res, err = m.Create("dup", []*column.Column{
		column.New("a", types.TYPE_INT),
		column.New("a", types.TYPE_INT),
	})
	require.Error(t, err)
	require.Equal(t, CreationFailure, res)
	require.NoFileExists(t, filepath.Join(dir, "dup.tbl"))
	require.Empty(t, m.Tables())
}

func TestCreateRejectsIndexedColumnName(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)

	_, res, err := m.Create("paths", []*column.Column{
		column.New("a/b", types.TYPE_INT).WithIndex(),
	})
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, CreationFailure, res)
	require.NoFileExists(t, filepath.Join(dir, "paths.tbl"))

	_, res, err = m.Create("paths", []*column.Column{
		column.New("a.b", types.TYPE_INT),
	})
	require.NoError(t, err)
	require.Equal(t, CreatedSuccessfully, res)
}

func TestLoadReopensIndexes(t *testing.T) {
	dir := t.TempDir()

	m := newManager(t, dir)
	tbl, _, err := m.Create("users", schema())
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		_, err := tbl.Insert([]any{i, fmt.Sprintf("user%d", i)})
		require.NoError(t, err)
	}
	require.NoError(t, m.CloseAll())

	m = newManager(t, dir)
	names, err := m.LoadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"users"}, names)

	tbl, res := m.Open("users")
	require.Equal(t, OpenedSuccessfully, res)
	require.Equal(t, uint32(300), tbl.NumRows())
	require.True(t, tbl.IsIndexed("id"))

	rows, err := tbl.Lookup("id", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "user1", rows[0].Values[1])

	for i := 300; i < 600; i++ {
		_, err := tbl.Insert([]any{i, fmt.Sprintf("user%d", i)})
		require.NoError(t, err)
	}

	ix, err := tbl.Index("id")
	require.NoError(t, err)
	require.Equal(t, uint64(600), ix.Len())
	require.NoError(t, ix.Check())

	for i := 0; i < 600; i++ {
		rows, err := tbl.Lookup("id", i)
		require.NoError(t, err)
		require.Len(t, rows, 1, "id %d", i)
		require.Equal(t, uint32(i), rows[0].Loc)
		require.Equal(t, fmt.Sprintf("user%d", i), rows[0].Values[1])
	}

	_, res, err = m.Load("missing")
	require.NoError(t, err)
	require.Equal(t, TableNotFound, res)
}

func TestDrop(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)

	_, _, err := m.Create("users", schema())
	require.NoError(t, err)
	_, _, err = m.Create("users_archive", schema())
	require.NoError(t, err)

	res, err := m.Drop("users")
	require.NoError(t, err)
	require.Equal(t, DroppedSuccessfully, res)
	require.NoFileExists(t, filepath.Join(dir, "users.tbl"))
	require.NoFileExists(t, filepath.Join(dir, "users.id.idx"))
	require.FileExists(t, filepath.Join(dir, "users_archive.id.idx"))
	require.Equal(t, []string{"users_archive"}, m.Tables())

	_, res = m.Open("users")
	require.Equal(t, TableNotFound, res)

	res, err = m.Drop("users")
	require.NoError(t, err)
	require.Equal(t, TableNotFound, res)

	_, res, err = m.Create("users", schema())
	require.NoError(t, err)
	require.Equal(t, CreatedSuccessfully, res)
}

func TestRegistryExclusive(t *testing.T) {
	m := newManager(t, t.TempDir())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		handles = map[*table.Table]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, res, err := m.Create("shared", schema())
			assert.NoError(t, err)

			tbl, open := m.Open("shared")
			assert.Equal(t, OpenedSuccessfully, open)

			mu.Lock()
			defer mu.Unlock()
			if res == CreatedSuccessfully {
				created++
			}
			handles[tbl] = struct{}{}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Len(t, handles, 1)
	require.Equal(t, []string{"shared"}, m.Tables())
}

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := New(dir, nil)
	require.NoError(t, err)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestResultString(t *testing.T) {
	require.Equal(t, "created successfully", CreatedSuccessfully.String())
	require.Equal(t, "unknown result", Result(99).String())
}
