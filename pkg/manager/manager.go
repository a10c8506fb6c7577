// Package manager keeps the registry of open tables. A table name maps to
// at most one open *table.Table, and every table and index file of a data
// directory is named by the manager.
package manager

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go-rowdb/pkg/column"
	"go-rowdb/pkg/table"
	"go-rowdb/util/helpers"
	"go-rowdb/util/logger"

	"github.com/pkg/errors"
)

var log = logger.For("manager")

// FileKind selects which file of a table FileName names.
type FileKind int

const (
	BaseTable FileKind = iota
	IndexFile
)

const (
	tableExt = ".tbl"
	indexExt = ".idx"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrInvalidName is returned for table names, and names of indexed
// columns, that cannot be used in file names.
var ErrInvalidName = errors.New("invalid name")

// TableManager is safe for concurrent use. The tables it hands out are not.
type TableManager struct {
	mu     sync.Mutex
	dir    string
	opts   *table.Options
	tables map[string]*table.Table
}

// New returns a manager over dir, creating the directory when missing. Nil
// options select table.DefaultOptions.
func New(dir string, opts *table.Options) (*TableManager, error) {
	if err := helpers.CreateDir(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to create data dir '%s'", dir)
	}
	if opts == nil {
		opts = &table.DefaultOptions
	}
	return &TableManager{
		dir:    dir,
		opts:   opts,
		tables: map[string]*table.Table{},
	}, nil
}

func (m *TableManager) Dir() string { return m.dir }

// FileName returns the path of a table's base file, or the common prefix
// of its index files for IndexFile.
func (m *TableManager) FileName(name string, kind FileKind) string {
	if kind == IndexFile {
		return filepath.Join(m.dir, name+".")
	}
	return filepath.Join(m.dir, name+tableExt)
}

// IndexFileName returns the path of the index file of column on table
// name.
func (m *TableManager) IndexFileName(name, column string) string {
	return m.FileName(name, IndexFile) + column + indexExt
}

// Open returns the registered table called name.
func (m *TableManager) Open(name string) (*table.Table, Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tables[name]; ok {
		return t, OpenedSuccessfully
	}
	return nil, TableNotFound
}

// Create creates and registers a new table. Index files are created for
// columns flagged Indexed, whose names must be valid file name parts. A name already registered, or whose base file
// exists on disk, is TableAlreadyExists.
func (m *TableManager) Create(name string, columns []*column.Column) (*table.Table, Result, error) {
	if !validName.MatchString(name) {
		return nil, CreationFailure, errors.Wrapf(ErrInvalidName, "'%s'", name)
	}
	for _, c := range columns {
		if c.Indexed && !validName.MatchString(c.Name) {
			return nil, CreationFailure, errors.Wrapf(ErrInvalidName, "indexed column '%s'", c.Name)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fileName := m.FileName(name, BaseTable)
	if _, ok := m.tables[name]; ok || helpers.FileExists(fileName) {
		return nil, TableAlreadyExists, nil
	}

	t, err := table.Create(name, fileName, columns, m.opts)
	if err != nil {
		return nil, CreationFailure, err
	}

	for _, c := range columns {
		if !c.Indexed {
			continue
		}
		if err := t.CreateIndex(c.Name, m.IndexFileName(name, c.Name)); err != nil {
			_ = t.Close()
			_ = m.removeFiles(name)
			return nil, CreationFailure, err
		}
	}

	m.tables[name] = t
	log.Infof("created table '%s' (%d columns)", name, len(columns))
	return t, CreatedSuccessfully, nil
}

// Load opens the table stored on disk as name, reopens every index file
// found next to it and registers it. A table already registered is
// returned as is.
func (m *TableManager) Load(name string) (*table.Table, Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tables[name]; ok {
		return t, OpenedSuccessfully, nil
	}

	fileName := m.FileName(name, BaseTable)
	if !validName.MatchString(name) || !helpers.FileExists(fileName) {
		return nil, TableNotFound, nil
	}

	t, err := table.Load(name, fileName, m.opts)
	if err != nil {
		return nil, TableNotFound, err
	}

	indexes, err := m.indexFiles(name)
	if err == nil {
		err = m.attachIndexes(t, indexes)
	}
	if err != nil {
		_ = t.Close()
		return nil, TableNotFound, err
	}

	m.tables[name] = t
	log.Infof("loaded table '%s' (%d rows, %d indexes)", name, t.NumRows(), len(indexes))
	return t, OpenedSuccessfully, nil
}

func (m *TableManager) attachIndexes(t *table.Table, indexes map[string]string) error {
	for col, fileName := range indexes {
		if _, ok := t.ColumnIndex(col); !ok {
			log.Warnf("ignoring '%s': table '%s' has no column '%s'", fileName, t.Name(), col)
			continue
		}
		if err := t.SetIndexed(col, true); err != nil {
			return err
		}
		if err := t.CreateIndex(col, fileName); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads every table file in the data directory and returns the
// names it registered.
func (m *TableManager) LoadAll() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read data dir '%s'", m.dir)
	}

	names := []string{}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != tableExt {
			continue
		}
		name := strings.TrimSuffix(de.Name(), tableExt)
		if _, _, err := m.Load(name); err != nil {
			return names, errors.Wrapf(err, "failed to load table '%s'", name)
		}
		names = append(names, name)
	}
	return names, nil
}

// Close flushes and closes the table and removes it from the registry.
// The table is unregistered even when closing fails.
func (m *TableManager) Close(name string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[name]
	if !ok {
		return TableNotFound, nil
	}

	delete(m.tables, name)
	if err := t.Close(); err != nil {
		log.WithError(err).Errorf("failed to close table '%s'", name)
		return ClosingFailure, err
	}
	log.Infof("closed table '%s'", name)
	return ClosedSuccessfully, nil
}

// Drop closes the table if it is open and removes its base file and every
// index file.
func (m *TableManager) Drop(name string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, open := m.tables[name]
	if !open && (!validName.MatchString(name) || !helpers.FileExists(m.FileName(name, BaseTable))) {
		return TableNotFound, nil
	}

	if open {
		delete(m.tables, name)
		if err := t.Close(); err != nil {
			log.WithError(err).Warnf("dropping table '%s' that failed to close", name)
		}
	}

	if err := m.removeFiles(name); err != nil {
		return DroppingFailure, err
	}
	log.Infof("dropped table '%s'", name)
	return DroppedSuccessfully, nil
}

// CloseAll closes every registered table and returns the first failure.
func (m *TableManager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for name, t := range m.tables {
		if err := t.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "failed to close table '%s'", name)
		}
		delete(m.tables, name)
	}
	return first
}

// Tables returns the registered table names in order.
func (m *TableManager) Tables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// indexFiles maps column names to the index files stored for table name.
func (m *TableManager) indexFiles(name string) (map[string]string, error) {
	prefix := m.FileName(name, IndexFile)
	matches, err := filepath.Glob(escapeGlob(prefix) + "*" + indexExt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list indexes of '%s'", name)
	}

	files := make(map[string]string, len(matches))
	for _, path := range matches {
		col := strings.TrimSuffix(strings.TrimPrefix(path, prefix), indexExt)
		if col != "" {
			files[col] = path
		}
	}
	return files, nil
}

func (m *TableManager) removeFiles(name string) error {
	indexes, err := m.indexFiles(name)
	if err != nil {
		return err
	}
	for _, path := range indexes {
		if err := helpers.RemoveIfExists(path); err != nil {
			return errors.Wrapf(err, "failed to remove '%s'", path)
		}
	}
	fileName := m.FileName(name, BaseTable)
	return errors.Wrapf(helpers.RemoveIfExists(fileName), "failed to remove '%s'", fileName)
}

// escapeGlob quotes glob metacharacters in the data directory path.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
