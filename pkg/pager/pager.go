// Package pager implements page-granular access to a single file. Pages are
// cached for the lifetime of the pager, so every Get for the same index
// returns the same *Page.
package pager

import (
	"io"
	"os"
	"sort"

	"go-rowdb/pkg/customerrors"
	"go-rowdb/util/logger"

	"github.com/pkg/errors"
)

var log = logger.For("pager")

// Pager owns a file handle and the pages read from (or appended to) it.
// It is not safe for concurrent use.
type Pager struct {
	file      *os.File
	fileName  string
	filePages uint32

	cache  map[uint32]*Page
	header *Page
}

// Open opens fileName for paged access, creating it when missing. An
// existing file must be a whole number of pages. Page 0 is loaded before
// Open returns.
func Open(fileName string, mode os.FileMode) (*Pager, error) {
	file, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open '%s'", fileName)
	}

	p := &Pager{
		file:     file,
		fileName: fileName,
		cache:    map[uint32]*Page{},
	}

	if err := p.init(); err != nil {
		_ = file.Close()
		return nil, err
	}

	log.Debugf("opened '%s' with %d pages", fileName, p.filePages)
	return p, nil
}

func (p *Pager) init() error {
	fi, err := p.file.Stat()
	if err != nil {
		return errors.Wrapf(err, "failed to stat '%s'", p.fileName)
	}

	size := fi.Size()
	if size%PageSize != 0 {
		return errors.Wrapf(
			customerrors.ErrCorruptFile,
			"'%s' size %d is not a multiple of page size %d",
			p.fileName, size, PageSize,
		)
	}

	p.filePages = uint32(size / PageSize)
	p.header, err = p.Get(HeaderPage)
	return err
}

// Get returns the page at index idx, reading it on first access. Pages past
// the end of the file come back zero filled.
func (p *Pager) Get(idx uint32) (*Page, error) {
	if p.file == nil {
		return nil, customerrors.ErrClosed
	}
	if page, ok := p.cache[idx]; ok {
		return page, nil
	}

	page := &Page{}
	if idx < p.filePages {
		_, err := p.file.ReadAt(page.Data[:], int64(idx)*PageSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "failed to read page %d of '%s'", idx, p.fileName)
		}
	}

	p.cache[idx] = page
	return page, nil
}

// Header returns page 0.
func (p *Pager) Header() *Page {
	return p.header
}

// Flush writes the page at idx to disk if it is cached and dirty. Pages are
// always written whole.
func (p *Pager) Flush(idx uint32) error {
	if p.file == nil {
		return customerrors.ErrClosed
	}

	page, ok := p.cache[idx]
	if !ok || !page.Dirty {
		return nil
	}

	n, err := p.file.WriteAt(page.Data[:], int64(idx)*PageSize)
	if err != nil {
		return errors.Wrapf(err, "failed to write page %d of '%s'", idx, p.fileName)
	} else if n != PageSize {
		return errors.Wrapf(io.ErrShortWrite, "page %d of '%s'", idx, p.fileName)
	}

	page.Dirty = false
	if idx >= p.filePages {
		p.filePages = idx + 1
	}
	return nil
}

// FlushAll writes every dirty page, header first and the rest in index
// order. Holes left by pages that were never written are zero-filled on
// disk by the file system.
func (p *Pager) FlushAll() error {
	if err := p.Flush(HeaderPage); err != nil {
		return err
	}

	for _, idx := range p.cachedIndexes() {
		if idx == HeaderPage {
			continue
		}
		if err := p.Flush(idx); err != nil {
			return err
		}
	}
	return nil
}

// Sync flushes every dirty page and commits the file to stable storage.
func (p *Pager) Sync() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	return errors.Wrapf(p.file.Sync(), "failed to sync '%s'", p.fileName)
}

// Close flushes every dirty page and releases the file handle. The file is
// closed even when a flush fails; the first error is returned.
func (p *Pager) Close() error {
	if p.file == nil {
		return nil
	}

	flushErr := p.FlushAll()
	closeErr := p.file.Close()
	p.file = nil
	p.cache = nil
	p.header = nil

	if flushErr != nil {
		log.Warnf("closing '%s' with unflushed pages: %v", p.fileName, flushErr)
		return flushErr
	}
	return errors.Wrapf(closeErr, "failed to close '%s'", p.fileName)
}

// PageCount returns the number of pages in the file, counting cached pages
// that have not been flushed yet.
func (p *Pager) PageCount() uint32 {
	count := p.filePages
	for idx := range p.cache {
		if idx+1 > count {
			count = idx + 1
		}
	}
	return count
}

func (p *Pager) FileName() string {
	return p.fileName
}

func (p *Pager) cachedIndexes() []uint32 {
	idxs := make([]uint32, 0, len(p.cache))
	for idx := range p.cache {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}
