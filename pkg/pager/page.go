package pager

import "encoding/binary"

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

// PageSize is the unit of disk I/O. Every table and index file is a whole
// multiple of it.
const PageSize = 4096

// HeaderPage is the index of the page that is loaded at open time and
// stays resident for the pager's lifetime.
const HeaderPage = 0

// Page represents a fixed size data block in file.
type Page struct {
	Data  [PageSize]byte
	Dirty bool
}

func (p *Page) Uint16(off int) uint16 { return bin.Uint16(p.Data[off : off+2]) }
func (p *Page) Uint32(off int) uint32 { return bin.Uint32(p.Data[off : off+4]) }
func (p *Page) Uint64(off int) uint64 { return bin.Uint64(p.Data[off : off+8]) }
func (p *Page) Int32(off int) int32   { return int32(p.Uint32(off)) }

// The Put* helpers write in place and mark the page dirty.

func (p *Page) PutUint16(off int, v uint16) {
	bin.PutUint16(p.Data[off:off+2], v)
	p.Dirty = true
}

func (p *Page) PutUint32(off int, v uint32) {
	bin.PutUint32(p.Data[off:off+4], v)
	p.Dirty = true
}

func (p *Page) PutUint64(off int, v uint64) {
	bin.PutUint64(p.Data[off:off+8], v)
	p.Dirty = true
}

func (p *Page) PutInt32(off int, v int32) {
	p.PutUint32(off, uint32(v))
}

// Write copies b at off and marks the page dirty.
func (p *Page) Write(off int, b []byte) {
	copy(p.Data[off:off+len(b)], b)
	p.Dirty = true
}

// Zero clears length bytes starting at off.
func (p *Page) Zero(off, length int) {
	clear(p.Data[off : off+length])
	p.Dirty = true
}
