package bptree

import (
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

const (
	magic        = 0xB7EE
	version      = uint8(0x1)
	metadataSize = 32
)

// metadata represents the metadata for the B+ tree stored in page 0 of the
// index file.
type metadata struct {
	// temporary state info
	dirty bool

	// actual metadata
	magic     uint16         // magic marker to identify B+ tree.
	version   uint8          // version of implementation
	keyType   types.TypeCode // column type of the key, stored as uint8
	keySize   uint16         // on-disk key width
	degree    uint16         // maximum children per internal node
	root      uint32         // page id of the root node
	pageCount uint32         // pages in use, meta page included
	size      uint64         // number of entries in the tree
	counter   uint64         // highest primary key ever inserted
}

func (m *metadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, metadataSize)

	bin.PutUint16(buf[0:2], m.magic)
	buf[2] = m.version
	buf[3] = uint8(m.keyType)
	bin.PutUint16(buf[4:6], m.keySize)
	bin.PutUint16(buf[6:8], m.degree)
	bin.PutUint32(buf[8:12], m.root)
	bin.PutUint32(buf[12:16], m.pageCount)
	bin.PutUint64(buf[16:24], m.size)
	bin.PutUint64(buf[24:32], m.counter)

	return buf, nil
}

func (m *metadata) UnmarshalBinary(d []byte) error {
	if len(d) < metadataSize {
		return errors.New("in-sufficient data for unmarshal")
	} else if m == nil {
		return errors.New("cannot unmarshal into nil")
	}

	m.magic = bin.Uint16(d[0:2])
	m.version = d[2]
	m.keyType = types.TypeCode(d[3])
	m.keySize = bin.Uint16(d[4:6])
	m.degree = bin.Uint16(d[6:8])
	m.root = bin.Uint32(d[8:12])
	m.pageCount = bin.Uint32(d[12:16])
	m.size = bin.Uint64(d[16:24])
	m.counter = bin.Uint64(d[24:32])

	return nil
}

// verify checks a metadata block read from disk against the codec the tree
// is opened with.
func (m *metadata) verify(keyType types.TypeCode, keySize int) error {
	switch {
	case m.magic != magic:
		return errors.Wrapf(customerrors.ErrCorruptFile, "bad magic %#x", m.magic)
	case m.version != version:
		return errors.Wrapf(customerrors.ErrCorruptFile, "incompatible version %#x (expected: %#x)", m.version, version)
	case m.keyType != keyType || int(m.keySize) != keySize:
		return errors.Wrapf(
			customerrors.ErrCorruptFile,
			"index holds %s(%d) keys, opened as %s(%d)",
			m.keyType, m.keySize, keyType, keySize,
		)
	case m.degree < minDegree || int(m.degree) > BranchingFactor(keySize):
		return errors.Wrapf(customerrors.ErrCorruptFile, "invalid degree %d", m.degree)
	case m.root == pager.HeaderPage || m.root >= m.pageCount:
		return errors.Wrapf(customerrors.ErrCorruptFile, "invalid root %d", m.root)
	}
	return nil
}
