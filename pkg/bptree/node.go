package bptree

import (
	"fmt"
	"slices"

	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"
	"go-rowdb/util/helpers"

	"github.com/pkg/errors"
)

const (
	// flags(1) + entry count(2) + next leaf(4)
	nodeHeaderSz = 7
	childSz      = 4
	pkSz         = 8
	locSz        = 4

	flagLeafBit = 0

	minDegree = 3
)

// Precomputed branching factors for the fixed width key types.
const (
	IntDegree   = (pager.PageSize - nodeHeaderSz - childSz) / (4 + pkSz + childSz)
	FloatDegree = (pager.PageSize - nodeHeaderSz - childSz) / (4 + pkSz + childSz)
	CharDegree  = (pager.PageSize - nodeHeaderSz - childSz) / (1 + pkSz + childSz)
	BoolDegree  = (pager.PageSize - nodeHeaderSz - childSz) / (1 + pkSz + childSz)
)

// BranchingFactor returns the largest degree B for which a node of B keys
// and B+1 children fits in one page.
func BranchingFactor(keySize int) int {
	return (pager.PageSize - nodeHeaderSz - childSz) / (keySize + pkSz + childSz)
}

// Entry is one index record: a column value, the primary key that makes
// it unique and the row location it points at.
type Entry[K any] struct {
	Key K
	PK  uint64
	Loc uint32
}

// node represents an internal or leaf node in the B+ tree. Internal nodes
// use Key and PK of their entries as separators; Loc is unused.
type node[K any] struct {
	id       uint32
	leaf     bool
	next     uint32
	entries  []Entry[K]
	children []uint32
}

func newLeaf[K any](id uint32) *node[K] {
	return &node[K]{id: id, leaf: true}
}

func (n *node[K]) clone() *node[K] {
	return &node[K]{
		id:       n.id,
		leaf:     n.leaf,
		next:     n.next,
		entries:  slices.Clone(n.entries),
		children: slices.Clone(n.children),
	}
}

// insertEntry inserts the entry at the given index into the node.
func (n *node[K]) insertEntry(idx int, e Entry[K]) {
	n.entries = slices.Insert(n.entries, idx, e)
}

// insertChild adds the given child at appropriate location under the node.
func (n *node[K]) insertChild(idx int, child uint32) {
	n.children = slices.Insert(n.children, idx, child)
}

func (n *node[K]) removeEntry(idx int) {
	n.entries = slices.Delete(n.entries, idx, idx+1)
}

func (n *node[K]) String() string {
	return fmt.Sprintf(
		"{id=%d, size=%d, leaf=%t, next=%d}",
		n.id, len(n.entries), n.leaf, n.next,
	)
}

// codec serializes nodes of one tree into pages.
type codec[K any] struct {
	key types.Codec[K]
}

func (c codec[K]) entrySize() int {
	return c.key.Size() + pkSz + childSz
}

func (c codec[K]) size(n *node[K]) int {
	sz := nodeHeaderSz + len(n.entries)*c.entrySize()
	if !n.leaf {
		sz += childSz
	}
	return sz
}

func (c codec[K]) compare(a, b Entry[K]) int {
	if cmp := c.key.Compare(a.Key, b.Key); cmp != 0 {
		return cmp
	}
	return helpers.Compare(a.PK, b.PK)
}

// upperBound returns the index of the first entry ordered after e.
func (c codec[K]) upperBound(n *node[K], e Entry[K]) int {
	idx, _ := slices.BinarySearchFunc(n.entries, e, func(x, target Entry[K]) int {
		if c.compare(x, target) <= 0 {
			return -1
		}
		return 1
	})
	return idx
}

// lowerBound returns the index of the first entry not ordered before e.
func (c codec[K]) lowerBound(n *node[K], e Entry[K]) int {
	idx, _ := slices.BinarySearchFunc(n.entries, e, c.compare)
	return idx
}

func (c codec[K]) encode(n *node[K], page *pager.Page) error {
	if sz := c.size(n); sz > pager.PageSize {
		return errors.Wrapf(customerrors.ErrNodeOverflow, "node %d needs %d bytes", n.id, sz)
	}

	clear(page.Data[:])
	var flags uint8
	helpers.SetBit(&flags, flagLeafBit, n.leaf)
	page.Data[0] = flags
	bin.PutUint16(page.Data[1:3], uint16(len(n.entries)))
	bin.PutUint32(page.Data[3:7], n.next)

	offset := nodeHeaderSz
	if !n.leaf {
		bin.PutUint32(page.Data[offset:offset+childSz], n.children[0])
		offset += childSz
	}

	ks := c.key.Size()
	for i, e := range n.entries {
		c.key.Put(page.Data[offset:offset+ks], e.Key)
		offset += ks
		bin.PutUint64(page.Data[offset:offset+pkSz], e.PK)
		offset += pkSz
		if n.leaf {
			bin.PutUint32(page.Data[offset:offset+locSz], e.Loc)
		} else {
			bin.PutUint32(page.Data[offset:offset+childSz], n.children[i+1])
		}
		offset += childSz
	}

	page.Dirty = true
	return nil
}

func (c codec[K]) decode(id uint32, page *pager.Page) (*node[K], error) {
	n := &node[K]{
		id:   id,
		leaf: helpers.GetBit(page.Data[0], flagLeafBit),
		next: bin.Uint32(page.Data[3:7]),
	}

	count := int(bin.Uint16(page.Data[1:3]))
	n.entries = make([]Entry[K], count)
	if c.size(n) > pager.PageSize {
		return nil, errors.Wrapf(customerrors.ErrCorruptFile, "node %d claims %d entries", id, count)
	}

	offset := nodeHeaderSz
	if !n.leaf {
		n.children = make([]uint32, 0, count+1)
		n.children = append(n.children, bin.Uint32(page.Data[offset:offset+childSz]))
		offset += childSz
	}

	ks := c.key.Size()
	for i := range n.entries {
		n.entries[i].Key = c.key.Get(page.Data[offset : offset+ks])
		offset += ks
		n.entries[i].PK = bin.Uint64(page.Data[offset : offset+pkSz])
		offset += pkSz
		if n.leaf {
			n.entries[i].Loc = bin.Uint32(page.Data[offset : offset+locSz])
		} else {
			n.children = append(n.children, bin.Uint32(page.Data[offset:offset+childSz]))
		}
		offset += childSz
	}

	return n, nil
}
