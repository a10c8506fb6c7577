// Package bptree implements an on-disk B+ tree index that maps typed column
// values to row locations. Every node occupies exactly one page of the
// index file; page 0 holds the tree metadata. Leaves are chained left to
// right for range scans. Duplicate keys are ordered by the primary key that
// accompanies them.
//
// A tree is not safe for concurrent use.
package bptree

import (
	"encoding/binary"
	"fmt"

	"go-rowdb/pkg/cache"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"
	"go-rowdb/util/helpers"
	"go-rowdb/util/logger"
	"go-rowdb/util/stl"

	"github.com/pkg/errors"
)

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

var log = logger.For("bptree")

// BPlusTree represents an on-disk B+ tree keyed on values of type K.
type BPlusTree[K any] struct {
	file  string
	codec codec[K]
	pager *pager.Pager
	cache *cache.Cache[*node[K]]
	meta  *metadata
}

// Open opens the named file as a B+ tree index file, creating and
// initializing it when it is empty. If nil options are provided,
// defaultOptions will be used.
func Open[K any](fileName string, key types.Codec[K], opts *Options) (*BPlusTree[K], error) {
	if opts == nil {
		opts = &defaultOptions
	}

	mode := opts.FileMode
	if mode == 0 {
		mode = defaultOptions.FileMode
	}

	p, err := pager.Open(fileName, mode)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(opts.NodeCacheSize, (*node[K]).clone)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	tree := &BPlusTree[K]{
		file:  fileName,
		codec: codec[K]{key: key},
		pager: p,
		cache: c,
	}

	if err := tree.open(opts); err != nil {
		c.Close()
		_ = p.Close()
		return nil, errors.Wrapf(err, "failed to open index '%s'", fileName)
	}

	return tree, nil
}

// CanInsert reports whether Insert would accept key, without touching the
// tree.
func (tree *BPlusTree[K]) CanInsert(key K) error {
	if tree.pager == nil {
		return customerrors.ErrClosed
	}
	if !tree.codec.key.Fits(key) {
		return errors.Wrapf(customerrors.ErrKeyTooLarge, "key %v wider than %d bytes", key, tree.codec.key.Size())
	}
	return nil
}

// Insert adds (key, pk, loc) to the tree. Equal keys are kept in pk order.
func (tree *BPlusTree[K]) Insert(key K, pk uint64, loc uint32) error {
	if err := tree.CanInsert(key); err != nil {
		return err
	}

	e := Entry[K]{Key: key, PK: pk, Loc: loc}
	path := stl.NewStack[*node[K]]()

	n, err := tree.fetch(tree.meta.root)
	if err != nil {
		return err
	}
	for !n.leaf {
		path.Push(n)
		if n, err = tree.fetch(n.children[tree.codec.upperBound(n, e)]); err != nil {
			return err
		}
	}

	n.insertEntry(tree.codec.upperBound(n, e), e)
	if err := tree.splitIfFull(n, path); err != nil {
		return err
	}

	tree.meta.dirty = true
	tree.meta.size++
	tree.meta.counter = helpers.Max(tree.meta.counter, pk)
	return tree.writeMeta()
}

// Search returns every entry whose key equals key, in pk order.
func (tree *BPlusTree[K]) Search(key K) ([]Entry[K], error) {
	result := []Entry[K]{}
	err := tree.Range(&key, &key, func(e Entry[K]) (bool, error) {
		result = append(result, e)
		return false, nil
	})
	return result, err
}

// Range calls scanFn for each entry with lo <= key <= hi, in key order. A
// nil bound is open. Range stops early when scanFn returns true.
func (tree *BPlusTree[K]) Range(lo, hi *K, scanFn ScanFn[K]) error {
	if tree.pager == nil {
		return customerrors.ErrClosed
	}

	var (
		n   *node[K]
		idx int
		err error
	)
	if lo == nil {
		n, err = tree.leftLeaf()
	} else {
		n, idx, err = tree.seek(*lo)
	}
	if err != nil {
		return err
	}

	for {
		for ; idx < len(n.entries); idx++ {
			e := n.entries[idx]
			if hi != nil && tree.codec.key.Compare(e.Key, *hi) > 0 {
				return nil
			}
			if stop, err := scanFn(e); err != nil || stop {
				return err
			}
		}

		if n.next == 0 {
			return nil
		}
		if n, err = tree.fetch(n.next); err != nil {
			return err
		}
		idx = 0
	}
}

// Scan visits every entry in key order.
func (tree *BPlusTree[K]) Scan(scanFn ScanFn[K]) error {
	return tree.Range(nil, nil, scanFn)
}

// Delete removes the entry with the given key that points at loc. Leaves
// are not merged afterwards; an emptied leaf stays in the chain, so node
// child counts never change on delete.
func (tree *BPlusTree[K]) Delete(key K, loc uint32) (bool, error) {
	if tree.pager == nil {
		return false, customerrors.ErrClosed
	}

	n, idx, err := tree.seek(key)
	if err != nil {
		return false, err
	}

	for {
		for ; idx < len(n.entries); idx++ {
			e := n.entries[idx]
			if tree.codec.key.Compare(e.Key, key) != 0 {
				return false, nil
			}
			if e.Loc == loc {
				n.removeEntry(idx)
				if err := tree.write(n); err != nil {
					return false, err
				}
				tree.meta.dirty = true
				tree.meta.size--
				return true, tree.writeMeta()
			}
		}

		if n.next == 0 {
			return false, nil
		}
		if n, err = tree.fetch(n.next); err != nil {
			return false, err
		}
		idx = 0
	}
}

// Len returns the number of entries in the tree.
func (tree *BPlusTree[K]) Len() uint64 { return tree.meta.size }

// Degree returns the maximum number of children of an internal node.
func (tree *BPlusTree[K]) Degree() int { return int(tree.meta.degree) }

// Counter returns the highest primary key inserted so far.
func (tree *BPlusTree[K]) Counter() uint64 { return tree.meta.counter }

// Height returns the number of levels, 1 for a tree that is a single leaf.
func (tree *BPlusTree[K]) Height() (int, error) {
	h := 1
	n, err := tree.fetch(tree.meta.root)
	for err == nil && !n.leaf {
		h++
		n, err = tree.fetch(n.children[0])
	}
	return h, err
}

// Flush writes every dirty node and the metadata to the index file.
func (tree *BPlusTree[K]) Flush() error {
	if tree.pager == nil {
		return customerrors.ErrClosed
	}
	if err := tree.writeMeta(); err != nil {
		return err
	}
	return tree.pager.FlushAll()
}

// Close flushes any writes and closes the underlying pager.
func (tree *BPlusTree[K]) Close() error {
	if tree.pager == nil {
		return nil
	}

	err := tree.writeMeta()
	if closeErr := tree.pager.Close(); err == nil {
		err = closeErr
	}
	tree.cache.Close()
	tree.pager = nil
	return err
}

func (tree *BPlusTree[K]) String() string {
	return fmt.Sprintf(
		"BPlusTree{file='%s', size=%d, degree=%d}",
		tree.file, tree.meta.size, tree.meta.degree,
	)
}

// splitIfFull writes n, splitting it first when it holds more than
// degree-1 entries. Splits propagate up through the nodes on path.
func (tree *BPlusTree[K]) splitIfFull(n *node[K], path stl.Stack[*node[K]]) error {
	for len(n.entries) >= int(tree.meta.degree) {
		sibling := &node[K]{id: tree.allocPage(), leaf: n.leaf}
		breakPoint := helpers.CeilDiv(int(tree.meta.degree)-1, 2)
		separator := n.entries[breakPoint]

		if n.leaf {
			sibling.entries = append(sibling.entries, n.entries[breakPoint:]...)
			n.entries = n.entries[:breakPoint:breakPoint]
			sibling.next = n.next
			n.next = sibling.id
			separator.Loc = 0
		} else {
			sibling.entries = append(sibling.entries, n.entries[breakPoint+1:]...)
			sibling.children = append(sibling.children, n.children[breakPoint+1:]...)
			n.entries = n.entries[:breakPoint:breakPoint]
			n.children = n.children[: breakPoint+1 : breakPoint+1]
		}

		if err := tree.write(n); err != nil {
			return err
		}
		if err := tree.write(sibling); err != nil {
			return err
		}

		parent, err := path.Pop()
		if err != nil {
			// n was the root; grow a new one above it.
			root := &node[K]{
				id:       tree.allocPage(),
				entries:  []Entry[K]{separator},
				children: []uint32{n.id, sibling.id},
			}
			tree.meta.root = root.id
			tree.meta.dirty = true
			log.Debugf("'%s' grew to a new root %d", tree.file, root.id)
			return tree.write(root)
		}

		idx := tree.codec.upperBound(parent, separator)
		parent.insertEntry(idx, separator)
		parent.insertChild(idx+1, sibling.id)
		n = parent
	}

	return tree.write(n)
}

// seek descends to the leftmost leaf that may hold key and returns it with
// the index of the first entry not below key.
func (tree *BPlusTree[K]) seek(key K) (*node[K], int, error) {
	e := Entry[K]{Key: key}

	n, err := tree.fetch(tree.meta.root)
	if err != nil {
		return nil, 0, err
	}
	for !n.leaf {
		if n, err = tree.fetch(n.children[tree.codec.upperBound(n, e)]); err != nil {
			return nil, 0, err
		}
	}
	return n, tree.codec.lowerBound(n, e), nil
}

// leftLeaf returns the left most leaf node of the tree.
func (tree *BPlusTree[K]) leftLeaf() (*node[K], error) {
	n, err := tree.fetch(tree.meta.root)
	for err == nil && !n.leaf {
		n, err = tree.fetch(n.children[0])
	}
	return n, err
}

// fetch returns the node stored at page id. The page is decoded only when
// the node is not cached.
func (tree *BPlusTree[K]) fetch(id uint32) (*node[K], error) {
	if id == pager.HeaderPage || id >= tree.meta.pageCount {
		return nil, errors.Wrapf(customerrors.ErrCorruptFile, "node pointer %d out of range", id)
	}
	if n, ok := tree.cache.Get(id); ok {
		return n, nil
	}

	page, err := tree.pager.Get(id)
	if err != nil {
		return nil, err
	}

	n, err := tree.codec.decode(id, page)
	if err != nil {
		return nil, err
	}

	tree.cache.Add(id, n)
	return n, nil
}

func (tree *BPlusTree[K]) write(n *node[K]) error {
	page, err := tree.pager.Get(n.id)
	if err != nil {
		return err
	}
	if err := tree.codec.encode(n, page); err != nil {
		return err
	}
	tree.cache.Put(n.id, n)
	return nil
}

func (tree *BPlusTree[K]) allocPage() uint32 {
	id := tree.meta.pageCount
	tree.meta.pageCount++
	tree.meta.dirty = true
	return id
}

// open reads the metadata of an existing tree or initializes a new one.
func (tree *BPlusTree[K]) open(opts *Options) error {
	keyType, keySize := tree.codec.key.Code(), tree.codec.key.Size()

	if tree.pager.Header().Uint16(0) == 0 && tree.pager.PageCount() == 1 {
		return tree.init(keyType, keySize, opts.Degree)
	}

	tree.meta = &metadata{}
	if err := tree.meta.UnmarshalBinary(tree.pager.Header().Data[:metadataSize]); err != nil {
		return errors.Wrap(err, "failed to read meta while opening bptree")
	}
	return tree.meta.verify(keyType, keySize)
}

// init lays out an empty tree: metadata in page 0 and an empty root leaf
// in page 1.
func (tree *BPlusTree[K]) init(keyType types.TypeCode, keySize, degree int) error {
	maxDegree := BranchingFactor(keySize)
	if degree == 0 {
		degree = maxDegree
	}
	if degree < minDegree || degree > maxDegree {
		return errors.Wrapf(
			customerrors.ErrNodeOverflow,
			"degree %d not in [%d, %d] for %d byte keys", degree, minDegree, maxDegree, keySize,
		)
	}

	tree.meta = &metadata{
		dirty:     true,
		magic:     magic,
		version:   version,
		keyType:   keyType,
		keySize:   uint16(keySize),
		degree:    uint16(degree),
		root:      1,
		pageCount: 2,
	}

	if err := tree.write(newLeaf[K](1)); err != nil {
		return err
	}
	if err := tree.writeMeta(); err != nil {
		return err
	}
	return tree.pager.FlushAll()
}

func (tree *BPlusTree[K]) writeMeta() error {
	if !tree.meta.dirty {
		return nil
	}

	d, err := tree.meta.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to marshal meta")
	}
	tree.pager.Header().Write(0, d)
	tree.meta.dirty = false
	return nil
}
