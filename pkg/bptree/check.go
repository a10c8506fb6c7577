package bptree

import (
	"go-rowdb/util/helpers"

	"github.com/pkg/errors"
)

// Check walks the whole tree and verifies its structure: keys are ordered
// within and across nodes, every separator bounds its subtrees, every
// non-root internal node has between ceil(B/2) and B children, the root has
// at least two children when it is internal, all leaves sit at the same
// depth and the leaf chain visits every entry in order.
func (tree *BPlusTree[K]) Check() error {
	root, err := tree.fetch(tree.meta.root)
	if err != nil {
		return err
	}

	c := &checker[K]{tree: tree, leafDepth: -1}
	if err := c.walk(root, 0, nil, nil); err != nil {
		return err
	}

	var (
		prev  *Entry[K]
		count uint64
	)
	err = tree.Scan(func(e Entry[K]) (bool, error) {
		if prev != nil && tree.codec.compare(*prev, e) > 0 {
			return true, errors.Errorf("leaf chain out of order at pk %d", e.PK)
		}
		prev = &e
		count++
		return false, nil
	})
	if err != nil {
		return err
	}

	if count != c.entries || count != tree.meta.size {
		return errors.Errorf(
			"entry count mismatch: chain=%d, tree=%d, meta=%d",
			count, c.entries, tree.meta.size,
		)
	}
	return nil
}

type checker[K any] struct {
	tree      *BPlusTree[K]
	leafDepth int
	entries   uint64
}

// walk checks n, whose entries must satisfy lo <= e < hi.
func (c *checker[K]) walk(n *node[K], depth int, lo, hi *Entry[K]) error {
	cmp := c.tree.codec.compare
	degree := c.tree.Degree()

	for i, e := range n.entries {
		if i > 0 && cmp(n.entries[i-1], e) > 0 {
			return errors.Errorf("node %d: entries out of order at %d", n.id, i)
		}
		if lo != nil && cmp(e, *lo) < 0 || hi != nil && cmp(e, *hi) >= 0 {
			return errors.Errorf("node %d: entry %d outside separator bounds", n.id, i)
		}
	}
	if len(n.entries) >= degree {
		return errors.Errorf("node %d holds %d entries, degree %d", n.id, len(n.entries), degree)
	}

	if n.leaf {
		if c.leafDepth == -1 {
			c.leafDepth = depth
		} else if c.leafDepth != depth {
			return errors.Errorf("leaf %d at depth %d, expected %d", n.id, depth, c.leafDepth)
		}
		c.entries += uint64(len(n.entries))
		return nil
	}

	children := len(n.children)
	if children != len(n.entries)+1 {
		return errors.Errorf("node %d: %d children for %d entries", n.id, children, len(n.entries))
	}

	minChildren := helpers.CeilDiv(degree, 2)
	if n.id == c.tree.meta.root {
		minChildren = 2
	}
	if children < minChildren || children > degree {
		return errors.Errorf(
			"node %d: %d children not in [%d, %d]", n.id, children, minChildren, degree,
		)
	}

	for i, id := range n.children {
		child, err := c.tree.fetch(id)
		if err != nil {
			return err
		}

		clo, chi := lo, hi
		if i > 0 {
			clo = &n.entries[i-1]
		}
		if i < len(n.entries) {
			chi = &n.entries[i]
		}
		if err := c.walk(child, depth+1, clo, chi); err != nil {
			return err
		}
	}
	return nil
}
