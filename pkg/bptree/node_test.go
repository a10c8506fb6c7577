package bptree

import (
	"testing"

	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"

	"github.com/stretchr/testify/require"
)

func TestBranchingFactor(t *testing.T) {
	require.Equal(t, 255, IntDegree)
	require.Equal(t, IntDegree, BranchingFactor(4))
	require.Equal(t, FloatDegree, BranchingFactor(4))
	require.Equal(t, CharDegree, BranchingFactor(1))
	require.Equal(t, BoolDegree, BranchingFactor(1))

	for _, keySize := range []int{1, 4, 20, 100, 1000} {
		degree := BranchingFactor(keySize)
		// B keys and B+1 children fit one page
		require.LessOrEqual(t, nodeHeaderSz+childSz+degree*(keySize+pkSz+childSz), pager.PageSize)
		require.Greater(t, nodeHeaderSz+childSz+(degree+1)*(keySize+pkSz+childSz), pager.PageSize)
	}
}

func TestNodeBounds(t *testing.T) {
	c := codec[int32]{key: types.IntCodec{}}
	n := &node[int32]{
		leaf: true,
		entries: []Entry[int32]{
			{Key: 1, PK: 1}, {Key: 3, PK: 2}, {Key: 3, PK: 5}, {Key: 7, PK: 3},
		},
	}

	require.Equal(t, 1, c.lowerBound(n, Entry[int32]{Key: 3}))
	require.Equal(t, 1, c.upperBound(n, Entry[int32]{Key: 3}))
	require.Equal(t, 3, c.upperBound(n, Entry[int32]{Key: 3, PK: 5}))
	require.Equal(t, 3, c.lowerBound(n, Entry[int32]{Key: 4}))
	require.Equal(t, 4, c.upperBound(n, Entry[int32]{Key: 9}))
	require.Equal(t, 0, c.lowerBound(n, Entry[int32]{Key: 0}))
}

func TestNodeLeafBinary(t *testing.T) {
	c := codec[string]{key: types.StringCodec{Width: 8}}
	original := &node[string]{
		id:   4,
		leaf: true,
		next: 9,
		entries: []Entry[string]{
			{Key: "hello", PK: 10, Loc: 3},
			{Key: "world", PK: 11, Loc: 100},
		},
	}

	page := &pager.Page{}
	require.NoError(t, c.encode(original, page))
	require.True(t, page.Dirty)

	got, err := c.decode(4, page)
	require.NoError(t, err)
	require.Equal(t, original.leaf, got.leaf)
	require.Equal(t, original.next, got.next)
	require.Equal(t, original.entries, got.entries)
	require.Empty(t, got.children)
}

func TestNodeInternalBinary(t *testing.T) {
	c := codec[float32]{key: types.FloatCodec{}}
	original := &node[float32]{
		id: 2,
		entries: []Entry[float32]{
			{Key: 1.5, PK: 1},
			{Key: 2.5, PK: 2},
		},
		children: []uint32{3, 18, 4},
	}

	page := &pager.Page{}
	require.NoError(t, c.encode(original, page))

	got, err := c.decode(2, page)
	require.NoError(t, err)
	require.False(t, got.leaf)
	require.Equal(t, original.entries, got.entries)
	require.Equal(t, original.children, got.children)
}

func TestNodeEncodeOverflow(t *testing.T) {
	c := codec[bool]{key: types.BoolCodec{}}
	n := &node[bool]{leaf: true, entries: make([]Entry[bool], BoolDegree+10)}
	require.ErrorIs(t, c.encode(n, &pager.Page{}), customerrors.ErrNodeOverflow)
}

func TestNodeDecodeCorrupt(t *testing.T) {
	c := codec[int32]{key: types.IntCodec{}}
	page := &pager.Page{}
	page.Data[0] = 1
	page.PutUint16(1, 0xffff)

	_, err := c.decode(1, page)
	require.ErrorIs(t, err, customerrors.ErrCorruptFile)
}

func TestNodeClone(t *testing.T) {
	n := &node[int32]{id: 1, entries: []Entry[int32]{{Key: 1}}, children: []uint32{2, 3}}
	cp := n.clone()
	cp.entries[0].Key = 9
	cp.children[0] = 9
	require.Equal(t, int32(1), n.entries[0].Key)
	require.Equal(t, uint32(2), n.children[0])
}
