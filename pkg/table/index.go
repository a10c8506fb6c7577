package table

import (
	"go-rowdb/pkg/bptree"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

// Hit is an index entry with its key decoded to the column's Go type.
type Hit struct {
	Key any
	PK  uint64
	Loc uint32
}

// Index is the column index resolved once for the column's type. Keys are
// passed as any and coerced to the column type.
type Index interface {
	Type() types.TypeCode
	CanInsert(key any) error
	Insert(key any, pk uint64, loc uint32) error
	Delete(key any, loc uint32) (bool, error)
	Search(key any) ([]Hit, error)
	// Range visits hits with lo <= key <= hi; a nil bound is open.
	Range(lo, hi any, fn func(Hit) (bool, error)) error
	Len() uint64
	Degree() int
	Counter() uint64
	Check() error
	Flush() error
	Close() error

	sealed()
}

// typedIndex adapts a B+ tree over one key type to Index.
type typedIndex[K any] struct {
	code types.TypeCode
	tree *bptree.BPlusTree[K]
}

type (
	IntTree    = typedIndex[int32]
	FloatTree  = typedIndex[float32]
	CharTree   = typedIndex[byte]
	BoolTree   = typedIndex[bool]
	StringTree = typedIndex[string]
)

// openIndex opens the index file for a column of type typ and width size.
func openIndex(typ types.TypeCode, size uint32, fileName string, opts *bptree.Options) (Index, error) {
	switch typ {
	case types.TYPE_INT:
		return openTyped[int32](typ, fileName, types.IntCodec{}, opts)
	case types.TYPE_FLOAT:
		return openTyped[float32](typ, fileName, types.FloatCodec{}, opts)
	case types.TYPE_CHAR:
		return openTyped[byte](typ, fileName, types.CharCodec{}, opts)
	case types.TYPE_BOOL:
		return openTyped[bool](typ, fileName, types.BoolCodec{}, opts)
	case types.TYPE_STRING:
		return openTyped[string](typ, fileName, types.StringCodec{Width: int(size)}, opts)
	}
	return nil, errors.Errorf("no index for type %s", typ)
}

func openTyped[K any](code types.TypeCode, fileName string, key types.Codec[K], opts *bptree.Options) (Index, error) {
	tree, err := bptree.Open[K](fileName, key, opts)
	if err != nil {
		return nil, err
	}
	return &typedIndex[K]{code: code, tree: tree}, nil
}

func (ix *typedIndex[K]) key(v any) (K, error) {
	var zero K
	c, err := types.Coerce(ix.code, v)
	if err != nil {
		return zero, err
	}
	return c.(K), nil
}

func (ix *typedIndex[K]) bound(v any) (*K, error) {
	if v == nil {
		return nil, nil
	}
	k, err := ix.key(v)
	return &k, err
}

func (ix *typedIndex[K]) Type() types.TypeCode { return ix.code }

func (ix *typedIndex[K]) CanInsert(v any) error {
	k, err := ix.key(v)
	if err != nil {
		return err
	}
	return ix.tree.CanInsert(k)
}

func (ix *typedIndex[K]) Insert(v any, pk uint64, loc uint32) error {
	k, err := ix.key(v)
	if err != nil {
		return err
	}
	return ix.tree.Insert(k, pk, loc)
}

func (ix *typedIndex[K]) Delete(v any, loc uint32) (bool, error) {
	k, err := ix.key(v)
	if err != nil {
		return false, err
	}
	return ix.tree.Delete(k, loc)
}

func (ix *typedIndex[K]) Search(v any) ([]Hit, error) {
	k, err := ix.key(v)
	if err != nil {
		return nil, err
	}
	entries, err := ix.tree.Search(k)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(entries))
	for i, e := range entries {
		hits[i] = Hit{Key: e.Key, PK: e.PK, Loc: e.Loc}
	}
	return hits, nil
}

func (ix *typedIndex[K]) Range(lo, hi any, fn func(Hit) (bool, error)) error {
	l, err := ix.bound(lo)
	if err != nil {
		return err
	}
	h, err := ix.bound(hi)
	if err != nil {
		return err
	}
	return ix.tree.Range(l, h, func(e bptree.Entry[K]) (bool, error) {
		return fn(Hit{Key: e.Key, PK: e.PK, Loc: e.Loc})
	})
}

func (ix *typedIndex[K]) Len() uint64     { return ix.tree.Len() }
func (ix *typedIndex[K]) Degree() int     { return ix.tree.Degree() }
func (ix *typedIndex[K]) Counter() uint64 { return ix.tree.Counter() }
func (ix *typedIndex[K]) Check() error    { return ix.tree.Check() }
func (ix *typedIndex[K]) Flush() error    { return ix.tree.Flush() }
func (ix *typedIndex[K]) Close() error    { return ix.tree.Close() }
func (ix *typedIndex[K]) String() string  { return ix.tree.String() }
func (ix *typedIndex[K]) sealed()         {}
