package column

import (
	"fmt"

	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

// MaxNameSize is the on-disk width of a column name in the table header.
const MaxNameSize = 32

type Column struct {
	Name    string
	Typ     types.TypeCode
	Size    uint32
	Indexed bool
}

// New builds a column whose size is the type's fixed width. Use Sized for
// strings.
func New(name string, typ types.TypeCode) *Column {
	size, _ := typ.FixedSize()
	return &Column{Name: name, Typ: typ, Size: uint32(size)}
}

func Sized(name string, typ types.TypeCode, size uint32) *Column {
	return &Column{Name: name, Typ: typ, Size: size}
}

// WithIndex marks the column as indexed.
func (c *Column) WithIndex() *Column {
	c.Indexed = true
	return c
}

func (c *Column) String() string {
	return fmt.Sprintf("%s %s(%d)", c.Name, c.Typ, c.Size)
}

// Validate checks a single column definition.
func (c *Column) Validate() error {
	if c.Name == "" {
		return errors.Wrap(customerrors.ErrSchemaMismatch, "empty column name")
	} else if len(c.Name) > MaxNameSize {
		return errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"column name '%s' longer than %d bytes", c.Name, MaxNameSize,
		)
	}
	return errors.Wrapf(c.Typ.ValidateSize(c.Size), "column '%s'", c.Name)
}

// Split returns the parallel name/type/size sequences stored in a table
// header.
func Split(columns []*Column) (names []string, typs []types.TypeCode, sizes []uint32) {
	names = make([]string, len(columns))
	typs = make([]types.TypeCode, len(columns))
	sizes = make([]uint32, len(columns))
	for i, c := range columns {
		names[i], typs[i], sizes[i] = c.Name, c.Typ, c.Size
	}
	return names, typs, sizes
}
