package table

import (
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"

	"github.com/pkg/errors"
)

// Geometry derives where a row lives from the row size.
type Geometry struct {
	RowSize     uint32
	RowsPerPage uint32
}

func newGeometry(rowSize uint32) (Geometry, error) {
	if rowSize == 0 || rowSize > pager.PageSize {
		return Geometry{}, errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"row size %d not in [1, %d]", rowSize, pager.PageSize,
		)
	}
	return Geometry{RowSize: rowSize, RowsPerPage: pager.PageSize / rowSize}, nil
}

// Page returns the ordinal of the data page holding loc.
func (g Geometry) Page(loc uint32) uint32 {
	return loc / g.RowsPerPage
}

// Offset returns the byte offset of loc inside its data page.
func (g Geometry) Offset(loc uint32) uint32 {
	return (loc % g.RowsPerPage) * g.RowSize
}

// PagerIndex returns the file page holding loc. Data pages follow the
// header page.
func (g Geometry) PagerIndex(loc uint32) uint32 {
	return dataPageBase + g.Page(loc)
}
