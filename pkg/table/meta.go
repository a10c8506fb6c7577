package table

import (
	"go-rowdb/pkg/column"
	"go-rowdb/pkg/customerrors"
	"go-rowdb/pkg/pager"
	"go-rowdb/pkg/types"

	"github.com/pkg/errors"
)

// rowIDSize is the on-disk width of a row location.
const rowIDSize = 4

type fieldKind int

const (
	fieldNumRows fieldKind = iota
	fieldColumnCount
	fieldNames
	fieldSizes
	fieldTypes
	fieldStackPtr
)

// headerFields describes the metadata block at the start of page 0, in
// order. Store and load both walk this list, so the two can never disagree
// on an offset. The free-row stack starts right after the last field.
var headerFields = []struct {
	kind      fieldKind
	width     int
	perColumn bool
}{
	{fieldNumRows, rowIDSize, false},
	{fieldColumnCount, 4, false},
	{fieldNames, column.MaxNameSize, true},
	{fieldSizes, 4, true},
	{fieldTypes, 4, true},
	{fieldStackPtr, 4, false},
}

// metadata is the decoded header of a table file.
type metadata struct {
	numRows  uint32
	names    []string
	sizes    []uint32
	types    []types.TypeCode
	stackPtr int32
}

// headerLayout holds the byte offsets of every header field for a given
// column count.
type headerLayout struct {
	columns int
	offsets map[fieldKind]int
	// stackBase is the offset of free-row stack entry 0.
	stackBase int
}

func newHeaderLayout(columns int) headerLayout {
	l := headerLayout{columns: columns, offsets: make(map[fieldKind]int, len(headerFields))}
	offset := 0
	for _, f := range headerFields {
		l.offsets[f.kind] = offset
		if f.perColumn {
			offset += f.width * columns
		} else {
			offset += f.width
		}
	}
	l.stackBase = offset
	return l
}

// stackCapacity is how many free-row entries fit after the metadata block.
func (l headerLayout) stackCapacity() int {
	return (pager.PageSize - l.stackBase) / rowIDSize
}

func (l headerLayout) stackEntry(i int32) int {
	return l.stackBase + int(i)*rowIDSize
}

// marshal writes m into the header page. It fails before writing anything
// if m is inconsistent or does not fit.
func (l headerLayout) marshal(m *metadata, page *pager.Page) error {
	if len(m.names) != l.columns || len(m.sizes) != l.columns || len(m.types) != l.columns {
		return errors.Wrapf(
			customerrors.ErrSchemaMismatch,
			"%d names, %d sizes, %d types for %d columns",
			len(m.names), len(m.sizes), len(m.types), l.columns,
		)
	}
	if l.stackBase > pager.PageSize || int(m.stackPtr) > l.stackCapacity() {
		return errors.Wrapf(
			customerrors.ErrFreeListExhausted,
			"%d columns and %d free rows do not fit the header page", l.columns, m.stackPtr,
		)
	}

	for _, f := range headerFields {
		offset := l.offsets[f.kind]
		switch f.kind {
		case fieldNumRows:
			page.PutUint32(offset, m.numRows)
		case fieldColumnCount:
			page.PutInt32(offset, int32(l.columns))
		case fieldNames:
			for i, name := range m.names {
				page.Zero(offset+i*f.width, f.width)
				page.Write(offset+i*f.width, []byte(truncate(name, f.width)))
			}
		case fieldSizes:
			for i, size := range m.sizes {
				page.PutInt32(offset+i*f.width, int32(size))
			}
		case fieldTypes:
			for i, typ := range m.types {
				page.PutInt32(offset+i*f.width, int32(typ))
			}
		case fieldStackPtr:
			page.PutInt32(offset, m.stackPtr)
		}
	}
	return nil
}

// unmarshalHeader reads the metadata block from the header page, in the
// same field order marshal writes it.
func unmarshalHeader(page *pager.Page) (*metadata, headerLayout, error) {
	m := &metadata{}
	l := headerLayout{}

	offset := 0
	for _, f := range headerFields {
		width := f.width
		if f.perColumn {
			width *= l.columns
		}
		if offset+width > pager.PageSize {
			return nil, l, errors.Wrapf(customerrors.ErrCorruptFile, "header field %d past page end", f.kind)
		}

		switch f.kind {
		case fieldNumRows:
			m.numRows = page.Uint32(offset)
		case fieldColumnCount:
			count := page.Int32(offset)
			if count <= 0 || int(count)*(column.MaxNameSize+8) > pager.PageSize {
				return nil, l, errors.Wrapf(customerrors.ErrCorruptFile, "invalid column count %d", count)
			}
			l = newHeaderLayout(int(count))
		case fieldNames:
			m.names = make([]string, l.columns)
			for i := range m.names {
				at := offset + i*f.width
				m.names[i] = types.Decode(types.TYPE_STRING, page.Data[at:at+f.width]).(string)
			}
		case fieldSizes:
			m.sizes = make([]uint32, l.columns)
			for i := range m.sizes {
				m.sizes[i] = uint32(page.Int32(offset + i*f.width))
			}
		case fieldTypes:
			m.types = make([]types.TypeCode, l.columns)
			for i := range m.types {
				m.types[i] = types.TypeCode(page.Int32(offset + i*f.width))
				if !m.types[i].Valid() {
					return nil, l, errors.Wrapf(customerrors.ErrCorruptFile, "invalid type tag %d", m.types[i])
				}
			}
		case fieldStackPtr:
			m.stackPtr = page.Int32(offset)
		}
		offset += width
	}

	if m.stackPtr < 0 || int(m.stackPtr) > l.stackCapacity() {
		return nil, l, errors.Wrapf(customerrors.ErrCorruptFile, "invalid free stack pointer %d", m.stackPtr)
	}
	return m, l, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
