package table

// Cursor walks row locations [0, numRows) of a table.
type Cursor struct {
	table      *Table
	row        uint32
	endOfTable bool
	// free is the free-row set taken when a live cursor starts.
	free map[uint32]struct{}
}

// Start returns a cursor on row 0.
func (t *Table) Start() *Cursor {
	return &Cursor{table: t, row: 0, endOfTable: t.numRows == 0}
}

// End returns a cursor past the last row.
func (t *Table) End() *Cursor {
	return &Cursor{table: t, row: t.numRows, endOfTable: true}
}

// StartLive returns a cursor that skips slots on the free-row stack.
func (t *Table) StartLive() *Cursor {
	c := &Cursor{table: t, free: t.freeSet()}
	c.settle()
	return c
}

// Advance moves to the next row.
func (c *Cursor) Advance() {
	if c.endOfTable {
		return
	}
	c.row++
	c.settle()
}

func (c *Cursor) settle() {
	if c.free != nil {
		for c.row < c.table.numRows {
			if _, ok := c.free[c.row]; !ok {
				break
			}
			c.row++
		}
	}
	c.endOfTable = c.row >= c.table.numRows
}

func (c *Cursor) Row() uint32 { return c.row }

func (c *Cursor) EndOfTable() bool { return c.endOfTable }

// Value reads the row under the cursor.
func (c *Cursor) Value() ([]any, error) {
	return c.table.ReadRow(c.row)
}

func (t *Table) freeSet() map[uint32]struct{} {
	slots := t.FreeSlots()
	set := make(map[uint32]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}
