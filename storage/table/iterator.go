package table

import (
	"fmt"

	"coldb/storage/catalog"
	"coldb/storage/columnpage"
	"coldb/storage/page"
)

// Iterator is a forward-only cursor over a table's rows in insertion
// order. It holds no page pinned between calls — each Row() walks the
// relevant column chains fresh, exactly like the original's iterator,
// since there is no row index to cache a position into.
type Iterator struct {
	table *Table
	rowID int64
}

// Scan returns an Iterator positioned before the first row.
func (t *Table) Scan() *Iterator {
	return &Iterator{table: t, rowID: 0}
}

// Next reports whether a row is available at the current position. It
// does not move the iterator; Row does.
func (it *Iterator) Next() bool {
	if it.rowID >= it.table.GetNumRows() {
		return false
	}
	return true
}

// Row returns the current row's values, in schema column order, and
// advances the iterator past it.
func (it *Iterator) Row() ([]int64, error) {
	values := make([]int64, len(it.table.schema.Columns))
	for i, col := range it.table.schema.Columns {
		v, err := it.table.valueAtRow(col, it.rowID)
		if err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", it.rowID, col.Name, err)
		}
		values[i] = v
	}
	it.rowID++
	return values, nil
}

// valueAtRow walks col's page chain from the head, subtracting each
// page's value count from rowID until the row falls within the
// current page, then reads it out.
func (t *Table) valueAtRow(col catalog.Column, rowID int64) (int64, error) {
	remaining := rowID
	id := col.FirstPageID

	for {
		frame, err := t.bp.FetchPage(id)
		if err != nil {
			return 0, fmt.Errorf("fetch page %d: %w", id, err)
		}

		frame.RLatch()
		count := int64(columnpage.ValueCount(frame))
		var value int64
		found := remaining < count
		if found {
			value = columnpage.ValueAt(frame, uint32(remaining))
		}
		next := columnpage.NextPageID(frame)
		frame.RUnlatch()

		if err := t.bp.Unpin(id, false); err != nil {
			return 0, err
		}

		if found {
			return value, nil
		}

		remaining -= count
		if next == page.InvalidID {
			return 0, fmt.Errorf("row %d out of range", rowID)
		}
		id = next
	}
}
