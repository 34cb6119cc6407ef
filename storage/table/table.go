// Package table implements the row-level API over a table's column
// chains: insertion and sequential scan. It has no knowledge of SQL,
// predicates, or indexes — it only knows how to walk and extend the
// fixed-width int64 page chains the catalog allocated for it.
package table

import (
	"fmt"

	"coldb/storage/bufferpool"
	"coldb/storage/catalog"
	"coldb/storage/columnpage"
	"coldb/storage/page"
)

// New builds a Table handle for schema, walking every column's chain
// once to recover its row count and tail page. The row counts of all
// columns must agree — if one column's chain is shorter or longer
// than another's, New returns an error instead of silently trusting
// column 0, since a torn or partial insert otherwise surfaces as
// wrong answers far from its cause.
func New(schema catalog.TableSchema, bp *bufferpool.BufferPool) (*Table, error) {
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %q: schema has no columns", schema.Name)
	}

	lastPageIDs := make([]page.ID, len(schema.Columns))
	var numRows int64 = -1

	for i, col := range schema.Columns {
		count, tail, err := walkChain(bp, col.FirstPageID)
		if err != nil {
			return nil, fmt.Errorf("table %q: column %q: %w", schema.Name, col.Name, err)
		}
		lastPageIDs[i] = tail

		if numRows == -1 {
			numRows = count
		} else if count != numRows {
			return nil, fmt.Errorf("table %q: column %q has %d rows, expected %d (row count mismatch across columns)",
				schema.Name, col.Name, count, numRows)
		}
	}

	return &Table{schema: schema, bp: bp, numRows: numRows, lastPageIDs: lastPageIDs}, nil
}

// walkChain follows a column's page chain from head to tail, summing
// ValueCount along the way, and returns the total row count and the
// id of the tail page.
func walkChain(bp *bufferpool.BufferPool, head page.ID) (rows int64, tail page.ID, err error) {
	id := head
	for {
		frame, err := bp.FetchPage(id)
		if err != nil {
			return 0, page.InvalidID, fmt.Errorf("fetch page %d: %w", id, err)
		}
		frame.RLatch()
		rows += int64(columnpage.ValueCount(frame))
		next := columnpage.NextPageID(frame)
		frame.RUnlatch()
		if err := bp.Unpin(id, false); err != nil {
			return 0, page.InvalidID, err
		}

		if next == page.InvalidID {
			return rows, id, nil
		}
		id = next
	}
}

// InsertTuple appends one row. values must have exactly one entry per
// column, in schema order. Either every column's chain is extended and
// numRows is bumped, or an error is returned and numRows is left
// unchanged — but a failure partway through the column loop can still
// leave some columns' chains one value longer than others, the same
// risk spec.md's row-count-mismatch detection in New exists to catch.
func (t *Table) InsertTuple(values []int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(values) != len(t.schema.Columns) {
		return fmt.Errorf("table %q: insert has %d values, schema has %d columns",
			t.schema.Name, len(values), len(t.schema.Columns))
	}

	for i, v := range values {
		if err := t.appendToColumn(i, v); err != nil {
			return fmt.Errorf("table %q: column %q: %w", t.schema.Name, t.schema.Columns[i].Name, err)
		}
	}

	t.numRows++
	return nil
}

// appendToColumn writes v onto column i's tail page, allocating and
// linking a fresh tail first if the current one is full.
func (t *Table) appendToColumn(i int, v int64) error {
	id := t.lastPageIDs[i]
	frame, err := t.bp.FetchPage(id)
	if err != nil {
		return fmt.Errorf("fetch tail page %d: %w", id, err)
	}

	frame.WLatch()
	full := columnpage.IsFull(frame)
	frame.WUnlatch()

	if full {
		newID, newFrame, err := t.bp.NewPage()
		if err != nil {
			t.bp.Unpin(id, false)
			return fmt.Errorf("allocate new tail page: %w", err)
		}

		newFrame.WLatch()
		columnpage.Init(newFrame)
		newFrame.WUnlatch()

		frame.WLatch()
		columnpage.SetNextPageID(frame, newID)
		frame.WUnlatch()

		if err := t.bp.Unpin(id, true); err != nil {
			return err
		}

		t.lastPageIDs[i] = newID
		id = newID
		frame = newFrame
	}

	frame.WLatch()
	appendErr := columnpage.Append(frame, v)
	frame.WUnlatch()
	if appendErr != nil {
		t.bp.Unpin(id, false)
		return appendErr
	}

	return t.bp.Unpin(id, true)
}
