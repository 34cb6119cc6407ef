package table

import (
	"sync"

	"coldb/storage/bufferpool"
	"coldb/storage/catalog"
	"coldb/storage/page"
)

// Table is a row-oriented API over a set of independent per-column
// page chains, each holding that column's int64 values in insertion
// order. Row i is the i-th value in every column's chain; there is no
// on-disk row id, only position.
type Table struct {
	mu          sync.Mutex
	schema      catalog.TableSchema
	bp          *bufferpool.BufferPool
	numRows     int64
	lastPageIDs []page.ID // tail page of each column's chain, by column index
}

// Schema returns the table's column schema.
func (t *Table) Schema() catalog.TableSchema {
	return t.schema
}

// GetNumRows returns the number of rows currently stored.
func (t *Table) GetNumRows() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numRows
}
