package catalog

import (
	"sync"

	"coldb/storage/bufferpool"
	"coldb/storage/page"
)

// DataType is the type tag stored for each column. BigInt is the only
// type this storage core knows how to lay out on a column page.
type DataType int32

const (
	DataTypeInvalid DataType = 0
	DataTypeBigInt  DataType = 1
)

// Column describes one column of a table: its name, its type, and the
// page id of the first page in its value chain.
type Column struct {
	Name        string
	Type        DataType
	FirstPageID page.ID
}

// TableSchema is one table's full column list, in declaration order.
type TableSchema struct {
	Name    string
	Columns []Column
}

// ColumnDef is the input shape for Catalog.CreateTable: a name and
// type, with no page assigned yet — CreateTable allocates those.
type ColumnDef struct {
	Name string
	Type DataType
}

// Catalog is the schema registry for the database: table name to
// TableSchema, persisted on page 0 of the backing BufferPool.
type Catalog struct {
	mu      sync.RWMutex
	bp      *bufferpool.BufferPool
	schemas map[string]TableSchema
}

// PageID is the fixed, reserved location of the catalog's own record.
const PageID page.ID = 0
