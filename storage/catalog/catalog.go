// Package catalog is the schema registry for the database: it maps
// table names to their column layout and persists that mapping on
// page 0 of the backing buffer pool, the one page every database
// reserves for its own bookkeeping.
package catalog

import (
	"fmt"

	"coldb/storage/bufferpool"
	"coldb/storage/columnpage"
	"coldb/storage/page"
)

// Open loads the catalog from page 0 of bp. A page 0 that is still
// all zero (a brand new database file) is treated as an empty,
// freshly-initialized catalog rather than corruption; anything else
// with a bad magic number or checksum is fatal.
func Open(bp *bufferpool.BufferPool) (*Catalog, error) {
	frame, err := bp.FetchPage(PageID)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	frame.WLatch()

	if isZero(frame.Data) {
		cat := &Catalog{bp: bp, schemas: make(map[string]TableSchema)}
		persistErr := cat.persistLocked(frame)
		frame.WUnlatch()
		if persistErr != nil {
			bp.Unpin(PageID, false)
			return nil, fmt.Errorf("catalog: initializing fresh catalog: %w", persistErr)
		}
		if err := bp.Unpin(PageID, true); err != nil {
			return nil, fmt.Errorf("catalog: initializing fresh catalog: %w", err)
		}
		if err := bp.FlushPage(PageID); err != nil {
			return nil, fmt.Errorf("catalog: initializing fresh catalog: %w", err)
		}
		return cat, nil
	}

	schemas, decodeErr := decode(frame.Data)
	frame.WUnlatch()
	if decodeErr != nil {
		bp.Unpin(PageID, false)
		return nil, fmt.Errorf("catalog: open: %w", decodeErr)
	}
	bp.Unpin(PageID, false)

	return &Catalog{bp: bp, schemas: schemas}, nil
}

func isZero(buf [page.Size]byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// TableExists reports whether name has been registered.
func (c *Catalog) TableExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.schemas[name]
	return ok
}

// GetTableSchema returns the schema registered for name.
func (c *Catalog) GetTableSchema(name string) (TableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	schema, ok := c.schemas[name]
	if !ok {
		return TableSchema{}, fmt.Errorf("catalog: table %q not found", name)
	}
	return schema, nil
}

// TableNames returns the names of every registered table.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	return names
}

// CreateTable registers a new table, allocating one fresh, empty
// column page per column and recording its id as that column's chain
// head. If allocation fails partway through the column list, the
// pages already allocated for earlier columns are not reclaimed —
// there is no free-page list in this storage core to return them to,
// matching the original catalog's own behavior on a failed create.
func (c *Catalog) CreateTable(name string, columnDefs []ColumnDef) (TableSchema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.schemas[name]; exists {
		return TableSchema{}, fmt.Errorf("catalog: table %q already exists", name)
	}
	if len(columnDefs) == 0 {
		return TableSchema{}, fmt.Errorf("catalog: table %q must have at least one column", name)
	}

	columns := make([]Column, len(columnDefs))
	for i, def := range columnDefs {
		id, frame, err := c.bp.NewPage()
		if err != nil {
			return TableSchema{}, fmt.Errorf("catalog: allocating column %q of table %q: %w", def.Name, name, err)
		}
		frame.WLatch()
		columnpage.Init(frame)
		frame.WUnlatch()
		if err := c.bp.Unpin(id, true); err != nil {
			return TableSchema{}, fmt.Errorf("catalog: unpin new column page: %w", err)
		}

		columns[i] = Column{Name: def.Name, Type: def.Type, FirstPageID: id}
	}

	schema := TableSchema{Name: name, Columns: columns}
	c.schemas[name] = schema

	if err := c.persist(); err != nil {
		delete(c.schemas, name)
		return TableSchema{}, fmt.Errorf("catalog: persisting table %q: %w", name, err)
	}

	return schema, nil
}

// persist re-encodes the full schema map, writes it to page 0, and
// flushes page 0 so the catalog record is durable without the caller
// calling FlushAll. Only page 0 is flushed: the column head pages that
// CreateTable initialized stay dirty in the pool until they are
// evicted or flushed.
func (c *Catalog) persist() error {
	frame, err := c.bp.FetchPage(PageID)
	if err != nil {
		return err
	}
	frame.WLatch()
	err = c.persistLocked(frame)
	frame.WUnlatch()

	if unpinErr := c.bp.Unpin(PageID, err == nil); unpinErr != nil && err == nil {
		err = unpinErr
	}
	if err != nil {
		return err
	}
	if err := c.bp.FlushPage(PageID); err != nil {
		return err
	}
	return nil
}

// persistLocked encodes c.schemas into frame's content. Caller must
// hold frame's write latch and have it pinned.
func (c *Catalog) persistLocked(frame *page.Frame) error {
	buf, err := encode(c.schemas)
	if err != nil {
		return err
	}
	frame.Data = buf
	frame.Dirty = true
	return nil
}
