package catalog

import (
	"path/filepath"
	"testing"

	"coldb/storage/bufferpool"
	"coldb/storage/diskmanager"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	pf, err := diskmanager.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	t.Cleanup(func() { pf.Close() })

	bp := bufferpool.New(16, pf)
	cat, err := Open(bp)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return cat
}

func TestOpenFreshDatabaseHasNoTables(t *testing.T) {
	cat := newTestCatalog(t)
	if names := cat.TableNames(); len(names) != 0 {
		t.Errorf("fresh catalog should have no tables, got %v", names)
	}
}

func TestCreateTableThenLookup(t *testing.T) {
	cat := newTestCatalog(t)

	schema, err := cat.CreateTable("accounts", []ColumnDef{
		{Name: "id", Type: DataTypeBigInt},
		{Name: "balance", Type: DataTypeBigInt},
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if len(schema.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(schema.Columns))
	}
	for _, col := range schema.Columns {
		if col.FirstPageID < 1 {
			t.Errorf("column %q got implausible first page id %d", col.Name, col.FirstPageID)
		}
	}

	if !cat.TableExists("accounts") {
		t.Errorf("TableExists(accounts): expected true")
	}

	got, err := cat.GetTableSchema("accounts")
	if err != nil {
		t.Fatalf("GetTableSchema: %v", err)
	}
	if got.Name != "accounts" || len(got.Columns) != 2 {
		t.Errorf("GetTableSchema returned unexpected schema: %+v", got)
	}
}

func TestCreateDuplicateTableFails(t *testing.T) {
	cat := newTestCatalog(t)
	defs := []ColumnDef{{Name: "x", Type: DataTypeBigInt}}

	if _, err := cat.CreateTable("t", defs); err != nil {
		t.Fatalf("first CreateTable: %v", err)
	}
	if _, err := cat.CreateTable("t", defs); err == nil {
		t.Errorf("expected error creating a table that already exists")
	}
}

func TestCatalogSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	pf, err := diskmanager.Open(path)
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	bp := bufferpool.New(16, pf)
	cat, err := Open(bp)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	if _, err := cat.CreateTable("events", []ColumnDef{
		{Name: "ts", Type: DataTypeBigInt},
	}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := bp.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pf2, err := diskmanager.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pf2.Close()
	bp2 := bufferpool.New(16, pf2)
	cat2, err := Open(bp2)
	if err != nil {
		t.Fatalf("catalog.Open after reopen: %v", err)
	}

	schema, err := cat2.GetTableSchema("events")
	if err != nil {
		t.Fatalf("GetTableSchema after reopen: %v", err)
	}
	if len(schema.Columns) != 1 || schema.Columns[0].Name != "ts" {
		t.Errorf("schema not preserved across reopen: %+v", schema)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	var buf [4096]byte
	buf[0] = 0x01 // not the magic value, and not all-zero either
	if _, err := decode(buf); err == nil {
		t.Errorf("expected error decoding a page with a bad magic number")
	}
}
