// Catalog page-0 binary layout (all values little-endian):
//
//	Offset  Size  Field
//	───────────────────────────────────────────────
//	0       4     Magic        uint32  — must equal magicValue
//	4       4     TableCount   int32
//	8       ...   Table records, one per table (variable length)
//	...     8     Checksum     uint64  — xxhash64 of bytes [0:len-8]
//	───────────────────────────────────────────────
//
// Each table record:
//
//	Offset  Size  Field
//	───────────────────────────────────────────────
//	0       32    Name         NUL-padded
//	32      4     ColumnCount  int32
//	36      ...   Column records, one per column
//	───────────────────────────────────────────────
//
// Each column record:
//
//	Offset  Size  Field
//	───────────────────────────────────────────────
//	0       32    Name         NUL-padded
//	32      4     Type         int32
//	36      4     FirstPageID  int32
//	───────────────────────────────────────────────
//	40            columnRecordSize
package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"coldb/storage/page"
)

const (
	magicOffset      = 0
	tableCountOffset = 4
	recordsOffset    = 8

	nameSize            = 32
	tableHeaderSize     = nameSize + 4 // name + column count
	columnRecordSize    = nameSize + 4 + 4
	checksumSize        = 8
	minTableRecordSize  = tableHeaderSize // zero-column table

	magicValue uint32 = 0xDEADBEEF

	// maxTableCount bounds TableCount against garbage from a torn
	// write: a table record can never be smaller than
	// minTableRecordSize, so more tables than that could fit is
	// impossible on a single page.
	maxTableCount = (page.Size - recordsOffset - checksumSize) / minTableRecordSize
)

func putName(dst []byte, name string) error {
	if len(name) >= nameSize {
		return fmt.Errorf("catalog: name %q exceeds %d bytes", name, nameSize-1)
	}
	for i := range dst[:nameSize] {
		dst[i] = 0
	}
	copy(dst, name)
	return nil
}

func getName(src []byte) string {
	n := 0
	for n < nameSize && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

// encode renders schemas into a fresh page-0 image, magic header and
// trailing checksum included. Returns an error if the schemas don't
// fit in one page.
func encode(schemas map[string]TableSchema) ([page.Size]byte, error) {
	var buf [page.Size]byte

	binary.LittleEndian.PutUint32(buf[magicOffset:], magicValue)
	binary.LittleEndian.PutUint32(buf[tableCountOffset:], uint32(len(schemas)))

	offset := recordsOffset
	for _, schema := range schemas {
		recordSize := tableHeaderSize + len(schema.Columns)*columnRecordSize
		if offset+recordSize+checksumSize > page.Size {
			return buf, fmt.Errorf("catalog: schemas do not fit in one page")
		}

		if err := putName(buf[offset:], schema.Name); err != nil {
			return buf, err
		}
		binary.LittleEndian.PutUint32(buf[offset+nameSize:], uint32(len(schema.Columns)))
		offset += tableHeaderSize

		for _, col := range schema.Columns {
			if err := putName(buf[offset:], col.Name); err != nil {
				return buf, err
			}
			binary.LittleEndian.PutUint32(buf[offset+nameSize:], uint32(col.Type))
			binary.LittleEndian.PutUint32(buf[offset+nameSize+4:], uint32(int32(col.FirstPageID)))
			offset += columnRecordSize
		}
	}

	checksum := xxhash.Sum64(buf[:page.Size-checksumSize])
	binary.LittleEndian.PutUint64(buf[page.Size-checksumSize:], checksum)

	return buf, nil
}

// decode parses a page-0 image previously written by encode, verifying
// the magic number, the checksum, and a sanity bound on table count
// before trusting any of the table records that follow.
func decode(buf [page.Size]byte) (map[string]TableSchema, error) {
	magic := binary.LittleEndian.Uint32(buf[magicOffset:])
	if magic != magicValue {
		return nil, fmt.Errorf("catalog: corrupted: bad magic number %#x", magic)
	}

	wantChecksum := binary.LittleEndian.Uint64(buf[page.Size-checksumSize:])
	gotChecksum := xxhash.Sum64(buf[:page.Size-checksumSize])
	if wantChecksum != gotChecksum {
		return nil, fmt.Errorf("catalog: corrupted: checksum mismatch")
	}

	tableCount := int32(binary.LittleEndian.Uint32(buf[tableCountOffset:]))
	if tableCount < 0 || int(tableCount) > maxTableCount {
		return nil, fmt.Errorf("catalog: corrupted: implausible table count %d", tableCount)
	}

	schemas := make(map[string]TableSchema, tableCount)
	offset := recordsOffset
	for i := int32(0); i < tableCount; i++ {
		if offset+tableHeaderSize+checksumSize > page.Size {
			return nil, fmt.Errorf("catalog: corrupted: table record %d runs past page end", i)
		}
		name := getName(buf[offset:])
		columnCount := int32(binary.LittleEndian.Uint32(buf[offset+nameSize:]))
		offset += tableHeaderSize

		if columnCount < 0 || offset+int(columnCount)*columnRecordSize+checksumSize > page.Size {
			return nil, fmt.Errorf("catalog: corrupted: table %q has implausible column count %d", name, columnCount)
		}

		columns := make([]Column, columnCount)
		for c := int32(0); c < columnCount; c++ {
			columns[c] = Column{
				Name:        getName(buf[offset:]),
				Type:        DataType(int32(binary.LittleEndian.Uint32(buf[offset+nameSize:]))),
				FirstPageID: page.ID(int32(binary.LittleEndian.Uint32(buf[offset+nameSize+4:]))),
			}
			offset += columnRecordSize
		}

		schemas[name] = TableSchema{Name: name, Columns: columns}
	}

	return schemas, nil
}
