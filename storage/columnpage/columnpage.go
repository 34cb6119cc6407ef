// Package columnpage defines the on-disk layout of one page of a
// column's int64 value chain, and the standalone functions that read
// and write that layout against a *page.Frame. Functions, not
// methods, because the page layout lives here while the frame type
// lives in storage/page — the same split the teacher uses between
// storage_engine/access/heapfile_manager and storage_engine/page.
//
// Column page binary layout (all values little-endian):
//
//	Offset  Size  Field
//	────────────────────────────────────────────
//	0       4     NextPageID   int32  — InvalidID if this is the tail
//	4       4     ValueCount   uint32 — live int64 values on this page
//	8       ...   Values       int64 × MaxValues
//	────────────────────────────────────────────
//	8             HeaderSize
package columnpage

import (
	"encoding/binary"
	"fmt"

	"coldb/storage/page"
)

const (
	offNextPageID = 0 // int32  (4)
	offValueCount = 4 // uint32 (4)

	// HeaderSize is the fixed header size in bytes; values start here.
	HeaderSize = 8

	valueSize = 8 // int64

	// MaxValues is the number of int64 slots that fit after the header.
	MaxValues = (page.Size - HeaderSize) / valueSize
)

// Init stamps a fresh, empty column page into frame's content: no
// next page, zero values, and a zeroed value region. Marks the frame
// dirty — callers must have it pinned via BufferPool.NewPage.
func Init(frame *page.Frame) {
	frame.Data = [page.Size]byte{}
	SetNextPageID(frame, page.InvalidID)
	SetValueCount(frame, 0)
	frame.Dirty = true
}

// NextPageID returns the id of the next page in this column's chain,
// or page.InvalidID if this is the tail page.
func NextPageID(frame *page.Frame) page.ID {
	return page.ID(int32(binary.LittleEndian.Uint32(frame.Data[offNextPageID:])))
}

// SetNextPageID sets the next-page link and marks the frame dirty.
func SetNextPageID(frame *page.Frame, id page.ID) {
	binary.LittleEndian.PutUint32(frame.Data[offNextPageID:], uint32(int32(id)))
	frame.Dirty = true
}

// ValueCount returns the number of live values stored on this page.
func ValueCount(frame *page.Frame) uint32 {
	return binary.LittleEndian.Uint32(frame.Data[offValueCount:])
}

// SetValueCount sets the live value count and marks the frame dirty.
func SetValueCount(frame *page.Frame, n uint32) {
	binary.LittleEndian.PutUint32(frame.Data[offValueCount:], n)
	frame.Dirty = true
}

// IsFull reports whether this page already holds MaxValues values.
func IsFull(frame *page.Frame) bool {
	return ValueCount(frame) >= MaxValues
}

// ValueAt returns the value stored at idx, which must be < ValueCount.
func ValueAt(frame *page.Frame, idx uint32) int64 {
	offset := HeaderSize + int(idx)*valueSize
	return int64(binary.LittleEndian.Uint64(frame.Data[offset:]))
}

// Append writes v into the next free slot and bumps the value count.
// Returns an error if the page is already full — the caller must
// allocate a new tail page and link it instead.
func Append(frame *page.Frame, v int64) error {
	count := ValueCount(frame)
	if count >= MaxValues {
		return fmt.Errorf("columnpage: page full (%d values)", MaxValues)
	}
	offset := HeaderSize + int(count)*valueSize
	binary.LittleEndian.PutUint64(frame.Data[offset:], uint64(v))
	SetValueCount(frame, count+1)
	return nil
}
