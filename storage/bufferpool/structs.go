package bufferpool

import (
	"sync"

	"coldb/storage/diskmanager"
	"coldb/storage/page"
)

// BufferPool is the single bounded cache of page frames shared by the
// whole storage core. One mutex guards the page table, free list and
// replacer; frame content itself is guarded independently by each
// frame's own latch, acquired only by callers, never by the pool.
type BufferPool struct {
	mu        sync.Mutex
	pageFile  *diskmanager.PageFile
	frames    []*page.Frame
	pageTable map[page.ID]int // page id -> frame index
	freeList  []int           // frame indices holding no page
	replacer  []int           // resident frame indices, pinned or not; front = LRU, back = MRU
}

// Stats is a snapshot of buffer pool occupancy, for diagnostics only.
type Stats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
}

// evicted carries a victim frame's pre-eviction state out past the
// point where the pool mutex is released, so its write-back (if
// dirty) happens without the mutex held.
type evicted struct {
	id       page.ID
	dirty    bool
	snapshot [page.Size]byte
}
