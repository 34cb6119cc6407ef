// Package bufferpool implements the bounded in-memory cache of page
// frames sitting in front of a storage/diskmanager.PageFile. It works
// like the teacher's LRU-based pool (storage_engine/bufferpool), with
// one deliberate departure: fetch/new never perform disk I/O while
// holding the pool mutex. A victim frame's state is snapshotted under
// the mutex, the mutex is released, and only then is the write-back
// (if dirty) and the subsequent read issued — so one slow disk access
// never blocks every other fetch racing for the pool mutex.
package bufferpool

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"coldb/storage/diskmanager"
	"coldb/storage/page"
)

// New creates a buffer pool of the given capacity backed by pageFile.
func New(capacity int, pageFile *diskmanager.PageFile) *BufferPool {
	frames := make([]*page.Frame, capacity)
	freeList := make([]int, capacity)
	for i := range frames {
		frames[i] = page.NewFrame()
		freeList[i] = i
	}

	return &BufferPool{
		pageFile:  pageFile,
		frames:    frames,
		pageTable: make(map[page.ID]int, capacity),
		freeList:  freeList,
		replacer:  make([]int, 0, capacity),
	}
}

// FetchPage returns the frame holding id, pinned for the caller.
// Callers must Unpin it when done. On a cache hit no I/O occurs; on a
// miss the page is read from the backing PageFile, evicting a victim
// frame first if the pool is full.
func (bp *BufferPool) FetchPage(id page.ID) (*page.Frame, error) {
	bp.mu.Lock()
	if frameIdx, ok := bp.pageTable[id]; ok {
		frame := bp.frames[frameIdx]
		frame.PinCount++
		bp.touchReplacer(frameIdx)
		bp.mu.Unlock()
		fmt.Printf("[BufferPool] HIT page=%d pin_count=%d\n", id, frame.PinCount)
		return frame, nil
	}

	frameIdx, victim, err := bp.reserveFrameLocked()
	bp.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("bufferpool: fetch page %d: %w", id, err)
	}

	fmt.Printf("[BufferPool] MISS page=%d loading from disk\n", id)

	if victim != nil && victim.dirty {
		if err := bp.pageFile.WritePage(victim.id, victim.snapshot); err != nil {
			bp.releaseReservedFrame(frameIdx)
			return nil, fmt.Errorf("bufferpool: write back page %d evicting for %d: %w", victim.id, id, err)
		}
	}

	var buf [page.Size]byte
	if err := bp.pageFile.ReadPage(id, &buf); err != nil {
		bp.releaseReservedFrame(frameIdx)
		return nil, fmt.Errorf("bufferpool: fetch page %d: %w", id, err)
	}

	bp.mu.Lock()
	frame := bp.frames[frameIdx]
	frame.MarkResident(id, 1)
	frame.Load(buf)
	bp.pageTable[id] = frameIdx
	bp.touchReplacer(frameIdx)
	bp.mu.Unlock()

	return frame, nil
}

// NewPage allocates a fresh page on the backing PageFile and returns
// its frame, pinned and marked dirty (it has never been written).
func (bp *BufferPool) NewPage() (page.ID, *page.Frame, error) {
	bp.mu.Lock()
	frameIdx, victim, err := bp.reserveFrameLocked()
	bp.mu.Unlock()
	if err != nil {
		return page.InvalidID, nil, fmt.Errorf("bufferpool: new page: %w", err)
	}

	if victim != nil && victim.dirty {
		if err := bp.pageFile.WritePage(victim.id, victim.snapshot); err != nil {
			bp.releaseReservedFrame(frameIdx)
			return page.InvalidID, nil, fmt.Errorf("bufferpool: write back page %d evicting for new page: %w", victim.id, err)
		}
	}

	id, err := bp.pageFile.AllocatePage()
	if err != nil {
		bp.releaseReservedFrame(frameIdx)
		return page.InvalidID, nil, fmt.Errorf("bufferpool: new page: %w", err)
	}

	bp.mu.Lock()
	frame := bp.frames[frameIdx]
	frame.MarkResident(id, 1)
	frame.Dirty = true
	bp.pageTable[id] = frameIdx
	bp.touchReplacer(frameIdx)
	bp.mu.Unlock()

	fmt.Printf("[BufferPool] NEW page=%d\n", id)
	return id, frame, nil
}

// Unpin decrements id's pin count. dirty, if true, marks the page
// dirty; the dirty bit is sticky and is never cleared here.
func (bp *BufferPool) Unpin(id page.ID, dirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameIdx, ok := bp.pageTable[id]
	if !ok {
		return fmt.Errorf("bufferpool: unpin page %d: not resident", id)
	}
	bp.frames[frameIdx].Unpin(dirty)
	return nil
}

// FlushPage writes id's frame back to the PageFile if dirty.
func (bp *BufferPool) FlushPage(id page.ID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushLocked(id)
}

// FlushAll writes every dirty resident frame back to the PageFile.
func (bp *BufferPool) FlushAll() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for id := range bp.pageTable {
		if err := bp.flushLocked(id); err != nil {
			return err
		}
	}
	return nil
}

func (bp *BufferPool) flushLocked(id page.ID) error {
	frameIdx, ok := bp.pageTable[id]
	if !ok {
		return fmt.Errorf("bufferpool: flush page %d: not resident", id)
	}
	frame := bp.frames[frameIdx]
	if !frame.Dirty {
		return nil
	}
	if err := bp.pageFile.WritePage(id, frame.Data); err != nil {
		return fmt.Errorf("bufferpool: flush page %d: %w", id, err)
	}
	frame.Dirty = false
	return nil
}

// reserveFrameLocked returns a frame index ready for a new residency,
// drawing from the free list first and falling back to evicting the
// least-recently-used unpinned frame. The caller must hold bp.mu and
// must release it before doing any I/O on the returned victim. If a
// frame was evicted, its pre-eviction id/dirty/content is returned in
// evicted so the caller can write it back once the mutex is released.
func (bp *BufferPool) reserveFrameLocked() (frameIdx int, ev *evicted, err error) {
	if n := len(bp.freeList); n > 0 {
		frameIdx = bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return frameIdx, nil, nil
	}

	for i, candidate := range bp.replacer {
		frame := bp.frames[candidate]
		if frame.PinCount > 0 {
			continue
		}

		bp.replacer = append(bp.replacer[:i], bp.replacer[i+1:]...)
		delete(bp.pageTable, frame.ID)

		ev = &evicted{id: frame.ID, dirty: frame.Dirty, snapshot: frame.Snapshot()}
		fmt.Printf("[BufferPool] EVICT page=%d dirty=%v footprint=%s\n",
			ev.id, ev.dirty, humanize.Bytes(uint64(len(bp.frames))*page.Size))
		frame.Reset()
		return candidate, ev, nil
	}

	return 0, nil, fmt.Errorf("all %d frames pinned", len(bp.frames))
}

// releaseReservedFrame returns a frame reserved by reserveFrameLocked
// back to the free list, used when I/O fails after reservation and
// before the frame is given a new residency.
func (bp *BufferPool) releaseReservedFrame(frameIdx int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.freeList = append(bp.freeList, frameIdx)
}

// touchReplacer moves frameIdx to the most-recently-used end. Caller
// must hold bp.mu.
func (bp *BufferPool) touchReplacer(frameIdx int) {
	for i, idx := range bp.replacer {
		if idx == frameIdx {
			bp.replacer = append(bp.replacer[:i], bp.replacer[i+1:]...)
			break
		}
	}
	bp.replacer = append(bp.replacer, frameIdx)
}
