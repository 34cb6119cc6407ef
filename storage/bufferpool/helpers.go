package bufferpool

// Stats reports current pool occupancy: how many frames are resident,
// pinned, or dirty, against the pool's fixed capacity.
func (bp *BufferPool) Stats() Stats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := Stats{
		TotalPages: len(bp.pageTable),
		Capacity:   len(bp.frames),
	}
	for _, frameIdx := range bp.pageTable {
		frame := bp.frames[frameIdx]
		if frame.PinCount > 0 {
			stats.PinnedPages++
		}
		if frame.Dirty {
			stats.DirtyPages++
		}
	}
	return stats
}

// Size returns the number of frames currently holding a resident page.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pageTable)
}

// Capacity returns the fixed number of frames in the pool.
func (bp *BufferPool) Capacity() int {
	return len(bp.frames)
}
