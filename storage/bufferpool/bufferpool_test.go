package bufferpool

import (
	"path/filepath"
	"testing"

	"coldb/storage/diskmanager"
	"coldb/storage/page"
)

func newTestPool(t *testing.T, capacity int) *BufferPool {
	t.Helper()
	pf, err := diskmanager.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	t.Cleanup(func() { pf.Close() })
	return New(capacity, pf)
}

func TestNewPageIsPinnedAndDirty(t *testing.T) {
	bp := newTestPool(t, 4)

	id, frame, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if frame.PinCount != 1 {
		t.Errorf("PinCount: expected 1, got %d", frame.PinCount)
	}
	if !frame.Dirty {
		t.Errorf("new page should start dirty")
	}
	if id == page.InvalidID {
		t.Errorf("NewPage returned invalid id")
	}
}

func TestFetchPageHitsCache(t *testing.T) {
	bp := newTestPool(t, 4)

	id, frame, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	frame.WLatch()
	frame.Data[0] = 42
	frame.WUnlatch()
	if err := bp.Unpin(id, true); err != nil {
		t.Fatalf("Unpin: %v", err)
	}

	got, err := bp.FetchPage(id)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	got.RLatch()
	defer got.RUnlatch()
	if got.Data[0] != 42 {
		t.Errorf("fetched frame content mismatch: expected 42, got %d", got.Data[0])
	}
	if err := bp.Unpin(id, false); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
}

func TestEvictionWritesBackDirtyVictim(t *testing.T) {
	bp := newTestPool(t, 2)

	ids := make([]page.ID, 3)
	for i := range ids {
		id, frame, err := bp.NewPage()
		if err != nil {
			t.Fatalf("NewPage %d: %v", i, err)
		}
		frame.WLatch()
		frame.Data[0] = byte(i + 1)
		frame.WUnlatch()
		ids[i] = id
		if err := bp.Unpin(id, true); err != nil {
			t.Fatalf("Unpin %d: %v", i, err)
		}
	}

	// Pool capacity is 2 and all three pages were unpinned, so the
	// third NewPage call must have evicted one of the first two,
	// writing its dirty content back to disk first.
	frame, err := bp.FetchPage(ids[0])
	if err != nil {
		t.Fatalf("FetchPage(%d): %v", ids[0], err)
	}
	frame.RLatch()
	got := frame.Data[0]
	frame.RUnlatch()
	if got != 1 {
		t.Errorf("evicted page content lost: expected 1, got %d", got)
	}
	bp.Unpin(ids[0], false)
}

func TestPinnedPageIsNotEvicted(t *testing.T) {
	bp := newTestPool(t, 1)

	id1, _, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	// id1 stays pinned — never Unpin it.

	if _, _, err := bp.NewPage(); err == nil {
		t.Errorf("expected error allocating a new page while the only frame is pinned")
	}

	stats := bp.Stats()
	if stats.PinnedPages != 1 {
		t.Errorf("PinnedPages: expected 1, got %d", stats.PinnedPages)
	}
	_ = id1
}

func TestUnpinUnknownPageErrors(t *testing.T) {
	bp := newTestPool(t, 2)
	if err := bp.Unpin(page.ID(999), false); err == nil {
		t.Errorf("expected error unpinning a page never fetched")
	}
}

func TestFlushAllClearsDirtyBit(t *testing.T) {
	bp := newTestPool(t, 4)

	id, frame, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := bp.Unpin(id, true); err != nil {
		t.Fatalf("Unpin: %v", err)
	}

	if err := bp.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	stats := bp.Stats()
	if stats.DirtyPages != 0 {
		t.Errorf("DirtyPages after FlushAll: expected 0, got %d", stats.DirtyPages)
	}
	_ = frame
}
