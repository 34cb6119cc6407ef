// Package diskmanager owns the on-disk image of a database: a single
// file opened for random read/write, divided into fixed-size pages.
// It knows nothing about caching or pinning — that is the BufferPool's
// job one layer up. All it does is allocate, read, and write pages,
// serialized by a single mutex exactly like the buffer pool's own
// page table, never the reverse (see storage/bufferpool).
package diskmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"

	"coldb/storage/page"
)

// PageFile is the single-file backing store for a database. On
// construction, if the file does not exist or is empty it is created
// and page 0 is allocated and zeroed out; otherwise the next page id
// is derived from the existing file size.
type PageFile struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	nextPageID page.ID
	lock       fileLock
}

// Open opens or creates path as a PageFile, taking an advisory
// exclusive lock on it for the lifetime of the returned PageFile.
func Open(path string) (*PageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("diskmanager: open %s: %w", path, err)
	}

	var lock fileLock
	if err := lock.acquire(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("diskmanager: lock %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		lock.release(file)
		file.Close()
		return nil, fmt.Errorf("diskmanager: stat %s: %w", path, err)
	}

	pf := &PageFile{file: file, path: path, lock: lock}

	if stat.Size() == 0 {
		var zero [page.Size]byte
		if _, err := file.WriteAt(zero[:], 0); err != nil {
			lock.release(file)
			file.Close()
			return nil, fmt.Errorf("diskmanager: allocate page 0 of %s: %w", path, err)
		}
		if err := file.Sync(); err != nil {
			lock.release(file)
			file.Close()
			return nil, fmt.Errorf("diskmanager: sync %s: %w", path, err)
		}
		pf.nextPageID = 1
	} else {
		pf.nextPageID = page.ID(stat.Size() / page.Size)
	}

	fmt.Printf("[PageFile] opened %s size=%s next_page_id=%d\n",
		path, humanize.Bytes(uint64(stat.Size())), pf.nextPageID)

	return pf, nil
}

// AllocatePage reserves and durably materializes the next page id,
// writing a zeroed page to disk before returning so that a later
// ReadPage for this id never hits a hole in the file.
func (pf *PageFile) AllocatePage() (page.ID, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	id := pf.nextPageID
	pf.nextPageID++

	var zero [page.Size]byte
	offset := int64(id) * page.Size
	if _, err := pf.file.WriteAt(zero[:], offset); err != nil {
		return page.InvalidID, fmt.Errorf("diskmanager: allocate page %d: %w", id, err)
	}
	if err := pf.file.Sync(); err != nil {
		return page.InvalidID, fmt.Errorf("diskmanager: sync after allocate page %d: %w", id, err)
	}

	return id, nil
}

// ReadPage fills buf with the contents of page id. A short read past
// the current end of file is padded with zeros rather than treated as
// an error, matching the original disk manager's tolerance for a file
// that has not yet been extended to cover every allocated id.
func (pf *PageFile) ReadPage(id page.ID, buf *[page.Size]byte) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	*buf = [page.Size]byte{}

	offset := int64(id) * page.Size
	_, err := pf.file.ReadAt(buf[:], offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("diskmanager: read page %d: %w", id, err)
	}
	return nil
}

// WritePage writes buf as the durable content of page id.
func (pf *PageFile) WritePage(id page.ID, buf [page.Size]byte) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	offset := int64(id) * page.Size
	if _, err := pf.file.WriteAt(buf[:], offset); err != nil {
		return fmt.Errorf("diskmanager: write page %d: %w", id, err)
	}
	if err := pf.file.Sync(); err != nil {
		return fmt.Errorf("diskmanager: sync page %d: %w", id, err)
	}
	return nil
}

// TotalPages returns the number of pages allocated so far.
func (pf *PageFile) TotalPages() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return int(pf.nextPageID)
}

// Close releases the file lock and closes the underlying OS file.
func (pf *PageFile) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pf.lock.release(pf.file)
	if err := pf.file.Close(); err != nil {
		return fmt.Errorf("diskmanager: close %s: %w", pf.path, err)
	}
	return nil
}
