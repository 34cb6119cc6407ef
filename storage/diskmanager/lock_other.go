//go:build !unix

package diskmanager

import "os"

// fileLock is a no-op on platforms without flock(2); cross-process
// mutual exclusion on the page file is unix-only.
type fileLock struct{}

func (fileLock) acquire(f *os.File) error { return nil }

func (fileLock) release(f *os.File) error { return nil }
