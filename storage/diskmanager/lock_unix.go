//go:build unix

package diskmanager

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock takes an advisory exclusive flock(2) on the page file so
// two processes never open the same database file concurrently.
// spec.md's Non-goals rule out MVCC and crash recovery within a
// single process; they say nothing about two processes racing on the
// same file, which this closes.
type fileLock struct{}

func (fileLock) acquire(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (fileLock) release(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
