//go:build !windows

package platform

import (
	"os"
	"path/filepath"
	"syscall"
)

// AcquireNamedLock tries to acquire an exclusive file lock to guard a named
// resource across processes. Returns a release function and true if the lock
// was acquired. Returns nil and false if another process already holds it.
//
// Usage:
//
//	release, ok := platform.AcquireNamedLock("MyApp.Setup")
//	if !ok {
//	    // Another setup run is in progress
//	    return
//	}
//	defer release()
func AcquireNamedLock(name string) (release func(), ok bool) {
	lockPath := filepath.Join(os.TempDir(), name+".lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, false
	}

	// Try to acquire exclusive lock (non-blocking)
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		return nil, false
	}

	return func() {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		os.Remove(lockPath)
	}, true
}
