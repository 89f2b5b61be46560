//go:build windows

package platform

import (
	"golang.org/x/sys/windows"
)

// AcquireNamedLock tries to acquire a machine-wide named mutex. The name
// should be unique to the guarded resource (e.g., "CraftedTech.Setup").
// Returns a release function and true if the lock was acquired.
// Returns nil and false if another process already holds the lock.
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
	// Use Global\ prefix to work across all sessions
	mutexName, _ := windows.UTF16PtrFromString("Global\\" + name)

	handle, err := windows.CreateMutex(nil, false, mutexName)
	if err != nil {
		// ERROR_ALREADY_EXISTS means another process has the mutex
		if err == windows.ERROR_ALREADY_EXISTS {
			// Close the handle we got (it's a reference to the existing mutex)
			if handle != 0 {
				windows.CloseHandle(handle)
			}
			return nil, false
		}
		// Other errors - proceed anyway (fail open)
		return func() { windows.CloseHandle(handle) }, true
	}

	return func() { windows.CloseHandle(handle) }, true
}
