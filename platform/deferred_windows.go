//go:build windows

package platform

import (
	"golang.org/x/sys/windows"
)

// scheduleRebootDelete asks Windows to remove the file on the next restart.
// Best effort; the journal retries on the next run regardless.
func scheduleRebootDelete(path string) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return
	}
	_ = windows.MoveFileEx(pathPtr, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT)
}
