// Package platform provides the OS-specific primitives the setup engine
// builds on.
//
// # Features
//
//   - Store: registry-like key/value persistence (real registry on Windows,
//     file-backed elsewhere and in tests)
//   - Shortcuts: Start Menu shortcuts (.lnk via COM on Windows, desktop
//     entries elsewhere)
//   - Paths: Start Menu and default installation directories
//   - Named locks: machine-wide mutual exclusion for setup runs
//   - Journal: pending-deletion bookkeeping for files locked at uninstall
//     time, drained at the next run (scheduled for reboot-delete on Windows)
//   - Elevation: detect whether the process has administrative rights
//
// # Example Usage
//
//	store, err := platform.DefaultStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	release, ok := platform.AcquireNamedLock("MyApp.Setup")
//	if !ok {
//	    // Another setup run is in progress
//	    return
//	}
//	defer release()
package platform
