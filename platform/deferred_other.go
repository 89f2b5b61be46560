//go:build !windows

package platform

// scheduleRebootDelete is a no-op outside Windows; the journal alone carries
// pending deletions across runs.
func scheduleRebootDelete(path string) {
}
