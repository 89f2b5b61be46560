//go:build !windows

package platform

import (
	"os"
	"path/filepath"
)

// DefaultStore returns a file-backed store under the user's cache directory.
// Non-Windows systems have no registry; the file store provides the same
// bookkeeping so install state and component flags survive between runs.
func DefaultStore() (Store, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return NewFileStore(filepath.Join(dir, "packflow", "store.json"))
}
