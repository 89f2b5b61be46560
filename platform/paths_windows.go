//go:build windows

package platform

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// StartMenuPath returns the path to the common (all users) Start Menu Programs folder.
// Example: C:\ProgramData\Microsoft\Windows\Start Menu\Programs
func StartMenuPath() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_CommonPrograms, 0)
}

// UserStartMenuPath returns the path to the current user's Start Menu Programs folder.
// Example: C:\Users\<user>\AppData\Roaming\Microsoft\Windows\Start Menu\Programs
func UserStartMenuPath() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_Programs, 0)
}

// ProgramFilesPath returns the path to the Program Files folder.
// Example: C:\Program Files
func ProgramFilesPath() string {
	path := os.Getenv("ProgramFiles")
	if path == "" {
		return `C:\Program Files`
	}
	return path
}

// DefaultInstallDir returns the default installation directory for a product.
func DefaultInstallDir(productName string) string {
	return filepath.Join(ProgramFilesPath(), productName)
}
