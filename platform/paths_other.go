//go:build !windows

package platform

import (
	"os"
	"path/filepath"
)

// StartMenuPath returns the system-wide application launcher directory.
func StartMenuPath() (string, error) {
	return "/usr/share/applications", nil
}

// UserStartMenuPath returns the current user's application launcher directory.
func UserStartMenuPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}

// ProgramFilesPath returns the conventional system-wide installation root.
func ProgramFilesPath() string {
	return "/opt"
}

// DefaultInstallDir returns the default installation directory for a product.
// Per-user installs go under the home directory when the process is not
// running as root.
func DefaultInstallDir(productName string) string {
	if os.Geteuid() == 0 {
		return filepath.Join(ProgramFilesPath(), productName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), productName)
	}
	return filepath.Join(home, ".local", "opt", productName)
}
