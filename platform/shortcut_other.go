//go:build !windows

package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ShortcutExt is the file extension for shortcuts on this platform.
const ShortcutExt = ".desktop"

// CreateShortcut writes a desktop-entry file at the specified path, creating
// parent directories as needed. An existing shortcut is replaced.
func CreateShortcut(lnkPath string, s Shortcut) error {
	if _, err := os.Stat(s.Target); err != nil {
		return fmt.Errorf("target not found: %s", s.Target)
	}

	if err := os.MkdirAll(filepath.Dir(lnkPath), 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", filepath.Dir(lnkPath), err)
	}

	workingDir := s.WorkingDir
	if workingDir == "" {
		workingDir = filepath.Dir(s.Target)
	}
	iconPath := s.IconPath
	if iconPath == "" {
		iconPath = s.Target
	}

	exec := s.Target
	if s.Arguments != "" {
		exec += " " + s.Arguments
	}

	content := fmt.Sprintf(
		"[Desktop Entry]\nType=Application\nExec=%s\nPath=%s\nIcon=%s\nComment=%s\n",
		exec, workingDir, iconPath, s.Description,
	)
	return os.WriteFile(lnkPath, []byte(content), 0644)
}

// DeleteShortcut removes a shortcut file. Missing files are not an error.
func DeleteShortcut(lnkPath string) error {
	err := os.Remove(lnkPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
