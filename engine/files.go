package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StepEnsureDir creates a Step that ensures a directory exists.
// Skips if the directory already exists.
func StepEnsureDir(path string) Step {
	return Step{
		Name: fmt.Sprintf("Create %s", filepath.Base(path)),
		Action: func() StepResult {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return Skipped("already exists")
			}
			if err := os.MkdirAll(path, 0755); err != nil {
				return Failed(fmt.Errorf("create directory: %w", err))
			}
			return Success("")
		},
	}
}

// StepCopyFile creates a Step that copies a file from src to dst,
// overwriting any existing file.
func StepCopyFile(src, dst string) Step {
	return Step{
		Name: fmt.Sprintf("Copy %s", filepath.Base(dst)),
		Action: func() StepResult {
			if err := CopyFile(src, dst); err != nil {
				return Failed(err)
			}
			return Success("")
		},
	}
}

// CopyFile copies a file from src to dst, creating parent directories as
// needed. Existing destination files are overwritten unconditionally; there
// is no versioning or merge policy.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}

	return nil
}

// CopyExecutable copies an executable file, handling locked destinations on
// Windows by deleting the destination first (Windows allows unlinking a
// running executable; the copy fails only if the delete did not take).
func CopyExecutable(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(dst)
	}
	return CopyFile(src, dst)
}

// removeEmptyDirs deletes every now-empty directory under root, deepest
// first, then root itself if it ends up empty.
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && info.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	// Deepest paths sort last; remove in reverse.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i]) // fails on non-empty, which is fine
	}
}
