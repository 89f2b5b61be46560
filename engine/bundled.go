package engine

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

// ErrSetupInProgress is returned when the bundled installer's named lock is
// already held by another setup run.
var ErrSetupInProgress = errors.New("another setup run is in progress")

// BundledResult captures the outcome of a bundled installer run so the
// caller can decide whether a nonzero exit is fatal.
type BundledResult struct {
	// ExitCode is the subprocess exit code; zero on success.
	ExitCode int

	// LogPath is where the subprocess was told to write its log, or empty.
	LogPath string
}

// runBundled stages the bundled installer into tempDir and runs it to
// completion. The named lock is held for the whole run so two concurrent
// setup sessions cannot race on the same staged file. The wait is blocking
// with no timeout.
//
// A nonzero exit code is reported in the result, not as an error; errors
// mean the subprocess could not be staged or launched at all.
func runBundled(b *packflow.BundledInstaller, payloadRoot, tempDir string) (*BundledResult, error) {
	release, ok := platform.AcquireNamedLock(b.Mutex)
	if !ok {
		return nil, ErrSetupInProgress
	}
	defer release()

	staged := filepath.Join(tempDir, filepath.Base(b.Source))
	if err := CopyFile(filepath.Join(payloadRoot, filepath.FromSlash(b.Source)), staged); err != nil {
		return nil, fmt.Errorf("stage bundled installer: %w", err)
	}
	if err := os.Chmod(staged, 0755); err != nil {
		return nil, fmt.Errorf("stage bundled installer: %w", err)
	}
	defer os.Remove(staged)

	result := &BundledResult{}
	if b.LogFile != "" {
		result.LogPath = filepath.Join(tempDir, b.LogFile)
	}

	args := make([]string, len(b.Args))
	for i, a := range b.Args {
		args[i] = strings.ReplaceAll(a, "${log}", result.LogPath)
	}

	cmd := exec.Command(staged, args...)
	cmd.Dir = tempDir
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("launch bundled installer: %w", err)
	}

	return result, nil
}
