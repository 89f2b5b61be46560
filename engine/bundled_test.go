//go:build !windows

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
}

func TestRunBundledSuccess(t *testing.T) {
	payload := t.TempDir()
	temp := t.TempDir()
	writeScript(t, payload, "redist/chart-setup", `echo installed > "$1"`+"\n")

	b := &packflow.BundledInstaller{
		Source:  "redist/chart-setup",
		Args:    []string{"${log}"},
		LogFile: "chart-setup.log",
		Mutex:   "packflow-test-bundled-success",
	}
	res, err := runBundled(b, payload, temp)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, filepath.Join(temp, "chart-setup.log"), res.LogPath)

	got, err := os.ReadFile(res.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "installed\n", string(got))

	// The staged copy is cleaned up after the run.
	assert.NoFileExists(t, filepath.Join(temp, "chart-setup"))
}

func TestRunBundledNonzeroExitIsNotAnError(t *testing.T) {
	payload := t.TempDir()
	writeScript(t, payload, "redist/chart-setup", "exit 3\n")

	b := &packflow.BundledInstaller{
		Source: "redist/chart-setup",
		Mutex:  "packflow-test-bundled-exit",
	}
	res, err := runBundled(b, payload, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Empty(t, res.LogPath)
}

func TestRunBundledMissingSourceFails(t *testing.T) {
	b := &packflow.BundledInstaller{
		Source: "redist/missing",
		Mutex:  "packflow-test-bundled-missing",
	}
	_, err := runBundled(b, t.TempDir(), t.TempDir())
	assert.Error(t, err)
}

func TestRunBundledLockHeld(t *testing.T) {
	release, ok := platform.AcquireNamedLock("packflow-test-bundled-lock")
	require.True(t, ok)
	defer release()

	payload := t.TempDir()
	writeScript(t, payload, "redist/chart-setup", "exit 0\n")

	b := &packflow.BundledInstaller{
		Source: "redist/chart-setup",
		Mutex:  "packflow-test-bundled-lock",
	}
	_, err := runBundled(b, payload, t.TempDir())
	assert.ErrorIs(t, err, ErrSetupInProgress)
}
