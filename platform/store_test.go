package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafted-tech/packflow"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	return s
}

func TestFileStoreValues(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SetString(packflow.HiveMachine, `SOFTWARE\App`, "Dir", `C:\App`))
	require.NoError(t, s.SetDWord(packflow.HiveMachine, `SOFTWARE\App`, "SP", 1))

	dir, err := s.GetString(packflow.HiveMachine, `SOFTWARE\App`, "Dir")
	require.NoError(t, err)
	assert.Equal(t, `C:\App`, dir)

	sp, err := s.GetDWord(packflow.HiveMachine, `SOFTWARE\App`, "SP")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), sp)

	// Kind mismatch reads as absent.
	_, err = s.GetDWord(packflow.HiveMachine, `SOFTWARE\App`, "Dir")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = s.GetString(packflow.HiveMachine, `SOFTWARE\App`, "SP")
	assert.ErrorIs(t, err, ErrNotExist)

	// Hives are separate namespaces.
	_, err = s.GetString(packflow.HiveUser, `SOFTWARE\App`, "Dir")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetString(packflow.HiveUser, `SOFTWARE\App`, "Lang", "fr"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	lang, err := reopened.GetString(packflow.HiveUser, `SOFTWARE\App`, "Lang")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)
}

func TestFileStoreDeleteKeyRemovesSubkeys(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetString(packflow.HiveMachine, `SOFTWARE\Vendor\App`, "Dir", "x"))
	require.NoError(t, s.SetDWord(packflow.HiveMachine, `SOFTWARE\Vendor\App\Components`, "Main", 1))
	require.NoError(t, s.SetString(packflow.HiveMachine, `SOFTWARE\Vendor\Applet`, "Dir", "y"))

	require.NoError(t, s.DeleteKey(packflow.HiveMachine, `SOFTWARE\Vendor\App`))

	_, err := s.GetString(packflow.HiveMachine, `SOFTWARE\Vendor\App`, "Dir")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = s.GetDWord(packflow.HiveMachine, `SOFTWARE\Vendor\App\Components`, "Main")
	assert.ErrorIs(t, err, ErrNotExist)

	// Sibling key whose name shares a prefix is untouched.
	dir, err := s.GetString(packflow.HiveMachine, `SOFTWARE\Vendor\Applet`, "Dir")
	require.NoError(t, err)
	assert.Equal(t, "y", dir)
}

func TestFileStoreEmptyLeavesNoFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetString(packflow.HiveUser, `SOFTWARE\App`, "Dir", "x"))
	assert.FileExists(t, s.Path())

	require.NoError(t, s.DeleteValue(packflow.HiveUser, `SOFTWARE\App`, "Dir"))
	assert.True(t, s.Empty())
	assert.NoFileExists(t, s.Path())
}

func TestFileStoreDeleteMissingIsNoError(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.DeleteValue(packflow.HiveUser, `SOFTWARE\App`, "Dir"))
	assert.NoError(t, s.DeleteKey(packflow.HiveUser, `SOFTWARE\App`))
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewFileStore(path)
	assert.Error(t, err)
}
