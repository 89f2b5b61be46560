package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAddAndDrain(t *testing.T) {
	dir := t.TempDir()
	jpath := filepath.Join(dir, "pending.json")

	target := filepath.Join(dir, "old-binary")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	j, err := OpenJournal(jpath)
	require.NoError(t, err)
	require.NoError(t, j.Add(target))
	require.NoError(t, j.Add(target)) // duplicate is ignored
	assert.Equal(t, []string{target}, j.Pending())
	assert.FileExists(t, jpath)

	deleted := j.Drain()
	assert.Equal(t, []string{target}, deleted)
	assert.NoFileExists(t, target)
	assert.Empty(t, j.Pending())
	assert.NoFileExists(t, jpath, "empty journal leaves no file")
}

func TestJournalPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	jpath := filepath.Join(dir, "pending.json")
	target := filepath.Join(dir, "gone-already")

	j, err := OpenJournal(jpath)
	require.NoError(t, err)
	require.NoError(t, j.Add(target))

	// A later process picks the entry up from disk. The file is already
	// gone, which counts as deleted.
	j2, err := OpenJournal(jpath)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, j2.Pending())
	assert.Equal(t, []string{target}, j2.Drain())
}

func TestJournalKeepsUndeletableEntries(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(filepath.Join(dir, "pending.json"))
	require.NoError(t, err)

	// A non-empty directory cannot be removed, so the entry must survive
	// the drain.
	busy := filepath.Join(dir, "busy")
	require.NoError(t, os.MkdirAll(filepath.Join(busy, "sub"), 0755))
	require.NoError(t, j.Add(busy))

	assert.Empty(t, j.Drain())
	assert.Equal(t, []string{busy}, j.Pending())
}
