package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

const testManifest = `
product {
  name      = "Admin Client"
  key       = "AdminClient"
  version   = "1.9.0"
  publisher = "Crafted Tech"
}

prerequisite "dotnet35-sp1" {
  kind    = "registry-min"
  hive    = "HKLM"
  key     = "SOFTWARE\\Microsoft\\NET Framework Setup\\NDP\\v3.5"
  value   = "SP"
  minimum = 1
  message = "prereq.dotnet"
}

section "Main" {
  required = true

  file { source = "client.exe" }
  file { source = "client.exe.config" }
  file {
    source      = "help.pdf"
    destination = "docs"
  }

  shortcut {
    target = "client.exe"
    name   = "Admin Client"
  }

  registry {
    key   = "SOFTWARE\\Crafted\\Admin"
    value = "Channel"
    data  = "stable"
  }
}
`

type testEnv struct {
	payload    string
	installDir string
	startMenu  string
	store      *platform.FileStore
	storePath  string
	journal    *platform.Journal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		payload:    filepath.Join(root, "payload"),
		installDir: filepath.Join(root, "install"),
		startMenu:  filepath.Join(root, "startmenu"),
		storePath:  filepath.Join(root, "store.json"),
	}
	require.NoError(t, os.MkdirAll(env.payload, 0755))
	require.NoError(t, os.MkdirAll(env.startMenu, 0755))

	store, err := platform.NewFileStore(env.storePath)
	require.NoError(t, err)
	env.store = store

	journal, err := platform.OpenJournal(filepath.Join(root, "pending.json"))
	require.NoError(t, err)
	env.journal = journal
	return env
}

func (env *testEnv) writePayload(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(env.payload, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (env *testEnv) runner(t *testing.T, m *packflow.Manifest, lang string, sections []string) *Runner {
	t.Helper()
	return &Runner{
		Manifest:     m,
		Session:      NewSession(env.installDir, lang, sections),
		Store:        env.store,
		Strings:      packflow.NewStrings(lang, nil),
		Journal:      env.journal,
		PayloadRoot:  env.payload,
		StartMenuDir: env.startMenu,
	}
}

// satisfyPrereq seeds the store with the minimum service-pack level.
func (env *testEnv) satisfyPrereq(t *testing.T, m *packflow.Manifest) {
	t.Helper()
	p := m.Prereq
	require.NotNil(t, p)
	require.NoError(t, env.store.SetDWord(p.Hive, p.Key, p.Value, p.Minimum))
}

func parseManifest(t *testing.T, src string) *packflow.Manifest {
	t.Helper()
	m, err := packflow.Parse([]byte(src), "test.hcl")
	require.NoError(t, err)
	return m
}

func TestInstallScenario(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, testManifest)
	env.satisfyPrereq(t, m)
	env.writePayload(t, "client.exe", "exe-bytes")
	env.writePayload(t, "client.exe.config", "<config/>")
	env.writePayload(t, "help.pdf", "pdf-bytes")

	r := env.runner(t, m, "en", nil)
	require.NoError(t, r.Install())

	// Exactly the three payload files at their destinations.
	for rel, content := range map[string]string{
		"client.exe":        "exe-bytes",
		"client.exe.config": "<config/>",
		"docs/help.pdf":     "pdf-bytes",
	} {
		got, err := os.ReadFile(filepath.Join(env.installDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, content, string(got), rel)
	}

	// One application shortcut in the product group.
	lnk := filepath.Join(env.startMenu, "Admin Client", "Admin Client"+platform.ShortcutExt)
	assert.FileExists(t, lnk)

	// Components\Main = 1 plus the bookkeeping values.
	hive := r.Session.Hive()
	v, err := env.store.GetDWord(hive, `SOFTWARE\Crafted Tech\AdminClient\Components`, "Main")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	dir, err := env.store.GetString(hive, `SOFTWARE\Crafted Tech\AdminClient`, "InstallDir")
	require.NoError(t, err)
	assert.Equal(t, env.installDir, dir)

	name, err := env.store.GetString(hive, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\AdminClient`, "DisplayName")
	require.NoError(t, err)
	assert.Equal(t, "Admin Client", name)

	// Manifest registry entry applied.
	channel, err := env.store.GetString(packflow.HiveMachine, `SOFTWARE\Crafted\Admin`, "Channel")
	require.NoError(t, err)
	assert.Equal(t, "stable", channel)

	// Uninstaller and reverse manifest written last.
	assert.FileExists(t, filepath.Join(env.installDir, UninstallerName()))
	record, err := LoadRecord(env.installDir)
	require.NoError(t, err)
	require.Len(t, record.Sections, 1)
	assert.Equal(t, "Main", record.Sections[0].Name)
	assert.Len(t, record.Sections[0].Files, 3)
}

func TestInstallFailingPrereqWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, testManifest)
	// Service pack level below the minimum.
	require.NoError(t, env.store.SetDWord(m.Prereq.Hive, m.Prereq.Key, m.Prereq.Value, 0))
	env.writePayload(t, "client.exe", "exe-bytes")
	env.writePayload(t, "client.exe.config", "<config/>")
	env.writePayload(t, "help.pdf", "pdf-bytes")

	r := env.runner(t, m, "es", nil)
	err := r.Install()
	require.Error(t, err)

	var pe *PrereqError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "dotnet35-sp1", pe.Name)
	assert.Equal(t, "Admin Client requiere .NET Framework 3.5 con Service Pack 1 o posterior.", pe.Message)

	// No file, shortcut, or store write happened.
	assert.NoDirExists(t, env.installDir)
	entries, err := os.ReadDir(env.startMenu)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = env.store.GetString(r.Session.Hive(), `SOFTWARE\Crafted\Admin`, "Channel")
	assert.ErrorIs(t, err, platform.ErrNotExist)
}

func TestInstallMissingPrereqValueFails(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, testManifest)
	env.writePayload(t, "client.exe", "exe-bytes")

	err := env.runner(t, m, "en", nil).Install()
	var pe *PrereqError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Admin Client requires the .NET Framework 3.5 with Service Pack 1 or later.", pe.Message)
}

func TestInstallTwiceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, testManifest)
	env.satisfyPrereq(t, m)
	env.writePayload(t, "client.exe", "exe-bytes")
	env.writePayload(t, "client.exe.config", "<config/>")
	env.writePayload(t, "help.pdf", "pdf-bytes")

	require.NoError(t, env.runner(t, m, "en", nil).Install())
	require.NoError(t, env.runner(t, m, "en", nil).Install())

	got, err := os.ReadFile(filepath.Join(env.installDir, "client.exe"))
	require.NoError(t, err)
	assert.Equal(t, "exe-bytes", string(got))

	v, err := env.store.GetDWord(NewSession("", "en", nil).Hive(), `SOFTWARE\Crafted Tech\AdminClient\Components`, "Main")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

func TestInstallAbortsOnMissingSource(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, testManifest)
	env.satisfyPrereq(t, m)
	// Only the first file exists; the copy of the second aborts the run.
	env.writePayload(t, "client.exe", "exe-bytes")

	err := env.runner(t, m, "en", nil).Install()
	require.Error(t, err)

	// No rollback: the first file stays, the rest was never processed.
	assert.FileExists(t, filepath.Join(env.installDir, "client.exe"))
	assert.NoFileExists(t, filepath.Join(env.installDir, UninstallerName()))
	_, err = env.store.GetString(packflow.HiveMachine, `SOFTWARE\Crafted\Admin`, "Channel")
	assert.ErrorIs(t, err, platform.ErrNotExist)
}

func TestLocaleFilesLandInLocaleSubdir(t *testing.T) {
	env := newTestEnv(t)
	m := parseManifest(t, `
product {
  name    = "App"
  version = "1.0"
}
section "Translations" {
  file {
    source      = "po/es/app.mo"
    destination = "locale"
    locale      = "es"
  }
}
`)
	env.writePayload(t, "po/es/app.mo", "mo-bytes")

	require.NoError(t, env.runner(t, m, "en", nil).Install())
	assert.FileExists(t, filepath.Join(env.installDir, "locale", "es", "app.mo"))
}
